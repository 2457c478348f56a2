package interfaces

// MarkdownRenderer converts lesson Markdown into HTML. Implementations must be
// safe for concurrent use because lesson resolution runs per request.
type MarkdownRenderer interface {
	Render(markdown []byte) ([]byte, error)
}

// RenderOptions selects goldmark extensions and raw HTML handling.
type RenderOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}
