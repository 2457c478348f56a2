// Package title derives canonical titles from quiz and lesson documents.
//
// A document's raw title is its top-level "title" field (structured JSON) or
// its first heading line (Markdown). The canonical title drops any numbering
// prefix up to the first colon, so "Lesson 1: Intro" and "Quiz 1: Intro"
// both canonicalise to "Intro" and can be linked to each other.
package title

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	goerrors "github.com/goliatone/go-errors"
)

// Format is the closed set of document formats the extractor understands.
type Format int

const (
	FormatStructured Format = iota + 1
	FormatMarkdown
)

func (f Format) String() string {
	switch f {
	case FormatStructured:
		return "structured"
	case FormatMarkdown:
		return "markdown"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

var (
	// ErrTitleExtraction reports a document without a usable title.
	ErrTitleExtraction = errors.New("title: extraction failed")
	// ErrUnsupportedFormat reports a file whose extension maps to no Format.
	ErrUnsupportedFormat = errors.New("title: unsupported format")
)

var utf8BOM = []byte("\xEF\xBB\xBF")

// Classify maps a file name onto a Format by extension. It never inspects
// content.
func Classify(name string) (Format, error) {
	switch strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/"))) {
	case ".json":
		return FormatStructured, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	}
	return 0, goerrors.Wrap(ErrUnsupportedFormat, goerrors.CategoryBadInput, "title: cannot classify file").
		WithTextCode("UNSUPPORTED_FORMAT").
		WithMetadata(map[string]any{"name": name})
}

// Extract returns the canonical title of raw.
func Extract(raw []byte, format Format) (string, error) {
	return extract(raw, format)
}

// ExtractReader reads r to EOF and applies the same extraction as Extract.
func ExtractReader(r io.Reader, format Format) (string, error) {
	if r == nil {
		return "", extractionError(format, "nil reader")
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", goerrors.Wrap(ErrTitleExtraction, goerrors.CategoryValidation, "title: read document").
			WithTextCode("TITLE_EXTRACTION_FAILED").
			WithMetadata(map[string]any{"format": format.String(), "cause": err.Error()})
	}
	return extract(raw, format)
}

// Canonicalize applies the numbering-prefix rule to a raw title.
func Canonicalize(raw string) string {
	if _, rest, found := strings.Cut(raw, ":"); found {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(raw)
}

func extract(raw []byte, format Format) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	var (
		rawTitle string
		err      error
	)
	switch format {
	case FormatStructured:
		rawTitle, err = structuredTitle(raw)
	case FormatMarkdown:
		rawTitle, err = markdownTitle(raw)
	default:
		return "", goerrors.Wrap(ErrUnsupportedFormat, goerrors.CategoryBadInput, "title: unknown format").
			WithTextCode("UNSUPPORTED_FORMAT").
			WithMetadata(map[string]any{"format": format.String()})
	}
	if err != nil {
		return "", err
	}

	canonical := Canonicalize(rawTitle)
	if canonical == "" {
		return "", extractionError(format, "empty canonical title")
	}
	return canonical, nil
}

func structuredTitle(raw []byte) (string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", extractionError(FormatStructured, "invalid document")
	}
	field, ok := doc["title"]
	if !ok {
		return "", extractionError(FormatStructured, "missing title field")
	}
	var value string
	if err := json.Unmarshal(field, &value); err != nil {
		return "", extractionError(FormatStructured, "title field is not a string")
	}
	return value, nil
}

func markdownTitle(raw []byte) (string, error) {
	var meta map[string]any
	if body, err := frontmatter.Parse(bytes.NewReader(raw), &meta); err == nil {
		if heading, ok := firstHeading(body); ok {
			return heading, nil
		}
	}
	if heading, ok := firstHeading(raw); ok {
		return heading, nil
	}
	return "", extractionError(FormatMarkdown, "no heading line")
}

// firstHeading returns the first line that starts with '#'. Indented lines
// are not headings.
func firstHeading(body []byte) (string, bool) {
	for line := range strings.Lines(string(body)) {
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#")), true
		}
	}
	return "", false
}

func extractionError(format Format, reason string) error {
	return goerrors.Wrap(ErrTitleExtraction, goerrors.CategoryValidation, "title: "+reason).
		WithTextCode("TITLE_EXTRACTION_FAILED").
		WithMetadata(map[string]any{"format": format.String()})
}
