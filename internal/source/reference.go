// Package source resolves stored file references into raw document bytes.
package source

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Kind distinguishes filesystem-backed references from bundled resources.
type Kind int

const (
	// KindAbsolutePath addresses a file on the host filesystem.
	KindAbsolutePath Kind = iota + 1
	// KindResource addresses a file inside the loader's resource bundle.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindAbsolutePath:
		return "path"
	case KindResource:
		return "resource"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	resourcePrefix = "resource:"
	legacyPrefix   = "classpath:"
)

// Reference is the persisted pointer to a lesson or quiz document.
type Reference struct {
	Kind Kind
	Path string
}

// PathReference builds an absolute filesystem reference.
func PathReference(p string) (Reference, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Reference{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "source: resolve absolute path").
			WithMetadata(map[string]any{"path": p})
	}
	return Reference{Kind: KindAbsolutePath, Path: abs}, nil
}

// ResourceReference builds a bundle reference. The path is cleaned and made
// relative to the bundle root.
func ResourceReference(p string) Reference {
	cleaned := path.Clean("/" + strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" {
		cleaned = "."
	}
	return Reference{Kind: KindResource, Path: cleaned}
}

// ParseReference decodes the persisted form produced by Reference.String.
// The legacy "classpath:" prefix is read as a resource reference.
func ParseReference(raw string) (Reference, error) {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return Reference{}, invalidReference(raw, "empty reference")
	case strings.HasPrefix(value, resourcePrefix):
		return ResourceReference(strings.TrimPrefix(value, resourcePrefix)), nil
	case strings.HasPrefix(value, legacyPrefix):
		return ResourceReference(strings.TrimPrefix(value, legacyPrefix)), nil
	case filepath.IsAbs(value):
		return Reference{Kind: KindAbsolutePath, Path: filepath.Clean(value)}, nil
	}
	return Reference{}, invalidReference(raw, "reference is neither absolute nor a resource")
}

// String returns the persisted encoding.
func (r Reference) String() string {
	if r.Kind == KindResource {
		return resourcePrefix + r.Path
	}
	return r.Path
}

// IsZero reports whether r is unset.
func (r Reference) IsZero() bool {
	return r.Kind == 0 && r.Path == ""
}

// Join returns a reference to name beneath r, preserving the kind.
func (r Reference) Join(name string) Reference {
	if r.Kind == KindResource {
		return ResourceReference(path.Join(r.Path, name))
	}
	return Reference{Kind: r.Kind, Path: filepath.Join(r.Path, name)}
}

// Base returns the final element of the reference path.
func (r Reference) Base() string {
	if r.Kind == KindResource {
		return path.Base(r.Path)
	}
	return filepath.Base(r.Path)
}

func invalidReference(raw, reason string) error {
	return goerrors.New("source: "+reason, goerrors.CategoryBadInput).
		WithTextCode("INVALID_REFERENCE").
		WithMetadata(map[string]any{"reference": raw})
}
