package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func TestParseReference(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "quiz.json")

	cases := []struct {
		raw  string
		want Reference
	}{
		{raw: abs, want: Reference{Kind: KindAbsolutePath, Path: abs}},
		{raw: "resource:quizzes/intro.json", want: Reference{Kind: KindResource, Path: "quizzes/intro.json"}},
		{raw: "classpath:quizzes/intro.json", want: Reference{Kind: KindResource, Path: "quizzes/intro.json"}},
		{raw: "resource:/quizzes/../quizzes/./intro.json", want: Reference{Kind: KindResource, Path: "quizzes/intro.json"}},
	}
	for _, tc := range cases {
		got, err := ParseReference(tc.raw)
		if err != nil {
			t.Fatalf("ParseReference(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseReference(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}

	for _, raw := range []string{"", "   ", "relative/quiz.json"} {
		if _, err := ParseReference(raw); !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
			t.Fatalf("ParseReference(%q): expected bad input, got %v", raw, err)
		}
	}
}

func TestReferenceStringRoundTrip(t *testing.T) {
	for _, ref := range []Reference{
		ResourceReference("lessons/intro.md"),
		{Kind: KindAbsolutePath, Path: filepath.Join(t.TempDir(), "intro.md")},
	} {
		parsed, err := ParseReference(ref.String())
		if err != nil {
			t.Fatalf("ParseReference(%q): %v", ref.String(), err)
		}
		if parsed != ref {
			t.Fatalf("round trip mismatch: %+v vs %+v", parsed, ref)
		}
	}
}

func TestReferenceJoinAndBase(t *testing.T) {
	root := ResourceReference("lessons")
	child := root.Join("java/intro.md")
	if child.String() != "resource:lessons/java/intro.md" {
		t.Fatalf("unexpected join %s", child)
	}
	if child.Base() != "intro.md" {
		t.Fatalf("unexpected base %s", child.Base())
	}
}

func TestLoaderReadsFilesystemAndBundle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intro.md")
	if err := os.WriteFile(path, []byte("# Lesson 1: Intro\nBody text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	bundle := fstest.MapFS{
		"quizzes/intro.json": {Data: []byte(`{"title":"Quiz 1: Intro"}`)},
	}
	loader := NewLoader(WithBundle(bundle))

	data, err := loader.Load(context.Background(), Reference{Kind: KindAbsolutePath, Path: path})
	if err != nil {
		t.Fatalf("Load path: %v", err)
	}
	if string(data) != "# Lesson 1: Intro\nBody text" {
		t.Fatalf("unexpected content %q", data)
	}

	data, err = loader.Load(context.Background(), ResourceReference("quizzes/intro.json"))
	if err != nil {
		t.Fatalf("Load resource: %v", err)
	}
	if string(data) != `{"title":"Quiz 1: Intro"}` {
		t.Fatalf("unexpected resource content %q", data)
	}
}

func TestLoaderNotFound(t *testing.T) {
	loader := NewLoader(WithBundle(fstest.MapFS{}))

	refs := []Reference{
		{Kind: KindAbsolutePath, Path: filepath.Join(t.TempDir(), "missing.md")},
		ResourceReference("missing.json"),
	}
	for _, ref := range refs {
		_, err := loader.Load(context.Background(), ref)
		if !errors.Is(err, ErrContentNotFound) {
			t.Fatalf("Load(%s): expected ErrContentNotFound, got %v", ref, err)
		}
		if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
			t.Fatalf("Load(%s): expected not found category, got %v", ref, err)
		}
	}

	if _, err := NewLoader().Load(context.Background(), ResourceReference("any.json")); !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("expected ErrContentNotFound without bundle, got %v", err)
	}
}

func TestLoaderReadFailure(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader()

	_, err := loader.Load(context.Background(), Reference{Kind: KindAbsolutePath, Path: dir})
	if !errors.Is(err, ErrContentRead) {
		t.Fatalf("expected ErrContentRead for directory, got %v", err)
	}
	if errors.Is(err, ErrContentNotFound) {
		t.Fatal("read failure must not match not found")
	}

	path := filepath.Join(dir, "broken.md")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader.readOS = func(string) ([]byte, error) { return nil, errors.New("input/output error") }
	if _, err := loader.Load(context.Background(), Reference{Kind: KindAbsolutePath, Path: path}); !goerrors.IsCategory(err, goerrors.CategoryInternal) {
		t.Fatalf("expected internal category, got %v", err)
	}
}

func TestLoaderTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slow.md")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	release := make(chan struct{})
	defer close(release)

	loader := NewLoader(WithTimeout(20 * time.Millisecond))
	loader.readOS = func(string) ([]byte, error) {
		<-release
		return nil, nil
	}

	start := time.Now()
	_, err := loader.Load(context.Background(), Reference{Kind: KindAbsolutePath, Path: path})
	if !errors.Is(err, ErrContentRead) {
		t.Fatalf("expected ErrContentRead on timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("load blocked for %s", elapsed)
	}
}
