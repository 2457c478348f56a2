package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-curriculum/internal/source"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func baseName(_ context.Context, path string) (string, error) {
	return filepath.Base(path), nil
}

func entryName(_ context.Context, e Entry) (string, error) {
	return e.Name, nil
}

func TestScanFilesystemOneLevel(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.md":        "# A",
		"b.json":      `{"title":"B"}`,
		".hidden.md":  "# hidden",
		"nested/c.md": "# C",
	})

	s := New(nil, Options{Workers: 2})
	got, err := Scan(context.Background(), s, source.Reference{Kind: source.KindAbsolutePath, Path: dir}, baseName, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	slices.Sort(got)
	if want := []string{"a.md", "b.json"}; !slices.Equal(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestScanFilesystemRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.md":             "# A",
		"nested/c.md":      "# C",
		"nested/deep/d.md": "# D",
		".git/config.md":   "# ignored",
	})

	s := New(nil, Options{Recursive: true})
	got, err := Scan(context.Background(), s, source.Reference{Kind: source.KindAbsolutePath, Path: dir}, baseName, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	slices.Sort(got)
	if want := []string{"a.md", "c.md", "d.md"}; !slices.Equal(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestScanResourceUsesContentMapper(t *testing.T) {
	bundle := fstest.MapFS{
		"quizzes/one.json":       {Data: []byte(`{"title":"One"}`)},
		"quizzes/two.json":       {Data: []byte(`{"title":"Two"}`)},
		"quizzes/sub/three.json": {Data: []byte(`{"title":"Three"}`)},
		"lessons/intro.md":       {Data: []byte("# Intro")},
	}
	s := New(source.NewLoader(source.WithBundle(bundle)), Options{})

	var pathCalls atomic.Int32
	pathMapper := func(context.Context, string) (string, error) {
		pathCalls.Add(1)
		return "", nil
	}
	contentMapper := func(_ context.Context, e Entry) (string, error) {
		return e.Reference.String() + "=" + string(e.Content), nil
	}

	got, err := Scan(context.Background(), s, source.ResourceReference("quizzes"), pathMapper, contentMapper)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{
		`resource:quizzes/one.json={"title":"One"}`,
		`resource:quizzes/two.json={"title":"Two"}`,
	}
	if !slices.Equal(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if pathCalls.Load() != 0 {
		t.Fatal("path mapper must not be called for resource entries")
	}
}

func TestScanEmptyDirectory(t *testing.T) {
	s := New(nil, Options{})
	got, err := Scan(context.Background(), s, source.Reference{Kind: source.KindAbsolutePath, Path: t.TempDir()}, baseName, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestScanMissingRoot(t *testing.T) {
	s := New(nil, Options{})
	missing := filepath.Join(t.TempDir(), "absent")

	_, err := Scan(context.Background(), s, source.Reference{Kind: source.KindAbsolutePath, Path: missing}, baseName, nil)
	if !errors.Is(err, ErrScan) {
		t.Fatalf("expected ErrScan, got %v", err)
	}

	_, err = Scan(context.Background(), s, source.ResourceReference("quizzes"), nil, entryName)
	if !errors.Is(err, ErrScan) {
		t.Fatalf("expected ErrScan without bundle, got %v", err)
	}

	bundled := New(source.NewLoader(source.WithBundle(fstest.MapFS{})), Options{})
	_, err = Scan(context.Background(), bundled, source.ResourceReference("quizzes"), nil, entryName)
	if !errors.Is(err, ErrScan) {
		t.Fatalf("expected ErrScan for missing resource root, got %v", err)
	}
}

func TestScanRootIsFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"file.md": "# F"})

	_, err := Scan(context.Background(), New(nil, Options{}), source.Reference{Kind: source.KindAbsolutePath, Path: filepath.Join(dir, "file.md")}, baseName, nil)
	if !errors.Is(err, ErrScan) {
		t.Fatalf("expected ErrScan, got %v", err)
	}
}

func TestScanSkipsMapperSkipErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"keep.md": "# keep", "drop.txt": "drop"})

	mapper := func(_ context.Context, path string) (string, error) {
		if strings.HasSuffix(path, ".txt") {
			return "", fmt.Errorf("unsupported: %w", ErrSkip)
		}
		return filepath.Base(path), nil
	}
	got, err := Scan(context.Background(), New(nil, Options{}), source.Reference{Kind: source.KindAbsolutePath, Path: dir}, mapper, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !slices.Equal(got, []string{"keep.md"}) {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestScanAbortsOnMapperFailure(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.md": "# A", "b.md": "# B"})

	boom := goerrors.New("duplicate", goerrors.CategoryConflict)
	mapper := func(context.Context, string) (string, error) { return "", boom }

	_, err := Scan(context.Background(), New(nil, Options{Workers: 1}), source.Reference{Kind: source.KindAbsolutePath, Path: dir}, mapper, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected mapper error, got %v", err)
	}
}

func TestScanPreservesEnumerationOrder(t *testing.T) {
	files := fstest.MapFS{}
	var want []string
	for i := range 20 {
		name := fmt.Sprintf("%02d.md", i)
		files["lessons/"+name] = &fstest.MapFile{Data: []byte("# " + name)}
		want = append(want, name)
	}
	s := New(source.NewLoader(source.WithBundle(files)), Options{Workers: 8})

	got, err := Scan(context.Background(), s, source.ResourceReference("lessons"), nil, entryName)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestScanRequiresMatchingMapper(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.md": "# A"})

	_, err := Scan[string](context.Background(), New(nil, Options{}), source.Reference{Kind: source.KindAbsolutePath, Path: dir}, nil, entryName)
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input error, got %v", err)
	}
}
