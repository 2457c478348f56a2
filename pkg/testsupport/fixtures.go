package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree writes files, keyed by slash-separated paths relative to root,
// creating parent directories as needed.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// CatalogDirs creates empty lessons and quizzes directories under a fresh
// temporary root and returns their paths.
func CatalogDirs(t testing.TB) (root, lessons, quizzes string) {
	t.Helper()
	root = t.TempDir()
	lessons = filepath.Join(root, "lessons")
	quizzes = filepath.Join(root, "quizzes")
	for _, dir := range []string{lessons, quizzes} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return root, lessons, quizzes
}
