package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func startWatcher(t *testing.T, dirs []string, recursive bool) <-chan struct{} {
	t.Helper()
	runs := make(chan struct{}, 16)
	w := New(func(context.Context) error {
		runs <- struct{}{}
		return nil
	}, dirs, Options{Debounce: 20 * time.Millisecond, Recursive: recursive})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run returned %v", err)
		}
	})
	// give the watcher time to register its directories
	time.Sleep(50 * time.Millisecond)
	return runs
}

func waitRun(t *testing.T, runs <-chan struct{}) {
	t.Helper()
	select {
	case <-runs:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a re-index to be triggered")
	}
}

func TestWatcherTriggersOnContentFile(t *testing.T) {
	dir := t.TempDir()
	runs := startWatcher(t, []string{dir}, false)

	if err := os.WriteFile(filepath.Join(dir, "intro.md"), []byte("# Intro"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitRun(t, runs)
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	runs := startWatcher(t, []string{dir}, false)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-runs:
		t.Fatal("unrelated file must not trigger a re-index")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherFollowsNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	runs := startWatcher(t, []string{dir}, true)

	sub := filepath.Join(dir, "unit1")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "quiz.json"), []byte(`{"title":"Intro"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitRun(t, runs)
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := New(func(context.Context) error { return nil }, []string{filepath.Join(t.TempDir(), "absent")}, Options{})
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestRelevant(t *testing.T) {
	cases := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/c/intro.md", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/c/quiz.JSON", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/c/intro.md", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "/c/intro.md", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/c/.intro.md.swp", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/c/.hidden.md", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/c/readme.txt", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		if got := relevant(tc.event); got != tc.want {
			t.Fatalf("relevant(%v) = %v, want %v", tc.event, got, tc.want)
		}
	}
}
