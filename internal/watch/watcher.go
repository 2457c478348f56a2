// Package watch re-runs ingestion when files under the content roots change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-curriculum/internal/logging"
	"github.com/goliatone/go-curriculum/internal/title"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

// DefaultDebounce is the quiet period observed before a re-index.
const DefaultDebounce = 250 * time.Millisecond

// ErrWatch reports a watcher that could not be started.
var ErrWatch = errors.New("watch: cannot watch directory")

// Trigger performs one re-index.
type Trigger func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Debounce  time.Duration
	Recursive bool
	Logger    interfaces.Logger
}

// Watcher coalesces filesystem events on the content roots into debounced
// re-index triggers.
type Watcher struct {
	trigger  Trigger
	dirs     []string
	debounce time.Duration
	recurse  bool
	logger   interfaces.Logger
}

// New constructs a Watcher over dirs.
func New(trigger Trigger, dirs []string, opts Options) *Watcher {
	w := &Watcher{
		trigger:  trigger,
		dirs:     dirs,
		debounce: opts.Debounce,
		recurse:  opts.Recursive,
		logger:   logging.OrNoOp(opts.Logger),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	return w
}

// Run watches until ctx ends. Trigger failures are logged and watching
// continues. Run returns nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "watch: create watcher")
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := w.add(fsw, dir); err != nil {
			return err
		}
	}
	w.logger.Info("watch.started", "dirs", strings.Join(w.dirs, ","), "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch.stopped")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.recurse && event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := w.add(fsw, event.Name); err != nil {
					w.logger.Warn("watch.add.failed", "path", event.Name, "error", err)
				}
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("watch.event", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
			pending = true
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch.error", "error", err)
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := w.trigger(ctx); err != nil {
				w.logger.Error("watch.reindex.failed", "error", err)
				continue
			}
			w.logger.Debug("watch.reindex.completed")
		}
	}
}

func (w *Watcher) add(fsw *fsnotify.Watcher, dir string) error {
	if !w.recurse {
		return wrapAdd(fsw.Add(dir), dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return wrapAdd(err, path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return wrapAdd(fsw.Add(path), path)
	})
}

func wrapAdd(err error, dir string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(errors.Join(ErrWatch, err), goerrors.CategoryBadInput, "watch: add directory").
		WithMetadata(map[string]any{"dir": dir})
}

// relevant reports whether event can change the index: a content file was
// created, written, removed or renamed. Chmod-only events are ignored.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	_, err := title.Classify(event.Name)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
