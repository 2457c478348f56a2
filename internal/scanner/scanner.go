// Package scanner enumerates document roots and maps each entry to a value.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-curriculum/internal/logging"
	"github.com/goliatone/go-curriculum/internal/source"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

var (
	// ErrScan reports a root that cannot be enumerated.
	ErrScan = errors.New("scanner: root cannot be enumerated")
	// ErrSkip may be wrapped by a mapper to drop the entry without failing
	// the scan.
	ErrSkip = errors.New("scanner: skip entry")
)

// Entry is a bundled document handed to a ContentMapper.
type Entry struct {
	Name      string
	Reference source.Reference
	Content   []byte
}

// PathMapper maps a file that is addressable on the host filesystem.
type PathMapper[T any] func(ctx context.Context, path string) (T, error)

// ContentMapper maps a bundled document whose bytes were read by the scanner.
type ContentMapper[T any] func(ctx context.Context, entry Entry) (T, error)

// Options configures a Scanner.
type Options struct {
	// Recursive descends into subdirectories. The default scans one level.
	Recursive bool
	// Workers bounds concurrent mapper calls. Zero uses GOMAXPROCS.
	Workers int
	Logger  interfaces.Logger
}

// Scanner walks filesystem or bundle roots.
type Scanner struct {
	loader    *source.Loader
	recursive bool
	workers   int
	logger    interfaces.Logger
}

// New constructs a Scanner. The loader supplies the resource bundle and reads
// bundled entries.
func New(loader *source.Loader, opts Options) *Scanner {
	if loader == nil {
		loader = source.NewLoader()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scanner{
		loader:    loader,
		recursive: opts.Recursive,
		workers:   workers,
		logger:    logging.OrNoOp(opts.Logger),
	}
}

type candidate struct {
	name string
	ref  source.Reference
}

type slot[T any] struct {
	value T
	ok    bool
}

// Scan enumerates root and maps every regular, non-hidden file. Filesystem
// roots feed pathMapper; resource roots feed contentMapper. Unreadable
// entries and entries whose mapper returns an ErrSkip error are dropped with
// a warning. Any other mapper error aborts the scan. Results keep enumeration
// order.
func Scan[T any](ctx context.Context, s *Scanner, root source.Reference, pathMapper PathMapper[T], contentMapper ContentMapper[T]) ([]T, error) {
	if s == nil {
		s = New(nil, Options{})
	}
	started := time.Now()
	logger := logging.WithFields(s.logger, map[string]any{"root": root.String()}).WithContext(ctx)

	candidates, err := s.enumerate(root)
	if err != nil {
		logger.Error("scanner.scan.failed", "error", err)
		return nil, err
	}

	slots := make([]slot[T], len(candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for i, c := range candidates {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			value, keep, err := mapEntry(groupCtx, s, logger, c, pathMapper, contentMapper)
			if err != nil {
				return err
			}
			slots[i] = slot[T]{value: value, ok: keep}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.Error("scanner.scan.aborted", "error", err)
		return nil, err
	}

	results := make([]T, 0, len(slots))
	for _, sl := range slots {
		if sl.ok {
			results = append(results, sl.value)
		}
	}

	logger.Debug("scanner.scan.completed",
		"entries", len(candidates),
		"mapped", len(results),
		"duration", time.Since(started),
	)
	return results, nil
}

func mapEntry[T any](ctx context.Context, s *Scanner, logger interfaces.Logger, c candidate, pathMapper PathMapper[T], contentMapper ContentMapper[T]) (T, bool, error) {
	var zero T
	entryLogger := logging.WithFields(logger, map[string]any{"entry": c.name})

	var (
		value T
		err   error
	)
	switch c.ref.Kind {
	case source.KindAbsolutePath:
		if pathMapper == nil {
			return zero, false, goerrors.New("scanner: path mapper required for filesystem roots", goerrors.CategoryBadInput)
		}
		if readErr := checkReadable(c.ref.Path); readErr != nil {
			entryLogger.Warn("scanner.entry.unreadable", "error", readErr)
			return zero, false, nil
		}
		value, err = pathMapper(ctx, c.ref.Path)
	case source.KindResource:
		if contentMapper == nil {
			return zero, false, goerrors.New("scanner: content mapper required for resource roots", goerrors.CategoryBadInput)
		}
		content, loadErr := s.loader.Load(ctx, c.ref)
		if loadErr != nil {
			entryLogger.Warn("scanner.entry.unreadable", "error", loadErr)
			return zero, false, nil
		}
		value, err = contentMapper(ctx, Entry{Name: c.name, Reference: c.ref, Content: content})
	}

	if err != nil {
		if errors.Is(err, ErrSkip) {
			entryLogger.Warn("scanner.entry.skipped", "error", err)
			return zero, false, nil
		}
		return zero, false, err
	}
	return value, true, nil
}

func checkReadable(p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	return f.Close()
}

func (s *Scanner) enumerate(root source.Reference) ([]candidate, error) {
	switch root.Kind {
	case source.KindAbsolutePath:
		return s.enumerateFS(os.DirFS(root.Path), root, func(rel string) source.Reference {
			return source.Reference{Kind: source.KindAbsolutePath, Path: filepath.Join(root.Path, filepath.FromSlash(rel))}
		})
	case source.KindResource:
		bundle := s.loader.Bundle()
		if bundle == nil {
			return nil, scanError(root, errors.New("no resource bundle configured"))
		}
		sub := bundle
		if root.Path != "." {
			var err error
			if sub, err = fs.Sub(bundle, root.Path); err != nil {
				return nil, scanError(root, err)
			}
		}
		return s.enumerateFS(sub, root, func(rel string) source.Reference {
			return source.ResourceReference(path.Join(root.Path, rel))
		})
	}
	return nil, scanError(root, errors.New("unknown reference kind"))
}

func (s *Scanner) enumerateFS(fsys fs.FS, root source.Reference, ref func(rel string) source.Reference) ([]candidate, error) {
	info, err := fs.Stat(fsys, ".")
	if err != nil {
		return nil, scanError(root, err)
	}
	if !info.IsDir() {
		return nil, scanError(root, errors.New("root is not a directory"))
	}

	var out []candidate
	add := func(rel string, d fs.DirEntry) {
		if !isRegular(fsys, rel, d) {
			return
		}
		out = append(out, candidate{name: d.Name(), ref: ref(rel)})
	}

	if !s.recursive {
		entries, err := fs.ReadDir(fsys, ".")
		if err != nil {
			return nil, scanError(root, err)
		}
		for _, d := range entries {
			if hidden(d.Name()) || d.IsDir() {
				continue
			}
			add(d.Name(), d)
		}
		return out, nil
	}

	err = fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if rel == "." {
				return walkErr
			}
			s.logger.Warn("scanner.entry.unreadable", "entry", rel, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if rel == "." {
			return nil
		}
		if hidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		add(rel, d)
		return nil
	})
	if err != nil {
		return nil, scanError(root, err)
	}
	return out, nil
}

// isRegular accepts regular files and symlinks that resolve to one.
func isRegular(fsys fs.FS, rel string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := fs.Stat(fsys, rel)
	return err == nil && info.Mode().IsRegular()
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func scanError(root source.Reference, cause error) error {
	return goerrors.Wrap(ErrScan, goerrors.CategoryInternal, "scanner: "+cause.Error()).
		WithTextCode("SCAN_FAILED").
		WithMetadata(map[string]any{"root": root.String()})
}
