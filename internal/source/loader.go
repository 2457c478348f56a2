package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultTimeout bounds a single load when no timeout is configured.
const DefaultTimeout = 5 * time.Second

var (
	// ErrContentNotFound reports a reference that does not resolve to a file.
	ErrContentNotFound = errors.New("source: content not found")
	// ErrContentRead reports an I/O failure other than a missing file.
	ErrContentRead = errors.New("source: content read failed")
)

// Loader reads documents addressed by a Reference. Filesystem references go
// through the host filesystem; resource references go through the bundle.
// Loader holds no mutable state and is safe for concurrent use.
type Loader struct {
	bundle  fs.FS
	timeout time.Duration
	readFS  func(fsys fs.FS, name string) ([]byte, error)
	readOS  func(name string) ([]byte, error)
}

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithBundle sets the resource namespace, for example an embed.FS or
// os.DirFS rooted at a content directory.
func WithBundle(bundle fs.FS) LoaderOption {
	return func(l *Loader) {
		l.bundle = bundle
	}
}

// WithTimeout bounds each load. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// NewLoader constructs a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		timeout: DefaultTimeout,
		readFS:  fs.ReadFile,
		readOS:  os.ReadFile,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Bundle exposes the configured resource namespace, which may be nil.
func (l *Loader) Bundle() fs.FS {
	return l.bundle
}

// Load returns the bytes addressed by ref.
func (l *Loader) Load(ctx context.Context, ref Reference) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := l.read(ref)
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, readError(ref, ctx.Err())
	case res := <-done:
		return res.data, res.err
	}
}

func (l *Loader) read(ref Reference) ([]byte, error) {
	switch ref.Kind {
	case KindAbsolutePath:
		info, err := os.Stat(ref.Path)
		if err != nil {
			return nil, classify(ref, err)
		}
		if info.IsDir() {
			return nil, readError(ref, errors.New("reference points at a directory"))
		}
		data, err := l.readOS(ref.Path)
		if err != nil {
			return nil, classify(ref, err)
		}
		return data, nil
	case KindResource:
		if l.bundle == nil {
			return nil, notFound(ref, errors.New("no resource bundle configured"))
		}
		data, err := l.readFS(l.bundle, ref.Path)
		if err != nil {
			return nil, classify(ref, err)
		}
		return data, nil
	}
	return nil, notFound(ref, errors.New("unknown reference kind"))
}

func classify(ref Reference, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(ref, err)
	}
	return readError(ref, err)
}

func notFound(ref Reference, cause error) error {
	return goerrors.Wrap(ErrContentNotFound, goerrors.CategoryNotFound, "source: "+cause.Error()).
		WithTextCode("CONTENT_NOT_FOUND").
		WithMetadata(map[string]any{"reference": ref.String()})
}

func readError(ref Reference, cause error) error {
	return goerrors.Wrap(ErrContentRead, goerrors.CategoryInternal, "source: "+cause.Error()).
		WithTextCode("CONTENT_READ_FAILED").
		WithMetadata(map[string]any{"reference": ref.String()})
}
