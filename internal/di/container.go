package di

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	catalogcmd "github.com/goliatone/go-curriculum/internal/commands/catalog"
	"github.com/goliatone/go-curriculum/internal/indexer"
	"github.com/goliatone/go-curriculum/internal/logging"
	"github.com/goliatone/go-curriculum/internal/logging/console"
	"github.com/goliatone/go-curriculum/internal/logging/gologger"
	"github.com/goliatone/go-curriculum/internal/markdown"
	"github.com/goliatone/go-curriculum/internal/resolver"
	"github.com/goliatone/go-curriculum/internal/runtimeconfig"
	"github.com/goliatone/go-curriculum/internal/scanner"
	"github.com/goliatone/go-curriculum/internal/source"
	"github.com/goliatone/go-curriculum/internal/storage"
	"github.com/goliatone/go-curriculum/internal/watch"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

// ErrWatchUnsupported reports a watch request on a root that is not a
// filesystem directory.
var ErrWatchUnsupported = errors.New("di: only filesystem roots can be watched")

// Container wires the catalog runtime from configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logOutput      io.Writer
	bundle         fs.FS
	bunDB          *bun.DB
	renderer       interfaces.MarkdownRenderer
	clock          func() time.Time
	registry       catalogcmd.CommandRegistry

	roots    indexer.Roots
	repos    *storage.Repositories
	loader   *source.Loader
	scanner  *scanner.Scanner
	indexer  *indexer.Indexer
	resolver resolver.Service
	commands *catalogcmd.HandlerSet
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithLogOutput sets where the console logger provider writes. It has no
// effect when a provider is injected or go-logger is configured.
func WithLogOutput(w io.Writer) Option {
	return func(c *Container) {
		c.logOutput = w
	}
}

// WithBundle supplies the resource bundle addressed by "resource:" roots.
func WithBundle(bundle fs.FS) Option {
	return func(c *Container) {
		c.bundle = bundle
	}
}

// WithBunDB reuses an existing bun database for the bun storage provider.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithRenderer overrides the goldmark renderer built from the markdown config.
func WithRenderer(renderer interfaces.MarkdownRenderer) Option {
	return func(c *Container) {
		c.renderer = renderer
	}
}

// WithClock overrides the clock used to stamp index runs.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		c.clock = clock
	}
}

// WithCommandRegistry registers the catalog command handlers with reg.
func WithCommandRegistry(reg catalogcmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// NewContainer validates cfg and builds every service. Nothing is indexed
// here; callers decide when ingestion runs.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}

	var err error
	c.roots.Lessons, err = runtimeconfig.Root(cfg.LessonsDir, cfg.Scan.Resources)
	if err != nil {
		return nil, err
	}
	c.roots.Quizzes, err = runtimeconfig.Root(cfg.QuizzesDir, cfg.Scan.Resources)
	if err != nil {
		return nil, err
	}

	storageOpts := []storage.Option{storage.WithLogger(logging.StorageLogger(c.loggerProvider))}
	if c.bunDB != nil {
		storageOpts = append(storageOpts, storage.WithDB(c.bunDB))
	}
	c.repos, err = storage.Open(ctx, cfg.Storage, storageOpts...)
	if err != nil {
		return nil, err
	}

	loaderOpts := []source.LoaderOption{source.WithTimeout(cfg.Loader.Timeout)}
	if c.bundle != nil {
		loaderOpts = append(loaderOpts, source.WithBundle(c.bundle))
	}
	c.loader = source.NewLoader(loaderOpts...)

	c.scanner = scanner.New(c.loader, scanner.Options{
		Recursive: cfg.Scan.Recursive,
		Workers:   cfg.Scan.Workers,
		Logger:    logging.ScannerLogger(c.loggerProvider),
	})

	c.indexer = indexer.New(c.scanner, c.repos.Quizzes, c.repos.Lessons, c.roots,
		indexer.WithLogger(logging.IndexerLogger(c.loggerProvider)),
		indexer.WithClock(c.clock),
	)

	if c.renderer == nil {
		c.renderer = markdown.NewRenderer(interfaces.RenderOptions{
			Extensions: cfg.Markdown.Extensions,
			SafeMode:   cfg.Markdown.SafeMode,
		})
	}

	c.resolver = resolver.NewService(c.repos.Quizzes, c.repos.Lessons, c.loader,
		resolver.WithLogger(logging.ResolverLogger(c.loggerProvider)),
		resolver.WithRenderer(c.renderer),
		resolver.WithQuizFailurePolicy(resolver.QuizFailurePolicy(strings.ToLower(strings.TrimSpace(cfg.Resolver.QuizFailure)))),
		resolver.WithSearchLimit(cfg.Resolver.SearchLimit),
	)

	c.commands, err = catalogcmd.RegisterCatalogCommands(c.registry, c.indexer, c.resolver, c.loggerProvider)
	if err != nil {
		_ = c.repos.Close()
		return nil, err
	}

	logging.ModuleLogger(c.loggerProvider, "").Debug("container.configured",
		"lessons_root", c.roots.Lessons.String(),
		"quizzes_root", c.roots.Quizzes.String(),
		"storage", cfg.Storage.Provider,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	cfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "di: configure go-logger provider")
		}
		c.loggerProvider = provider
	default:
		level, _ := console.ParseLevel(cfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{Writer: c.logOutput, MinLevel: &level})
	}
	return nil
}

// LoggerProvider returns the provider every module logger derives from.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Roots returns the resolved content roots.
func (c *Container) Roots() indexer.Roots {
	return c.roots
}

// Repositories returns the index store.
func (c *Container) Repositories() *storage.Repositories {
	return c.repos
}

// Loader returns the content loader.
func (c *Container) Loader() *source.Loader {
	return c.loader
}

// Indexer returns the metadata indexer.
func (c *Container) Indexer() *indexer.Indexer {
	return c.indexer
}

// Resolver returns the content resolution service.
func (c *Container) Resolver() resolver.Service {
	return c.resolver
}

// Commands returns the catalog command handlers.
func (c *Container) Commands() *catalogcmd.HandlerSet {
	return c.commands
}

// Watcher builds a watcher that re-indexes through the index command when
// files under the filesystem roots change.
func (c *Container) Watcher() (*watch.Watcher, error) {
	dirs := make([]string, 0, 2)
	for _, root := range []source.Reference{c.roots.Quizzes, c.roots.Lessons} {
		if root.Kind != source.KindAbsolutePath {
			return nil, goerrors.Wrap(ErrWatchUnsupported, goerrors.CategoryBadInput, "di: watch root").
				WithMetadata(map[string]any{"root": root.String()})
		}
		dirs = append(dirs, root.Path)
	}

	trigger := func(ctx context.Context) error {
		return c.commands.Index.Execute(ctx, catalogcmd.IndexCatalogCommand{Reason: "watch"})
	}
	return watch.New(trigger, dirs, watch.Options{
		Debounce:  c.Config.Watch.Debounce,
		Recursive: c.Config.Scan.Recursive,
		Logger:    logging.WatchLogger(c.loggerProvider),
	}), nil
}

// Close releases the index store.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	return c.repos.Close()
}
