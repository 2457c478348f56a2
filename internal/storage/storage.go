// Package storage opens the index store selected by configuration: the
// in-process memory repositories or bun over sqlite or postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/goliatone/go-curriculum/internal/index"
	"github.com/goliatone/go-curriculum/internal/logging"
	"github.com/goliatone/go-curriculum/internal/runtimeconfig"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

const (
	ProviderMemory = "memory"
	ProviderBun    = "bun"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// DefaultSQLiteDSN is an in-memory database shared within the process.
	DefaultSQLiteDSN = "file::memory:?cache=shared"
)

// ErrUnsupportedStorage reports an unknown provider or driver.
var ErrUnsupportedStorage = errors.New("storage: unsupported provider")

// Repositories bundles the index repositories with the database backing
// them. DB is nil for the memory provider.
type Repositories struct {
	Quizzes index.QuizRepository
	Lessons index.LessonRepository
	DB      *bun.DB
}

// Close releases the database, if any.
func (r *Repositories) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger interfaces.Logger
	db     *bun.DB
}

// WithLogger attaches the logger used for storage events and query tracing.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDB reuses an existing bun database instead of opening one from the
// driver and DSN.
func WithDB(db *bun.DB) Option {
	return func(o *options) {
		o.db = db
	}
}

// Open builds the repositories for cfg. Bun-backed stores get their schema
// created before Open returns.
func Open(ctx context.Context, cfg runtimeconfig.StorageConfig, opts ...Option) (*Repositories, error) {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	logger := logging.OrNoOp(o.logger)

	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", ProviderMemory:
		logger.Debug("storage.opened", "provider", ProviderMemory)
		return &Repositories{
			Quizzes: index.NewMemoryQuizRepository(),
			Lessons: index.NewMemoryLessonRepository(),
		}, nil
	case ProviderBun:
		db := o.db
		if db == nil {
			var err error
			db, err = OpenDB(cfg.Driver, cfg.DSN)
			if err != nil {
				return nil, err
			}
		}
		db.AddQueryHook(&queryHook{logger: logger})

		if err := index.CreateSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "storage: create index schema").
				WithTextCode("SCHEMA_CREATE_FAILED")
		}
		logger.Debug("storage.opened", "provider", ProviderBun, "driver", cfg.Driver)
		return &Repositories{
			Quizzes: index.NewBunQuizRepository(db),
			Lessons: index.NewBunLessonRepository(db),
			DB:      db,
		}, nil
	default:
		return nil, unsupported("provider", provider)
	}
}

// OpenDB opens a bun database for driver. An empty sqlite DSN opens
// DefaultSQLiteDSN.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		if strings.TrimSpace(dsn) == "" {
			dsn = DefaultSQLiteDSN
		}
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "storage: open sqlite").
				WithTextCode("STORAGE_OPEN_FAILED")
		}
		// one connection keeps an in-memory database alive with the pool
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, unsupported("driver", driver)
	}
}

func unsupported(kind, value string) error {
	return goerrors.Wrap(ErrUnsupportedStorage, goerrors.CategoryBadInput, "storage: unsupported "+kind).
		WithTextCode("UNSUPPORTED_STORAGE").
		WithMetadata(map[string]any{kind: value})
}

type queryHook struct {
	logger interfaces.Logger
}

var _ bun.QueryHook = (*queryHook)(nil)

func (h *queryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	logger := h.logger.WithContext(ctx)
	elapsed := time.Since(event.StartTime)
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		logger.Warn("storage.query.failed", "operation", event.Operation(), "duration_ms", elapsed.Milliseconds(), "error", event.Err)
		return
	}
	logger.Trace("storage.query", "operation", event.Operation(), "duration_ms", elapsed.Milliseconds())
}
