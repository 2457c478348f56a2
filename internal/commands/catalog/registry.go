package catalogcmd

import (
	"errors"

	"github.com/goliatone/go-curriculum/internal/commands"
	"github.com/goliatone/go-curriculum/internal/resolver"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

// CommandRegistry is the registration contract used when wiring handlers
// into a go-command dispatcher or registry.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the catalog handlers built by RegisterCatalogCommands.
type HandlerSet struct {
	Index         *IndexCatalogHandler
	ResolveLesson *ResolveLessonHandler
	ResolveQuiz   *ResolveQuizHandler
	SearchLessons *SearchLessonsHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	indexOpts         []commands.HandlerOption[IndexCatalogCommand]
	resolveLessonOpts []commands.HandlerOption[ResolveLessonCommand]
	resolveQuizOpts   []commands.HandlerOption[ResolveQuizCommand]
	searchOpts        []commands.HandlerOption[SearchLessonsCommand]
}

// WithIndexHandlerOptions forwards options to the index handler.
func WithIndexHandlerOptions(opts ...commands.HandlerOption[IndexCatalogCommand]) Option {
	return func(cfg *options) {
		cfg.indexOpts = append(cfg.indexOpts, opts...)
	}
}

// WithResolveLessonHandlerOptions forwards options to the lesson handler.
func WithResolveLessonHandlerOptions(opts ...commands.HandlerOption[ResolveLessonCommand]) Option {
	return func(cfg *options) {
		cfg.resolveLessonOpts = append(cfg.resolveLessonOpts, opts...)
	}
}

// WithResolveQuizHandlerOptions forwards options to the quiz handler.
func WithResolveQuizHandlerOptions(opts ...commands.HandlerOption[ResolveQuizCommand]) Option {
	return func(cfg *options) {
		cfg.resolveQuizOpts = append(cfg.resolveQuizOpts, opts...)
	}
}

// WithSearchHandlerOptions forwards options to the search handler.
func WithSearchHandlerOptions(opts ...commands.HandlerOption[SearchLessonsCommand]) Option {
	return func(cfg *options) {
		cfg.searchOpts = append(cfg.searchOpts, opts...)
	}
}

// RegisterCatalogCommands builds the catalog handlers and registers them with
// reg when it is non-nil. The handler set is returned either way.
func RegisterCatalogCommands(reg CommandRegistry, runner IndexRunner, service resolver.Service, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if runner == nil {
		return nil, errors.New("catalog command registration: index runner is nil")
	}
	if service == nil {
		return nil, errors.New("catalog command registration: resolver is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "catalog")
	set := &HandlerSet{
		Index:         NewIndexCatalogHandler(runner, logger, cfg.indexOpts...),
		ResolveLesson: NewResolveLessonHandler(service, logger, cfg.resolveLessonOpts...),
		ResolveQuiz:   NewResolveQuizHandler(service, logger, cfg.resolveQuizOpts...),
		SearchLessons: NewSearchLessonsHandler(service, logger, cfg.searchOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Index, set.ResolveLesson, set.ResolveQuiz, set.SearchLessons} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
