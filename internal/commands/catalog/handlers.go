package catalogcmd

import (
	"context"
	"strings"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-curriculum/internal/commands"
	"github.com/goliatone/go-curriculum/internal/indexer"
	"github.com/goliatone/go-curriculum/internal/logging"
	"github.com/goliatone/go-curriculum/internal/resolver"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

const (
	indexOperation         = "catalog.index"
	resolveLessonOperation = "catalog.resolve_lesson"
	resolveQuizOperation   = "catalog.resolve_quiz"
	searchLessonsOperation = "catalog.search_lessons"
)

var (
	_ command.Commander[IndexCatalogCommand]  = (*IndexCatalogHandler)(nil)
	_ command.Commander[ResolveLessonCommand] = (*ResolveLessonHandler)(nil)
	_ command.Commander[ResolveQuizCommand]   = (*ResolveQuizHandler)(nil)
	_ command.Commander[SearchLessonsCommand] = (*SearchLessonsHandler)(nil)
)

// IndexRunner runs one ingestion pass.
type IndexRunner interface {
	Run(ctx context.Context) (*indexer.Result, error)
}

// IndexCatalogHandler drives the indexer through the shared command handler.
type IndexCatalogHandler struct {
	inner *commands.Handler[IndexCatalogCommand]
}

// NewIndexCatalogHandler creates a handler bound to runner.
func NewIndexCatalogHandler(runner IndexRunner, logger interfaces.Logger, opts ...commands.HandlerOption[IndexCatalogCommand]) *IndexCatalogHandler {
	baseLogger := logging.OrNoOp(logger)

	exec := func(ctx context.Context, msg IndexCatalogCommand) error {
		result, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"quizzes": result.Quizzes,
			"lessons": result.Lessons,
			"linked":  result.Linked,
			"skipped": result.Skipped,
			"pruned":  result.Pruned,
		}).Info("catalog.command.index.completed")
		if msg.OnResult != nil {
			msg.OnResult(result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[IndexCatalogCommand]{
		commands.WithLogger[IndexCatalogCommand](baseLogger),
		commands.WithOperation[IndexCatalogCommand](indexOperation),
		commands.WithTimeout[IndexCatalogCommand](0),
		commands.WithMessageFields(func(msg IndexCatalogCommand) map[string]any {
			if msg.Reason == "" {
				return nil
			}
			return map[string]any{"reason": msg.Reason}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &IndexCatalogHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[IndexCatalogCommand].
func (h *IndexCatalogHandler) Execute(ctx context.Context, msg IndexCatalogCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ResolveLessonHandler resolves lessons by ID or title.
type ResolveLessonHandler struct {
	inner *commands.Handler[ResolveLessonCommand]
}

// NewResolveLessonHandler creates a handler bound to service.
func NewResolveLessonHandler(service resolver.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ResolveLessonCommand]) *ResolveLessonHandler {
	exec := func(ctx context.Context, msg ResolveLessonCommand) error {
		var (
			lesson *resolver.Lesson
			err    error
		)
		if title := strings.TrimSpace(msg.Title); title != "" {
			lesson, err = service.ResolveLessonByTitle(ctx, title)
		} else {
			lesson, err = service.ResolveLesson(ctx, msg.ID)
		}
		if err != nil {
			return err
		}
		if msg.OnResult != nil {
			msg.OnResult(lesson)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ResolveLessonCommand]{
		commands.WithLogger[ResolveLessonCommand](logger),
		commands.WithOperation[ResolveLessonCommand](resolveLessonOperation),
		commands.WithMessageFields(func(msg ResolveLessonCommand) map[string]any {
			if title := strings.TrimSpace(msg.Title); title != "" {
				return map[string]any{"title": title}
			}
			return map[string]any{"lesson_id": msg.ID}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ResolveLessonHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ResolveLessonCommand].
func (h *ResolveLessonHandler) Execute(ctx context.Context, msg ResolveLessonCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ResolveQuizHandler resolves quizzes by ID.
type ResolveQuizHandler struct {
	inner *commands.Handler[ResolveQuizCommand]
}

// NewResolveQuizHandler creates a handler bound to service.
func NewResolveQuizHandler(service resolver.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ResolveQuizCommand]) *ResolveQuizHandler {
	exec := func(ctx context.Context, msg ResolveQuizCommand) error {
		quiz, err := service.ResolveQuiz(ctx, msg.ID)
		if err != nil {
			return err
		}
		if msg.OnResult != nil {
			msg.OnResult(quiz)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ResolveQuizCommand]{
		commands.WithLogger[ResolveQuizCommand](logger),
		commands.WithOperation[ResolveQuizCommand](resolveQuizOperation),
		commands.WithMessageFields(func(msg ResolveQuizCommand) map[string]any {
			return map[string]any{"quiz_id": msg.ID}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ResolveQuizHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ResolveQuizCommand].
func (h *ResolveQuizHandler) Execute(ctx context.Context, msg ResolveQuizCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SearchLessonsHandler runs title searches over the lesson index.
type SearchLessonsHandler struct {
	inner *commands.Handler[SearchLessonsCommand]
}

// NewSearchLessonsHandler creates a handler bound to service.
func NewSearchLessonsHandler(service resolver.Service, logger interfaces.Logger, opts ...commands.HandlerOption[SearchLessonsCommand]) *SearchLessonsHandler {
	exec := func(ctx context.Context, msg SearchLessonsCommand) error {
		titles, err := service.SearchByTitle(ctx, msg.Keyword)
		if err != nil {
			return err
		}
		if msg.OnResult != nil {
			msg.OnResult(titles)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[SearchLessonsCommand]{
		commands.WithLogger[SearchLessonsCommand](logger),
		commands.WithOperation[SearchLessonsCommand](searchLessonsOperation),
		commands.WithMessageFields(func(msg SearchLessonsCommand) map[string]any {
			return map[string]any{"keyword": msg.Keyword}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SearchLessonsHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[SearchLessonsCommand].
func (h *SearchLessonsHandler) Execute(ctx context.Context, msg SearchLessonsCommand) error {
	return h.inner.Execute(ctx, msg)
}
