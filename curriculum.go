package curriculum

import (
	"context"

	"github.com/google/uuid"

	catalogcmd "github.com/goliatone/go-curriculum/internal/commands/catalog"
	"github.com/goliatone/go-curriculum/internal/di"
	"github.com/goliatone/go-curriculum/internal/indexer"
	"github.com/goliatone/go-curriculum/internal/quizdoc"
	"github.com/goliatone/go-curriculum/internal/resolver"
)

// Lesson exports the resolved lesson DTO.
type Lesson = resolver.Lesson

// Quiz exports the parsed quiz document.
type Quiz = quizdoc.Quiz

// Question exports a single quiz question.
type Question = quizdoc.Question

// Answer exports a single quiz answer.
type Answer = quizdoc.Answer

// IndexResult summarises one ingestion run.
type IndexResult = indexer.Result

// ResolverService exports the content resolution contract.
type ResolverService = resolver.Service

// Module represents the top level catalog runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a catalog module. When cfg.Index.OnStartup is set the
// directories are indexed before New returns, so reads never observe a
// partially built index.
func New(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	m := &Module{container: container}

	if cfg.Index.OnStartup {
		if _, err := m.index(ctx, "startup"); err != nil {
			_ = container.Close()
			return nil, err
		}
	}
	return m, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Resolver returns the content resolution service without the command
// pipeline in front of it.
func (m *Module) Resolver() ResolverService {
	return m.container.Resolver()
}

// Index scans both directories and upserts their metadata. Running it again
// is idempotent.
func (m *Module) Index(ctx context.Context) (*IndexResult, error) {
	return m.index(ctx, "manual")
}

func (m *Module) index(ctx context.Context, reason string) (*IndexResult, error) {
	var result *IndexResult
	err := m.container.Commands().Index.Execute(ctx, catalogcmd.IndexCatalogCommand{
		Reason:   reason,
		OnResult: func(r *indexer.Result) { result = r },
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Lesson resolves a lesson by ID, including its linked quiz when one exists.
func (m *Module) Lesson(ctx context.Context, id uuid.UUID) (*Lesson, error) {
	var lesson *Lesson
	err := m.container.Commands().ResolveLesson.Execute(ctx, catalogcmd.ResolveLessonCommand{
		ID:       id,
		OnResult: func(l *resolver.Lesson) { lesson = l },
	})
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// LessonByTitle resolves a lesson by its exact canonical title.
func (m *Module) LessonByTitle(ctx context.Context, title string) (*Lesson, error) {
	var lesson *Lesson
	err := m.container.Commands().ResolveLesson.Execute(ctx, catalogcmd.ResolveLessonCommand{
		Title:    title,
		OnResult: func(l *resolver.Lesson) { lesson = l },
	})
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// SearchLessons returns lesson titles containing keyword, case-insensitively.
func (m *Module) SearchLessons(ctx context.Context, keyword string) ([]string, error) {
	var titles []string
	err := m.container.Commands().SearchLessons.Execute(ctx, catalogcmd.SearchLessonsCommand{
		Keyword:  keyword,
		OnResult: func(found []string) { titles = found },
	})
	if err != nil {
		return nil, err
	}
	return titles, nil
}

// Quiz resolves a quiz by ID.
func (m *Module) Quiz(ctx context.Context, id uuid.UUID) (*Quiz, error) {
	var quiz *Quiz
	err := m.container.Commands().ResolveQuiz.Execute(ctx, catalogcmd.ResolveQuizCommand{
		ID:       id,
		OnResult: func(q *quizdoc.Quiz) { quiz = q },
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

// Subscribe delivers the result of every completed index run until ctx ends.
func (m *Module) Subscribe(ctx context.Context) <-chan IndexResult {
	return m.container.Indexer().Subscribe(ctx)
}

// Watch re-indexes whenever files under the content directories change. It
// blocks until ctx ends. Only filesystem directories can be watched.
func (m *Module) Watch(ctx context.Context) error {
	watcher, err := m.container.Watcher()
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// Close releases the index store.
func (m *Module) Close() error {
	if m == nil {
		return nil
	}
	return m.container.Close()
}
