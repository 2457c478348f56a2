// Package resolver turns index records back into fully loaded lessons and
// quizzes. Every call re-reads the referenced documents; nothing is cached.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-curriculum/internal/index"
	"github.com/goliatone/go-curriculum/internal/logging"
	"github.com/goliatone/go-curriculum/internal/quizdoc"
	"github.com/goliatone/go-curriculum/internal/source"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

// DefaultSearchLimit caps SearchByTitle results.
const DefaultSearchLimit = 10

// Lesson is a resolved lesson. Content is the document verbatim.
type Lesson struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug,omitempty"`
	FilePath    string        `json:"filePath"`
	Content     string        `json:"content"`
	ContentHTML string        `json:"contentHtml,omitempty"`
	Quiz        *quizdoc.Quiz `json:"quiz,omitempty"`
}

// QuizFailurePolicy decides what happens when a lesson's linked quiz cannot
// be resolved.
type QuizFailurePolicy string

const (
	// QuizFailurePropagate fails the lesson resolution with the quiz error.
	QuizFailurePropagate QuizFailurePolicy = "propagate"
	// QuizFailureDegrade logs the quiz error and returns the lesson without
	// its quiz.
	QuizFailureDegrade QuizFailurePolicy = "degrade"
)

// Service resolves indexed content.
type Service interface {
	ResolveLesson(ctx context.Context, id uuid.UUID) (*Lesson, error)
	ResolveLessonByTitle(ctx context.Context, title string) (*Lesson, error)
	ResolveQuiz(ctx context.Context, id uuid.UUID) (*quizdoc.Quiz, error)
	SearchByTitle(ctx context.Context, keyword string) ([]string, error)
}

// ContentLoader reads the document behind a reference.
type ContentLoader interface {
	Load(ctx context.Context, ref source.Reference) ([]byte, error)
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithLogger overrides the logger used for resolution events.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderer enables HTML rendering of lesson content.
func WithRenderer(renderer interfaces.MarkdownRenderer) ServiceOption {
	return func(s *service) {
		s.renderer = renderer
	}
}

// WithQuizFailurePolicy selects how linked quiz failures are handled.
// Unknown values keep the propagate default.
func WithQuizFailurePolicy(policy QuizFailurePolicy) ServiceOption {
	return func(s *service) {
		if policy == QuizFailureDegrade {
			s.quizFailure = QuizFailureDegrade
		}
	}
}

// WithSearchLimit overrides the search page size.
func WithSearchLimit(limit int) ServiceOption {
	return func(s *service) {
		if limit > 0 {
			s.searchLimit = limit
		}
	}
}

type service struct {
	quizzes     index.QuizRepository
	lessons     index.LessonRepository
	loader      ContentLoader
	renderer    interfaces.MarkdownRenderer
	logger      interfaces.Logger
	quizFailure QuizFailurePolicy
	searchLimit int
}

// NewService constructs a resolver over the given index and loader.
func NewService(quizzes index.QuizRepository, lessons index.LessonRepository, loader ContentLoader, opts ...ServiceOption) Service {
	s := &service{
		quizzes:     quizzes,
		lessons:     lessons,
		loader:      loader,
		logger:      logging.NoOp(),
		quizFailure: QuizFailurePropagate,
		searchLimit: DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ResolveLesson(ctx context.Context, id uuid.UUID) (*Lesson, error) {
	record, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, index.ErrRecordNotFound) {
			return nil, lessonNotFound(id.String())
		}
		return nil, err
	}
	return s.lesson(ctx, record)
}

func (s *service) ResolveLessonByTitle(ctx context.Context, title string) (*Lesson, error) {
	record, err := s.lessons.FindByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, index.ErrRecordNotFound) {
			return nil, lessonTitleNotFound(title)
		}
		return nil, err
	}
	return s.lesson(ctx, record)
}

func (s *service) ResolveQuiz(ctx context.Context, id uuid.UUID) (*quizdoc.Quiz, error) {
	record, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, index.ErrRecordNotFound) {
			return nil, quizNotFound(id.String())
		}
		return nil, err
	}
	return s.quiz(ctx, record)
}

func (s *service) SearchByTitle(ctx context.Context, keyword string) ([]string, error) {
	return s.lessons.FindTitlesContaining(ctx, strings.TrimSpace(keyword), s.searchLimit)
}

func (s *service) lesson(ctx context.Context, record *index.LessonRecord) (*Lesson, error) {
	logger := logging.WithFileContext(s.logger, "lesson", "", record.FileReference).WithContext(ctx)

	raw, err := s.load(ctx, "lesson", record.FileReference)
	if err != nil {
		logger.Warn("resolver.content.unavailable", "lesson_id", record.ID, "error", err)
		return nil, err
	}

	lesson := &Lesson{
		ID:       record.ID,
		Title:    record.Title,
		FilePath: record.FileReference,
		Content:  string(raw),
	}
	if normalized, err := slug.Normalize(record.Title); err == nil {
		lesson.Slug = normalized
	}
	if s.renderer != nil {
		html, renderErr := s.renderer.Render(raw)
		if renderErr != nil {
			logger.Warn("resolver.lesson.render_failed", "lesson_id", record.ID, "error", renderErr)
		} else {
			lesson.ContentHTML = string(html)
		}
	}

	if record.QuizID != nil {
		quiz, quizErr := s.linkedQuiz(ctx, *record.QuizID)
		switch {
		case quizErr == nil:
			lesson.Quiz = quiz
		case s.quizFailure == QuizFailureDegrade:
			logger.Warn("resolver.lesson.quiz_degraded", "lesson_id", record.ID, "quiz_id", *record.QuizID, "error", quizErr)
		default:
			return nil, fmt.Errorf("resolver: lesson %q linked quiz: %w", record.Title, quizErr)
		}
	}

	logger.Debug("resolver.lesson.resolved", "lesson_id", record.ID, "has_quiz", lesson.Quiz != nil)
	return lesson, nil
}

func (s *service) linkedQuiz(ctx context.Context, id uuid.UUID) (*quizdoc.Quiz, error) {
	record, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, index.ErrRecordNotFound) {
			return nil, quizNotFound(id.String())
		}
		return nil, err
	}
	return s.quiz(ctx, record)
}

func (s *service) quiz(ctx context.Context, record *index.QuizRecord) (*quizdoc.Quiz, error) {
	logger := logging.WithFileContext(s.logger, "quiz", "", record.FileReference).WithContext(ctx)

	raw, err := s.load(ctx, "quiz", record.FileReference)
	if err != nil {
		logger.Warn("resolver.content.unavailable", "quiz_id", record.ID, "error", err)
		return nil, err
	}

	quiz, err := quizdoc.Parse(raw)
	if err != nil {
		logger.Error("resolver.quiz.malformed", "quiz_id", record.ID, "error", err)
		return nil, err
	}
	quiz.ID = record.ID
	quiz.Title = record.Title

	logger.Debug("resolver.quiz.resolved", "quiz_id", record.ID, "questions", len(quiz.Questions))
	return quiz, nil
}

func (s *service) load(ctx context.Context, resource, stored string) ([]byte, error) {
	ref, err := source.ParseReference(stored)
	if err != nil {
		return nil, &ContentUnavailableError{Resource: resource, Reference: stored, Err: err}
	}
	raw, err := s.loader.Load(ctx, ref)
	if err != nil {
		return nil, &ContentUnavailableError{Resource: resource, Reference: stored, Err: err}
	}
	return raw, nil
}
