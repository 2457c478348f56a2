package catalogcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-curriculum/internal/indexer"
	"github.com/goliatone/go-curriculum/internal/quizdoc"
	"github.com/goliatone/go-curriculum/internal/resolver"
)

const (
	indexCatalogMessageType  = "curriculum.catalog.index"
	resolveLessonMessageType = "curriculum.catalog.resolve_lesson"
	resolveQuizMessageType   = "curriculum.catalog.resolve_quiz"
	searchLessonsMessageType = "curriculum.catalog.search_lessons"

	maxKeywordLength = 256
)

// IndexCatalogCommand re-runs ingestion over the configured lesson and quiz
// roots.
type IndexCatalogCommand struct {
	// Reason is recorded with the run logs (startup, watch, cli).
	Reason string `json:"reason,omitempty"`
	// OnResult receives the run summary when the run succeeds.
	OnResult func(*indexer.Result) `json:"-"`
}

// Type implements command.Message.
func (IndexCatalogCommand) Type() string { return indexCatalogMessageType }

// Validate implements command validation. Index runs carry no required input.
func (IndexCatalogCommand) Validate() error { return nil }

// ResolveLessonCommand loads a lesson by ID or by exact title. Exactly one of
// the two must be set.
type ResolveLessonCommand struct {
	ID       uuid.UUID              `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	OnResult func(*resolver.Lesson) `json:"-"`
}

// Type implements command.Message.
func (ResolveLessonCommand) Type() string { return resolveLessonMessageType }

// Validate ensures a single lookup key is present.
func (m ResolveLessonCommand) Validate() error {
	hasID := m.ID != uuid.Nil
	hasTitle := strings.TrimSpace(m.Title) != ""
	errs := validation.Errors{}
	switch {
	case !hasID && !hasTitle:
		errs["id"] = validation.NewError("curriculum.catalog.resolve_lesson.key_required", "id or title is required")
	case hasID && hasTitle:
		errs["title"] = validation.NewError("curriculum.catalog.resolve_lesson.key_ambiguous", "set either id or title, not both")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ResolveQuizCommand loads a quiz by ID.
type ResolveQuizCommand struct {
	ID       uuid.UUID           `json:"id"`
	OnResult func(*quizdoc.Quiz) `json:"-"`
}

// Type implements command.Message.
func (ResolveQuizCommand) Type() string { return resolveQuizMessageType }

// Validate ensures the quiz ID is present.
func (m ResolveQuizCommand) Validate() error {
	if m.ID == uuid.Nil {
		return validation.Errors{
			"id": validation.NewError("curriculum.catalog.resolve_quiz.id_required", "id is required"),
		}
	}
	return nil
}

// SearchLessonsCommand lists lesson titles containing Keyword. A blank
// keyword matches every lesson up to the page size.
type SearchLessonsCommand struct {
	Keyword  string         `json:"keyword"`
	OnResult func([]string) `json:"-"`
}

// Type implements command.Message.
func (SearchLessonsCommand) Type() string { return searchLessonsMessageType }

// Validate bounds the keyword length.
func (m SearchLessonsCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Keyword, validation.RuneLength(0, maxKeywordLength)),
	)
}
