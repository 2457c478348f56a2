package resolver

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrLessonNotFound      = errors.New("resolver: lesson not found")
	ErrLessonTitleNotFound = errors.New("resolver: lesson title not found")
	ErrQuizNotFound        = errors.New("resolver: quiz not found")
	// ErrContentUnavailable matches every failure to load an indexed
	// document, whichever loader error caused it.
	ErrContentUnavailable = errors.New("resolver: content unavailable")
)

// NotFoundError reports a lookup that matched no index record.
type NotFoundError struct {
	Resource string
	Key      string

	sentinel error
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Unwrap exposes the sentinel wrapped in a not_found go-errors value.
func (e *NotFoundError) Unwrap() error {
	if e.sentinel == nil {
		return nil
	}
	return goerrors.Wrap(e.sentinel, goerrors.CategoryNotFound, e.Error()).
		WithTextCode("RECORD_NOT_FOUND").
		WithMetadata(map[string]any{"resource": e.Resource, "key": e.Key})
}

func lessonNotFound(key string) error {
	return &NotFoundError{Resource: "lesson", Key: key, sentinel: ErrLessonNotFound}
}

func lessonTitleNotFound(title string) error {
	return &NotFoundError{Resource: "lesson title", Key: title, sentinel: ErrLessonTitleNotFound}
}

func quizNotFound(key string) error {
	return &NotFoundError{Resource: "quiz", Key: key, sentinel: ErrQuizNotFound}
}

// ContentUnavailableError reports an index record whose document could not be
// loaded. It unwraps to the loader error so callers can still tell a missing
// file from an unreadable one.
type ContentUnavailableError struct {
	Resource  string
	Reference string
	Err       error
}

func (e *ContentUnavailableError) Error() string {
	return fmt.Sprintf("%s content %q unavailable: %v", e.Resource, e.Reference, e.Err)
}

func (e *ContentUnavailableError) Unwrap() error { return e.Err }

func (e *ContentUnavailableError) Is(target error) bool {
	return target == ErrContentUnavailable
}
