// Package index persists the metadata catalog: one record per quiz or lesson
// holding its canonical title and a reference to the backing document.
// Records never hold document content.
package index

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrRecordNotFound is returned by lookups that match no record.
	ErrRecordNotFound = errors.New("index: record not found")
	// ErrDuplicateTitle reports two records of one content class sharing a
	// canonical title.
	ErrDuplicateTitle = errors.New("index: duplicate title")
	// ErrInvalidRecord reports a record missing required fields.
	ErrInvalidRecord = errors.New("index: invalid record")
)

// QuizRecord indexes a quiz document.
type QuizRecord struct {
	bun.BaseModel `bun:"table:quiz_index,alias:qi"`

	ID            uuid.UUID `bun:",pk,type:uuid"                json:"id"`
	Title         string    `bun:"title,notnull,unique"         json:"title"`
	FileReference string    `bun:"file_reference,notnull"       json:"file_reference"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// LessonRecord indexes a lesson document. QuizID is a weak link resolved by
// title at ingestion time; it is nil when no quiz shares the lesson's title.
// TitleKey is the lower-cased title keyword search matches against; the
// stores fill it on write.
type LessonRecord struct {
	bun.BaseModel `bun:"table:lesson_index,alias:li"`

	ID            uuid.UUID  `bun:",pk,type:uuid"          json:"id"`
	Title         string     `bun:"title,notnull,unique"   json:"title"`
	FileReference string     `bun:"file_reference,notnull" json:"file_reference"`
	QuizID        *uuid.UUID `bun:"quiz_id,type:uuid"      json:"quiz_id,omitempty"`
	TitleKey      string     `bun:"title_key,notnull"      json:"-"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// QuizRepository stores quiz records.
type QuizRepository interface {
	SaveAll(ctx context.Context, records []QuizRecord) error
	// ReplaceAll makes records the repository's entire content and reports
	// how many records outside the batch were removed.
	ReplaceAll(ctx context.Context, records []QuizRecord) (int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*QuizRecord, error)
	FindByTitle(ctx context.Context, title string) (*QuizRecord, error)
	List(ctx context.Context) ([]QuizRecord, error)
}

// LessonRepository stores lesson records.
type LessonRepository interface {
	SaveAll(ctx context.Context, records []LessonRecord) error
	ReplaceAll(ctx context.Context, records []LessonRecord) (int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*LessonRecord, error)
	FindByTitle(ctx context.Context, title string) (*LessonRecord, error)
	List(ctx context.Context) ([]LessonRecord, error)
	// FindTitlesContaining returns up to limit lesson titles containing
	// keyword, compared case-insensitively, in store order.
	FindTitlesContaining(ctx context.Context, keyword string, limit int) ([]string, error)
}

// record is the shape shared by the stores' generic internals.
type record[R any] interface {
	key() uuid.UUID
	name() string
	created() time.Time
	stamped(created, updated time.Time) R
	withKey(id uuid.UUID) R
	clone() R
	validate() error
}

func (r QuizRecord) key() uuid.UUID { return r.ID }
func (r QuizRecord) name() string   { return r.Title }

func (r QuizRecord) created() time.Time { return r.CreatedAt }
func (r QuizRecord) clone() QuizRecord  { return r }

func (r QuizRecord) withKey(id uuid.UUID) QuizRecord {
	r.ID = id
	return r
}

func (r QuizRecord) stamped(created, updated time.Time) QuizRecord {
	r.CreatedAt, r.UpdatedAt = created, updated
	return r
}

func (r QuizRecord) validate() error {
	return validateRecord(r.ID, r.Title, r.FileReference)
}

func (r LessonRecord) key() uuid.UUID { return r.ID }
func (r LessonRecord) name() string   { return r.Title }

func (r LessonRecord) created() time.Time { return r.CreatedAt }

func (r LessonRecord) clone() LessonRecord {
	if r.QuizID != nil {
		id := *r.QuizID
		r.QuizID = &id
	}
	return r
}

func (r LessonRecord) withKey(id uuid.UUID) LessonRecord {
	r.ID = id
	return r
}

func (r LessonRecord) stamped(created, updated time.Time) LessonRecord {
	r = r.clone()
	r.TitleKey = strings.ToLower(r.Title)
	r.CreatedAt, r.UpdatedAt = created, updated
	return r
}

func (r LessonRecord) validate() error {
	return validateRecord(r.ID, r.Title, r.FileReference)
}

type recordFields struct {
	ID            uuid.UUID
	Title         string
	FileReference string
}

func validateRecord(id uuid.UUID, title, ref string) error {
	fields := recordFields{ID: id, Title: title, FileReference: ref}
	err := validation.ValidateStruct(&fields,
		validation.Field(&fields.ID, validation.By(func(any) error {
			if fields.ID == uuid.Nil {
				return errors.New("must not be nil")
			}
			return nil
		})),
		validation.Field(&fields.Title, validation.Required),
		validation.Field(&fields.FileReference, validation.Required),
	)
	if err == nil {
		return nil
	}
	return goerrors.Wrap(ErrInvalidRecord, goerrors.CategoryValidation, "index: "+err.Error()).
		WithTextCode("INVALID_RECORD").
		WithMetadata(map[string]any{"title": title})
}

// checkBatch validates every record and rejects duplicate titles.
func checkBatch[R record[R]](records []R) error {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if err := rec.validate(); err != nil {
			return err
		}
		if _, dup := seen[rec.name()]; dup {
			return DuplicateTitle(rec.name())
		}
		seen[rec.name()] = struct{}{}
	}
	return nil
}

// DuplicateTitle builds the error reported for a repeated canonical title.
func DuplicateTitle(title string) *goerrors.Error {
	return goerrors.Wrap(ErrDuplicateTitle, goerrors.CategoryConflict, "index: title already indexed").
		WithTextCode("DUPLICATE_TITLE").
		WithMetadata(map[string]any{"title": title})
}
