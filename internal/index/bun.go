package index

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var errNoDatabase = errors.New("index: bun repository requires a database")

// bunStore persists records through Bun. Single-record lookups go through a
// go-repository-bun repository keyed by title; batch writes and listings run
// as raw queries. updateColumns lists the columns refreshed when an upsert hits
// an existing id.
type bunStore[R record[R]] struct {
	db            *bun.DB
	repo          repository.Repository[*R]
	updateColumns []string
	now           func() time.Time
}

func newBunStore[R record[R]](db *bun.DB, updateColumns ...string) *bunStore[R] {
	s := &bunStore[R]{db: db, updateColumns: updateColumns, now: time.Now}
	if db != nil {
		s.repo = newRecordRepository[R](db)
	}
	return s
}

func newRecordRepository[R record[R]](db *bun.DB) repository.Repository[*R] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*R]{
		NewRecord: func() *R { return new(R) },
		GetID: func(r *R) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return (*r).key()
		},
		SetID: func(r *R, id uuid.UUID) {
			*r = (*r).withKey(id)
		},
		GetIdentifier: func() string {
			return "title"
		},
		GetIdentifierValue: func(r *R) string {
			if r == nil {
				return ""
			}
			return (*r).name()
		},
	})
}

// SaveAll upserts the batch by id inside one transaction. created_at is kept
// for rows that already exist.
func (s *bunStore[R]) SaveAll(ctx context.Context, records []R) error {
	if s.db == nil {
		return errNoDatabase
	}
	if err := checkBatch(records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	rows, owners := s.prepare(records)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		titles := make([]string, 0, len(owners))
		for title := range owners {
			titles = append(titles, title)
		}
		var existing []R
		if err := tx.NewSelect().Model(&existing).Where("title IN (?)", bun.In(titles)).Scan(ctx); err != nil {
			return err
		}
		for _, rec := range existing {
			if owners[rec.name()] != rec.key() {
				return DuplicateTitle(rec.name())
			}
		}
		return s.upsert(ctx, tx, rows)
	})
}

// ReplaceAll deletes every row outside the batch and upserts the batch in
// one transaction.
func (s *bunStore[R]) ReplaceAll(ctx context.Context, records []R) (int, error) {
	if s.db == nil {
		return 0, errNoDatabase
	}
	if err := checkBatch(records); err != nil {
		return 0, err
	}

	rows, _ := s.prepare(records)
	ids := make([]uuid.UUID, len(rows))
	for i, rec := range rows {
		ids[i] = rec.key()
	}

	pruned := 0
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		del := tx.NewDelete().Model((*R)(nil))
		if len(ids) > 0 {
			del = del.Where("id NOT IN (?)", bun.In(ids))
		} else {
			del = del.Where("1 = 1")
		}
		res, err := del.Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil {
			pruned = int(n)
		}
		if len(rows) == 0 {
			return nil
		}
		return s.upsert(ctx, tx, rows)
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}

func (s *bunStore[R]) prepare(records []R) ([]R, map[string]uuid.UUID) {
	now := s.now().UTC()
	rows := make([]R, len(records))
	owners := make(map[string]uuid.UUID, len(records))
	for i, rec := range records {
		owners[rec.name()] = rec.key()
		rows[i] = rec.stamped(now, now)
	}
	return rows, owners
}

func (s *bunStore[R]) upsert(ctx context.Context, tx bun.Tx, rows []R) error {
	insert := tx.NewInsert().Model(&rows).On("CONFLICT (id) DO UPDATE")
	for _, column := range s.updateColumns {
		insert = insert.Set(column + " = EXCLUDED." + column)
	}
	_, err := insert.Exec(ctx)
	return err
}

func (s *bunStore[R]) FindByID(ctx context.Context, id uuid.UUID) (*R, error) {
	if s.repo == nil {
		return nil, errNoDatabase
	}
	rec, err := s.repo.GetByID(ctx, id.String())
	return found(rec, err)
}

func (s *bunStore[R]) FindByTitle(ctx context.Context, title string) (*R, error) {
	if s.repo == nil {
		return nil, errNoDatabase
	}
	rec, err := s.repo.GetByIdentifier(ctx, title)
	return found(rec, err)
}

func found[R any](rec *R, err error) (*R, error) {
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// List returns records oldest first, by title within one batch.
func (s *bunStore[R]) List(ctx context.Context) ([]R, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	rows := []R{}
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC", "title ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateSchema creates the index tables when they are missing. Existing
// tables are left untouched.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range []any{(*QuizRecord)(nil), (*LessonRecord)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// BunQuizRepository is a QuizRepository backed by Bun.
type BunQuizRepository struct {
	*bunStore[QuizRecord]
}

var _ QuizRepository = (*BunQuizRepository)(nil)

// NewBunQuizRepository constructs a Bun-backed quiz repository.
func NewBunQuizRepository(db *bun.DB) *BunQuizRepository {
	return &BunQuizRepository{
		bunStore: newBunStore[QuizRecord](db, "title", "file_reference", "updated_at"),
	}
}

// BunLessonRepository is a LessonRepository backed by Bun.
type BunLessonRepository struct {
	*bunStore[LessonRecord]
}

var _ LessonRepository = (*BunLessonRepository)(nil)

// NewBunLessonRepository constructs a Bun-backed lesson repository.
func NewBunLessonRepository(db *bun.DB) *BunLessonRepository {
	return &BunLessonRepository{
		bunStore: newBunStore[LessonRecord](db, "title", "title_key", "file_reference", "quiz_id", "updated_at"),
	}
}

// FindTitlesContaining matches the lower-cased keyword against title_key, so
// case folding follows strings.ToLower on every dialect.
func (r *BunLessonRepository) FindTitlesContaining(ctx context.Context, keyword string, limit int) ([]string, error) {
	if r.db == nil {
		return nil, errNoDatabase
	}
	query := r.db.NewSelect().
		Model((*LessonRecord)(nil)).
		Column("title").
		Where("title_key LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(keyword))+"%").
		Order("created_at ASC", "title ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	titles := []string{}
	if err := query.Scan(ctx, &titles); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return titles, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
