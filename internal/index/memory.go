package index

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore keeps records ordered oldest first, by title within one batch.
type memoryStore[R record[R]] struct {
	mu      sync.RWMutex
	records map[uuid.UUID]R
	byTitle map[string]uuid.UUID
	order   []uuid.UUID
	now     func() time.Time
}

func newMemoryStore[R record[R]]() *memoryStore[R] {
	return &memoryStore[R]{
		records: make(map[uuid.UUID]R),
		byTitle: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// SaveAll upserts the batch by id. The whole batch is rejected when it
// repeats a title or claims a title held by a record with another id.
func (s *memoryStore[R]) SaveAll(_ context.Context, records []R) error {
	if err := checkBatch(records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if owner, ok := s.byTitle[rec.name()]; ok && owner != rec.key() {
			return DuplicateTitle(rec.name())
		}
	}

	now := s.now().UTC()
	for _, rec := range records {
		created := now
		if existing, ok := s.records[rec.key()]; ok {
			created = existing.created()
			if existing.name() != rec.name() {
				delete(s.byTitle, existing.name())
			}
		} else {
			s.order = append(s.order, rec.key())
		}
		s.records[rec.key()] = rec.stamped(created, now)
		s.byTitle[rec.name()] = rec.key()
	}
	s.sortOrder()
	return nil
}

// ReplaceAll swaps the stored records for the batch. Ids present in both
// keep their created time.
func (s *memoryStore[R]) ReplaceAll(_ context.Context, records []R) (int, error) {
	if err := checkBatch(records); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	next := make(map[uuid.UUID]R, len(records))
	byTitle := make(map[string]uuid.UUID, len(records))
	order := make([]uuid.UUID, 0, len(records))
	kept := 0
	for _, rec := range records {
		created := now
		if existing, ok := s.records[rec.key()]; ok {
			created = existing.created()
			kept++
		}
		next[rec.key()] = rec.stamped(created, now)
		byTitle[rec.name()] = rec.key()
		order = append(order, rec.key())
	}
	pruned := len(s.records) - kept

	s.records, s.byTitle, s.order = next, byTitle, order
	s.sortOrder()
	return pruned, nil
}

func (s *memoryStore[R]) sortOrder() {
	slices.SortStableFunc(s.order, func(a, b uuid.UUID) int {
		ra, rb := s.records[a], s.records[b]
		if c := ra.created().Compare(rb.created()); c != 0 {
			return c
		}
		return strings.Compare(ra.name(), rb.name())
	})
}

func (s *memoryStore[R]) FindByID(_ context.Context, id uuid.UUID) (*R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := rec.clone()
	return &out, nil
}

func (s *memoryStore[R]) FindByTitle(ctx context.Context, title string) (*R, error) {
	s.mu.RLock()
	id, ok := s.byTitle[title]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRecordNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *memoryStore[R]) List(context.Context) ([]R, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]R, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].clone())
	}
	return out, nil
}

func (s *memoryStore[R]) titlesContaining(keyword string, limit int) []string {
	needle := strings.ToLower(keyword)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []string{}
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		title := s.records[id].name()
		if strings.Contains(strings.ToLower(title), needle) {
			out = append(out, title)
		}
	}
	return out
}

// MemoryQuizRepository is an in-process QuizRepository.
type MemoryQuizRepository struct {
	*memoryStore[QuizRecord]
}

var _ QuizRepository = (*MemoryQuizRepository)(nil)

// NewMemoryQuizRepository constructs an empty repository.
func NewMemoryQuizRepository() *MemoryQuizRepository {
	return &MemoryQuizRepository{memoryStore: newMemoryStore[QuizRecord]()}
}

// MemoryLessonRepository is an in-process LessonRepository.
type MemoryLessonRepository struct {
	*memoryStore[LessonRecord]
}

var _ LessonRepository = (*MemoryLessonRepository)(nil)

// NewMemoryLessonRepository constructs an empty repository.
func NewMemoryLessonRepository() *MemoryLessonRepository {
	return &MemoryLessonRepository{memoryStore: newMemoryStore[LessonRecord]()}
}

// FindTitlesContaining matches keyword case-insensitively in List order.
func (r *MemoryLessonRepository) FindTitlesContaining(_ context.Context, keyword string, limit int) ([]string, error) {
	return r.titlesContaining(keyword, limit), nil
}
