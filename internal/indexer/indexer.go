// Package indexer builds the metadata index from the quiz and lesson roots.
package indexer

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-curriculum/internal/identity"
	"github.com/goliatone/go-curriculum/internal/index"
	"github.com/goliatone/go-curriculum/internal/logging"
	"github.com/goliatone/go-curriculum/internal/scanner"
	"github.com/goliatone/go-curriculum/internal/source"
	"github.com/goliatone/go-curriculum/internal/title"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

// Roots names the directories holding each content class.
type Roots struct {
	Quizzes source.Reference
	Lessons source.Reference
}

// Result summarises one ingestion run.
type Result struct {
	Quizzes   int           `json:"quizzes"`
	Lessons   int           `json:"lessons"`
	Linked    int           `json:"linked"`
	Skipped   int           `json:"skipped"`
	Pruned    int           `json:"pruned"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger overrides the indexer logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(i *Indexer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithClock overrides the clock used to stamp results.
func WithClock(clock func() time.Time) Option {
	return func(i *Indexer) {
		if clock != nil {
			i.now = clock
		}
	}
}

// Indexer ingests quizzes, then lessons, linking each lesson to the quiz
// sharing its canonical title. Runs are serialised.
type Indexer struct {
	scanner *scanner.Scanner
	quizzes index.QuizRepository
	lessons index.LessonRepository
	roots   Roots
	logger  interfaces.Logger
	now     func() time.Time
	events  *broadcaster
	mu      sync.Mutex
}

// New constructs an Indexer.
func New(s *scanner.Scanner, quizzes index.QuizRepository, lessons index.LessonRepository, roots Roots, opts ...Option) *Indexer {
	i := &Indexer{
		scanner: s,
		quizzes: quizzes,
		lessons: lessons,
		roots:   roots,
		logger:  logging.NoOp(),
		now:     time.Now,
		events:  newBroadcaster(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Subscribe delivers the result of every successful run until ctx ends.
func (i *Indexer) Subscribe(ctx context.Context) <-chan Result {
	return i.events.subscribe(ctx)
}

type entry struct {
	title     string
	reference string
}

// Run scans both roots and replaces the index with what it found. Files
// without a usable title are skipped and records whose file is gone or
// retitled are pruned. Both roots are scanned and checked before anything is
// written, so a missing root or a repeated title leaves the index untouched.
func (i *Indexer) Run(ctx context.Context) (*Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	started := i.now()
	runCtx := logging.ContextWithFields(ctx, map[string]any{"run_id": uuid.NewString()})
	logger := i.logger.WithContext(runCtx)
	result := &Result{StartedAt: started}

	logger.Info("indexer.run.started",
		"quizzes_root", i.roots.Quizzes.String(),
		"lessons_root", i.roots.Lessons.String(),
	)

	quizzes, skipped, err := i.collect(runCtx, "quiz", i.roots.Quizzes)
	if err != nil {
		logger.Error("indexer.run.failed", "phase", "quizzes", "error", err)
		return nil, err
	}
	result.Skipped += skipped

	lessons, skipped, err := i.collect(runCtx, "lesson", i.roots.Lessons)
	if err != nil {
		logger.Error("indexer.run.failed", "phase", "lessons", "error", err)
		return nil, err
	}
	result.Skipped += skipped

	quizRecords := make([]index.QuizRecord, len(quizzes))
	quizIDs := make(map[string]uuid.UUID, len(quizzes))
	for n, e := range quizzes {
		quizRecords[n] = index.QuizRecord{ID: identity.QuizUUID(e.title), Title: e.title, FileReference: e.reference}
		quizIDs[e.title] = quizRecords[n].ID
	}

	lessonRecords := make([]index.LessonRecord, len(lessons))
	for n, e := range lessons {
		record := index.LessonRecord{ID: identity.LessonUUID(e.title), Title: e.title, FileReference: e.reference}
		if quizID, ok := quizIDs[e.title]; ok {
			record.QuizID = &quizID
			result.Linked++
		} else {
			logger.Debug("indexer.lesson.unlinked", "title", e.title)
		}
		lessonRecords[n] = record
	}

	pruned, err := i.quizzes.ReplaceAll(runCtx, quizRecords)
	if err != nil {
		logger.Error("indexer.run.failed", "phase", "quizzes", "error", err)
		return nil, err
	}
	result.Quizzes = len(quizRecords)
	result.Pruned += pruned
	logger.Debug("indexer.phase.completed", "phase", "quizzes", "records", result.Quizzes, "pruned", pruned)

	pruned, err = i.lessons.ReplaceAll(runCtx, lessonRecords)
	if err != nil {
		logger.Error("indexer.run.failed", "phase", "lessons", "error", err)
		return nil, err
	}
	result.Lessons = len(lessonRecords)
	result.Pruned += pruned
	logger.Debug("indexer.phase.completed", "phase", "lessons", "records", result.Lessons, "linked", result.Linked, "pruned", pruned)

	result.Duration = i.now().Sub(started)
	logger.Info("indexer.run.completed",
		"quizzes", result.Quizzes,
		"lessons", result.Lessons,
		"linked", result.Linked,
		"skipped", result.Skipped,
		"pruned", result.Pruned,
		"duration", result.Duration,
	)
	i.events.publish(*result)
	return result, nil
}

// collect scans root and extracts one entry per document, sorted by
// reference. Duplicate titles fail the collection.
func (i *Indexer) collect(ctx context.Context, class string, root source.Reference) ([]entry, int, error) {
	var skipped atomic.Int64
	skip := func(ref string, err error) error {
		skipped.Add(1)
		logging.WithFileContext(i.logger, class, "", ref).WithContext(ctx).
			Warn("indexer.entry.skipped", "error", err)
		return fmt.Errorf("%w: %w", scanner.ErrSkip, err)
	}

	pathMapper := func(ctx context.Context, path string) (entry, error) {
		ref, err := source.PathReference(path)
		if err != nil {
			return entry{}, skip(path, err)
		}
		format, err := title.Classify(path)
		if err != nil {
			return entry{}, skip(ref.String(), err)
		}
		f, err := os.Open(path)
		if err != nil {
			return entry{}, skip(ref.String(), err)
		}
		defer f.Close()

		extracted, err := title.ExtractReader(f, format)
		if err != nil {
			return entry{}, skip(ref.String(), err)
		}
		return entry{title: extracted, reference: ref.String()}, nil
	}

	contentMapper := func(ctx context.Context, e scanner.Entry) (entry, error) {
		format, err := title.Classify(e.Name)
		if err != nil {
			return entry{}, skip(e.Reference.String(), err)
		}
		extracted, err := title.Extract(e.Content, format)
		if err != nil {
			return entry{}, skip(e.Reference.String(), err)
		}
		return entry{title: extracted, reference: e.Reference.String()}, nil
	}

	entries, err := scanner.Scan(ctx, i.scanner, root, pathMapper, contentMapper)
	if err != nil {
		return nil, 0, err
	}

	slices.SortFunc(entries, func(a, b entry) int {
		return strings.Compare(a.reference, b.reference)
	})

	owners := make(map[string]string, len(entries))
	for _, e := range entries {
		if other, dup := owners[e.title]; dup {
			return nil, 0, index.DuplicateTitle(e.title).WithMetadata(map[string]any{
				"content_class": class,
				"references":    []string{other, e.reference},
			})
		}
		owners[e.title] = e.reference
	}
	return entries, int(skipped.Load()), nil
}
