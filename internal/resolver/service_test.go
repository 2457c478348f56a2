package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"testing/fstest"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-curriculum/internal/index"
	"github.com/goliatone/go-curriculum/internal/markdown"
	"github.com/goliatone/go-curriculum/internal/quizdoc"
	"github.com/goliatone/go-curriculum/internal/source"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

const twoQuestionQuiz = `{
  "title": "Quiz 1: Intro",
  "questions": [
    {"id": 1, "question": "Q1", "options": ["a", "b"], "answers": [{"text": "a", "isCorrect": true, "explanation": "because"}]},
    {"id": 2, "question": "Q2", "options": ["c"], "answers": [{"text": "c", "isCorrect": false, "explanation": ""}]}
  ]
}`

type fixture struct {
	quizzes *index.MemoryQuizRepository
	lessons *index.MemoryLessonRepository
	bundle  fstest.MapFS
	quizID  uuid.UUID
	lesson  index.LessonRecord
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		quizzes: index.NewMemoryQuizRepository(),
		lessons: index.NewMemoryLessonRepository(),
		bundle: fstest.MapFS{
			"quizzes/intro.json": {Data: []byte(twoQuestionQuiz)},
			"lessons/intro.md":   {Data: []byte("# Lesson 1: Intro\nBody text")},
			"lessons/solo.md":    {Data: []byte("# Solo")},
		},
		quizID: uuid.New(),
	}

	if err := f.quizzes.SaveAll(ctx, []index.QuizRecord{{
		ID: f.quizID, Title: "Intro", FileReference: "resource:quizzes/intro.json",
	}}); err != nil {
		t.Fatalf("save quizzes: %v", err)
	}

	quizID := f.quizID
	f.lesson = index.LessonRecord{ID: uuid.New(), Title: "Intro", FileReference: "resource:lessons/intro.md", QuizID: &quizID}
	solo := index.LessonRecord{ID: uuid.New(), Title: "Solo", FileReference: "resource:lessons/solo.md"}
	if err := f.lessons.SaveAll(ctx, []index.LessonRecord{f.lesson, solo}); err != nil {
		t.Fatalf("save lessons: %v", err)
	}
	return f
}

func (f *fixture) service(opts ...ServiceOption) Service {
	loader := source.NewLoader(source.WithBundle(f.bundle))
	return NewService(f.quizzes, f.lessons, loader, opts...)
}

func TestResolveLessonWithQuiz(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	lesson, err := svc.ResolveLesson(context.Background(), f.lesson.ID)
	if err != nil {
		t.Fatalf("ResolveLesson: %v", err)
	}
	if lesson.Content != "# Lesson 1: Intro\nBody text" {
		t.Fatalf("content must be verbatim, got %q", lesson.Content)
	}
	if lesson.Title != "Intro" || lesson.FilePath != "resource:lessons/intro.md" {
		t.Fatalf("unexpected lesson %+v", lesson)
	}
	if lesson.Slug != "intro" {
		t.Fatalf("expected slug intro, got %q", lesson.Slug)
	}
	if lesson.ContentHTML != "" {
		t.Fatal("no renderer configured, expected empty html")
	}
	if lesson.Quiz == nil || len(lesson.Quiz.Questions) != 2 {
		t.Fatalf("expected 2-question quiz, got %+v", lesson.Quiz)
	}
	if lesson.Quiz.ID != f.quizID || lesson.Quiz.Title != "Intro" {
		t.Fatalf("quiz must carry index identity, got %s %q", lesson.Quiz.ID, lesson.Quiz.Title)
	}
}

func TestResolveLessonIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := f.service(WithRenderer(markdown.NewRenderer(interfaces.RenderOptions{})))

	first, err := svc.ResolveLesson(context.Background(), f.lesson.ID)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := svc.ResolveLesson(context.Background(), f.lesson.ID)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected equal lessons\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if first == second || first.Quiz == second.Quiz {
		t.Fatal("each resolution must build fresh objects")
	}
	if first.ContentHTML == "" {
		t.Fatal("expected rendered html")
	}
}

func TestResolveLessonByTitle(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	lesson, err := svc.ResolveLessonByTitle(context.Background(), "Solo")
	if err != nil {
		t.Fatalf("ResolveLessonByTitle: %v", err)
	}
	if lesson.Quiz != nil {
		t.Fatalf("expected no quiz, got %+v", lesson.Quiz)
	}

	_, err = svc.ResolveLessonByTitle(context.Background(), "solo")
	if !errors.Is(err, ErrLessonTitleNotFound) {
		t.Fatalf("expected ErrLessonTitleNotFound, got %v", err)
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) || notFound.Key != "solo" {
		t.Fatalf("expected NotFoundError for key solo, got %v", err)
	}
}

func TestResolveUnknownIDs(t *testing.T) {
	f := newFixture(t)
	svc := f.service()
	ctx := context.Background()

	_, err := svc.ResolveQuiz(ctx, uuid.New())
	if !errors.Is(err, ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not_found category, got %v", err)
	}
	if errors.Is(err, ErrContentUnavailable) {
		t.Fatal("missing record must not look like missing content")
	}

	if _, err := svc.ResolveLesson(ctx, uuid.New()); !errors.Is(err, ErrLessonNotFound) {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestResolveQuizRoundTrip(t *testing.T) {
	f := newFixture(t)

	quiz, err := f.service().ResolveQuiz(context.Background(), f.quizID)
	if err != nil {
		t.Fatalf("ResolveQuiz: %v", err)
	}
	want := []quizdoc.Question{
		{ID: 1, Text: "Q1", Options: []string{"a", "b"}, Answers: []quizdoc.Answer{{Text: "a", IsCorrect: true, Explanation: "because"}}},
		{ID: 2, Text: "Q2", Options: []string{"c"}, Answers: []quizdoc.Answer{{Text: "c"}}},
	}
	if !reflect.DeepEqual(quiz.Questions, want) {
		t.Fatalf("unexpected questions %+v", quiz.Questions)
	}
}

func TestResolveDeletedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intro.md")
	if err := os.WriteFile(path, []byte("# Intro"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lessons := index.NewMemoryLessonRepository()
	record := index.LessonRecord{ID: uuid.New(), Title: "Intro", FileReference: path}
	if err := lessons.SaveAll(context.Background(), []index.LessonRecord{record}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	svc := NewService(index.NewMemoryQuizRepository(), lessons, source.NewLoader())

	if _, err := svc.ResolveLesson(context.Background(), record.ID); err != nil {
		t.Fatalf("resolve before delete: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	_, err := svc.ResolveLesson(context.Background(), record.ID)
	if !errors.Is(err, ErrContentUnavailable) {
		t.Fatalf("expected ErrContentUnavailable, got %v", err)
	}
	if !errors.Is(err, source.ErrContentNotFound) {
		t.Fatalf("expected ErrContentNotFound in chain, got %v", err)
	}
	var unavailable *ContentUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Reference != path {
		t.Fatalf("expected ContentUnavailableError for %s, got %v", path, err)
	}

	if _, err := lessons.FindByID(context.Background(), record.ID); err != nil {
		t.Fatalf("record must stay queryable: %v", err)
	}
}

func TestResolveMalformedQuiz(t *testing.T) {
	f := newFixture(t)
	f.bundle["quizzes/intro.json"] = &fstest.MapFile{Data: []byte(`{"title": "Quiz 1: Intro"}`)}

	_, err := f.service().ResolveQuiz(context.Background(), f.quizID)
	if !errors.Is(err, quizdoc.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if errors.Is(err, ErrContentUnavailable) {
		t.Fatal("parse failures must stay distinct from load failures")
	}
}

func TestLinkedQuizFailurePolicy(t *testing.T) {
	f := newFixture(t)
	delete(f.bundle, "quizzes/intro.json")
	ctx := context.Background()

	_, err := f.service().ResolveLesson(ctx, f.lesson.ID)
	if !errors.Is(err, ErrContentUnavailable) || !errors.Is(err, source.ErrContentNotFound) {
		t.Fatalf("expected propagated quiz error, got %v", err)
	}

	lesson, err := f.service(WithQuizFailurePolicy(QuizFailureDegrade)).ResolveLesson(ctx, f.lesson.ID)
	if err != nil {
		t.Fatalf("degrade policy must not fail: %v", err)
	}
	if lesson.Quiz != nil {
		t.Fatalf("expected nil quiz under degrade, got %+v", lesson.Quiz)
	}
}

func TestSearchByTitle(t *testing.T) {
	lessons := index.NewMemoryLessonRepository()
	var batch []index.LessonRecord
	for _, title := range []string{"Intro to Java", "Java Streams", "Kotlin", "Advanced JAVA", "Scala"} {
		batch = append(batch, index.LessonRecord{ID: uuid.New(), Title: title, FileReference: "resource:" + title})
	}
	if err := lessons.SaveAll(context.Background(), batch); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	svc := NewService(index.NewMemoryQuizRepository(), lessons, source.NewLoader(), WithSearchLimit(2))
	titles, err := svc.SearchByTitle(context.Background(), " java ")
	if err != nil {
		t.Fatalf("SearchByTitle: %v", err)
	}
	if !reflect.DeepEqual(titles, []string{"Intro to Java", "Java Streams"}) {
		t.Fatalf("unexpected titles %v", titles)
	}
}

func TestConcurrentResolution(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ResolveLesson(context.Background(), f.lesson.ID); err != nil {
				t.Errorf("ResolveLesson: %v", err)
			}
		}()
	}
	wg.Wait()
}
