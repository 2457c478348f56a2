package storage_test

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-curriculum/internal/index"
	"github.com/goliatone/go-curriculum/internal/runtimeconfig"
	"github.com/goliatone/go-curriculum/internal/storage"
	"github.com/goliatone/go-curriculum/pkg/testsupport"
)

func TestOpen_MemoryProvider(t *testing.T) {
	repos, err := storage.Open(context.Background(), runtimeconfig.StorageConfig{Provider: "memory"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if repos.DB != nil {
		t.Fatal("memory provider must not open a database")
	}
	if _, ok := repos.Quizzes.(*index.MemoryQuizRepository); !ok {
		t.Fatalf("expected memory quiz repository, got %T", repos.Quizzes)
	}
	if err := repos.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpen_BunSQLiteCreatesSchema(t *testing.T) {
	ctx := context.Background()
	repos, err := storage.Open(ctx, runtimeconfig.StorageConfig{
		Provider: "bun",
		Driver:   "sqlite",
		DSN:      testsupport.SQLiteMemoryDSN(),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = repos.Close() })

	quizID := uuid.New()
	if err := repos.Quizzes.SaveAll(ctx, []index.QuizRecord{{ID: quizID, Title: "Intro", FileReference: "resource:quizzes/intro.json"}}); err != nil {
		t.Fatalf("SaveAll quizzes: %v", err)
	}
	if err := repos.Lessons.SaveAll(ctx, []index.LessonRecord{{ID: uuid.New(), Title: "Intro", FileReference: "resource:lessons/intro.md", QuizID: &quizID}}); err != nil {
		t.Fatalf("SaveAll lessons: %v", err)
	}

	got, err := repos.Lessons.FindByTitle(ctx, "Intro")
	if err != nil {
		t.Fatalf("FindByTitle: %v", err)
	}
	if got.QuizID == nil || *got.QuizID != quizID {
		t.Fatalf("expected quiz link persisted, got %+v", got)
	}
}

func TestOpen_RejectsUnknownProvider(t *testing.T) {
	_, err := storage.Open(context.Background(), runtimeconfig.StorageConfig{Provider: "redis"})
	if !errors.Is(err, storage.ErrUnsupportedStorage) {
		t.Fatalf("expected ErrUnsupportedStorage, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input category, got %v", err)
	}
}

func TestOpenDB_RejectsUnknownDriver(t *testing.T) {
	if _, err := storage.OpenDB("mysql", "dsn"); !errors.Is(err, storage.ErrUnsupportedStorage) {
		t.Fatalf("expected ErrUnsupportedStorage, got %v", err)
	}
}

func TestOpen_ReusesProvidedDB(t *testing.T) {
	db, err := storage.OpenDB("sqlite", testsupport.SQLiteMemoryDSN())
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repos, err := storage.Open(context.Background(), runtimeconfig.StorageConfig{Provider: "bun"}, storage.WithDB(db))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if repos.DB != db {
		t.Fatal("expected provided database reused")
	}
}
