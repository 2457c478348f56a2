package quizdoc

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const introQuiz = `{
  "id": 7,
  "title": "Quiz 1: Intro",
  "questions": [
    {
      "id": 1,
      "question": "What does the JVM execute?",
      "options": ["Bytecode", "Source"],
      "answers": [
        {"text": "Bytecode", "isCorrect": true, "explanation": "javac emits bytecode"},
        {"text": "Source", "isCorrect": false}
      ]
    },
    {
      "question": "Is Java statically typed?",
      "options": ["Yes", "No"],
      "answers": [{"text": "Yes", "isCorrect": true, "explanation": ""}]
    }
  ]
}`

func TestParseQuiz(t *testing.T) {
	quiz, err := Parse([]byte(introQuiz))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if quiz.ID != uuid.Nil {
		t.Fatalf("expected nil id, got %s", quiz.ID)
	}
	if quiz.Title != "Quiz 1: Intro" {
		t.Fatalf("unexpected title %q", quiz.Title)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(quiz.Questions))
	}

	first := quiz.Questions[0]
	if first.ID != 1 || first.Text != "What does the JVM execute?" {
		t.Fatalf("unexpected first question %+v", first)
	}
	if len(first.Options) != 2 || first.Options[0] != "Bytecode" {
		t.Fatalf("unexpected options %v", first.Options)
	}
	want := Answer{Text: "Bytecode", IsCorrect: true, Explanation: "javac emits bytecode"}
	if first.Answers[0] != want {
		t.Fatalf("unexpected answer %+v", first.Answers[0])
	}
	if quiz.Questions[1].ID != 0 {
		t.Fatalf("expected zero id for question without id, got %d", quiz.Questions[1].ID)
	}
}

func TestParseEmptyQuestionList(t *testing.T) {
	quiz, err := Parse([]byte(`{"title": "Empty", "questions": []}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if quiz.Questions == nil || len(quiz.Questions) != 0 {
		t.Fatalf("expected empty question slice, got %#v", quiz.Questions)
	}
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"invalid json":      `{"title": "x", "questions": [`,
		"missing questions": `{"title": "Only a title"}`,
		"missing title":     `{"questions": []}`,
		"question as text":  `{"title": "x", "questions": ["what?"]}`,
		"answer flag type":  `{"title": "x", "questions": [{"question": "q", "options": [], "answers": [{"text": "a", "isCorrect": "yes"}]}]}`,
		"fractional id":     `{"title": "x", "questions": [{"id": 1.5, "question": "q", "options": [], "answers": []}]}`,
		"trailing data":     `{"title": "x", "questions": []} {}`,
		"array document":    `[]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}
			if !goerrors.IsCategory(err, goerrors.CategoryInternal) {
				t.Fatalf("expected internal category, got %v", err)
			}
		})
	}
}

func TestParseReportsIssueLocations(t *testing.T) {
	_, err := Parse([]byte(`{"title": "x", "questions": [{"question": "q", "options": [1], "answers": []}]}`))

	var typed *goerrors.Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected go-errors error, got %T", err)
	}
	if len(typed.ValidationErrors) == 0 {
		t.Fatal("expected validation issues")
	}
	found := false
	for _, issue := range typed.ValidationErrors {
		if issue.Field == "/questions/0/options/0" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected issue at /questions/0/options/0, got %+v", typed.ValidationErrors)
	}
}
