// Package quizdoc parses quiz documents into their resolved form.
package quizdoc

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrParse reports a quiz document that does not match the expected shape.
var ErrParse = errors.New("quizdoc: malformed quiz document")

//go:embed quiz.schema.json
var schemaSource []byte

const schemaURL = "quiz.schema.json"

// Quiz is a fully parsed quiz.
type Quiz struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Question is one quiz question with its candidate options and answers.
type Question struct {
	ID      int64    `json:"id,omitempty"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Answers []Answer `json:"answers"`
}

// Answer is an immutable answer value.
type Answer struct {
	Text        string `json:"text"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaSource)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = compiler.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Parse validates raw against the quiz schema and decodes it. The returned
// quiz carries the document title verbatim and a nil ID; callers attach the
// index identity.
func Parse(raw []byte) (*Quiz, error) {
	sch, err := schema()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "quizdoc: compile schema")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var instance any
	if err := decoder.Decode(&instance); err != nil {
		return nil, parseError("invalid JSON: "+err.Error(), nil)
	}
	if decoder.More() {
		return nil, parseError("trailing data after document", nil)
	}

	if err := sch.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return nil, parseError("document does not match quiz shape", issues(validationErr))
		}
		return nil, parseError(err.Error(), nil)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, parseError("decode: "+err.Error(), nil)
	}
	if doc.Questions == nil {
		doc.Questions = []Question{}
	}
	return &Quiz{Title: doc.Title, Questions: doc.Questions}, nil
}

// document is the on-disk shape. Any top-level id in the file is ignored.
type document struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

func issues(err *jsonschema.ValidationError) goerrors.ValidationErrors {
	var out goerrors.ValidationErrors
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			location := strings.TrimSpace(node.InstanceLocation)
			if location == "" {
				location = "/"
			}
			out = append(out, goerrors.FieldError{Field: location, Message: strings.TrimSpace(node.Message)})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return out
}

func parseError(reason string, fields goerrors.ValidationErrors) error {
	err := goerrors.Wrap(ErrParse, goerrors.CategoryInternal, "quizdoc: "+reason).
		WithTextCode("QUIZ_PARSE_FAILED")
	err.ValidationErrors = fields
	return err
}
