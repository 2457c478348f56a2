package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestNewProviderBuildsModuleLoggers(t *testing.T) {
	p, err := NewProvider(Config{
		Level:  "debug",
		Format: "console",
		Focus:  []string{" curriculum.indexer ", ""},
	})
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}

	logger := p.GetLogger("curriculum.indexer")
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	logger.WithFields(map[string]any{"module": "curriculum.indexer"}).Debug("indexer.run.start")
}

func TestNewProviderRejectsUnknownSettings(t *testing.T) {
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if _, err := NewProvider(Config{Level: "loud"}); err == nil {
		t.Fatal("expected unsupported level error")
	}
}

func TestNilProviderReturnsNoOp(t *testing.T) {
	var p *Provider
	logger := p.GetLogger("curriculum")
	logger.Info("dropped")
}

func TestAdapterDelegatesToNativeLogger(t *testing.T) {
	stub := &nativeStub{}
	adapted := adapt(stub)

	adapted.Trace("a")
	adapted.Debug("b")
	adapted.Info("c")
	adapted.Warn("d")
	adapted.Error("e")
	adapted.Fatal("f")

	fields := map[string]any{"quiz_id": "q-1"}
	child := adapted.(*adapter).WithFields(fields)
	if child == nil {
		t.Fatal("expected child logger")
	}
	fields["quiz_id"] = "mutated"
	if len(stub.fields) != 1 || stub.fields[0]["quiz_id"] != "q-1" {
		t.Fatalf("expected cloned fields, got %v", stub.fields)
	}

	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	adapted.WithContext(ctx)
	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("expected context propagation, got %v", stub.contexts)
	}

	want := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if len(stub.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), stub.calls)
	}
	for i := range want {
		if stub.calls[i] != want[i] {
			t.Fatalf("call %d: want %s got %s", i, want[i], stub.calls[i])
		}
	}
}

func TestAdapterFallsBackToPairs(t *testing.T) {
	stub := &plainStub{}
	logger := adapt(stub).(*adapter).WithFields(map[string]any{"b": 2, "a": 1})

	logger.Info("scanner.scan.complete", "count", 3)

	if len(stub.args) != 1 {
		t.Fatalf("expected one call, got %d", len(stub.args))
	}
	got := stub.args[0]
	want := []any{"a", 1, "b", 2, "count", 3}
	if len(got) != len(want) {
		t.Fatalf("unexpected args %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d: want %v got %v", i, want[i], got[i])
		}
	}
}

type ctxKey struct{}

type plainStub struct {
	args [][]any
}

var _ glog.Logger = (*plainStub)(nil)

func (s *plainStub) Trace(string, ...any)                    {}
func (s *plainStub) Debug(string, ...any)                    {}
func (s *plainStub) Info(_ string, args ...any)              { s.args = append(s.args, args) }
func (s *plainStub) Warn(string, ...any)                     {}
func (s *plainStub) Error(string, ...any)                    {}
func (s *plainStub) Fatal(string, ...any)                    {}
func (s *plainStub) WithContext(context.Context) glog.Logger { return s }

type nativeStub struct {
	calls    []string
	fields   []map[string]any
	contexts []context.Context
}

var (
	_ glog.Logger       = (*nativeStub)(nil)
	_ glog.FieldsLogger = (*nativeStub)(nil)
)

func (s *nativeStub) Trace(string, ...any) { s.calls = append(s.calls, "trace") }
func (s *nativeStub) Debug(string, ...any) { s.calls = append(s.calls, "debug") }
func (s *nativeStub) Info(string, ...any)  { s.calls = append(s.calls, "info") }
func (s *nativeStub) Warn(string, ...any)  { s.calls = append(s.calls, "warn") }
func (s *nativeStub) Error(string, ...any) { s.calls = append(s.calls, "error") }
func (s *nativeStub) Fatal(string, ...any) { s.calls = append(s.calls, "fatal") }

func (s *nativeStub) WithContext(ctx context.Context) glog.Logger {
	s.contexts = append(s.contexts, ctx)
	return s
}

func (s *nativeStub) WithFields(fields map[string]any) glog.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.fields = append(s.fields, copied)
	return s
}
