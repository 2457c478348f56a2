// Package gologger adapts github.com/goliatone/go-logger to the curriculum
// logging contracts.
package gologger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-curriculum/internal/logging"
	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

// Config mirrors the logging section of the runtime configuration.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	// Focus restricts output to the named module loggers, for example
	// "curriculum.indexer". Empty means every module logs.
	Focus []string
}

// Provider hands out go-logger backed module loggers.
type Provider struct {
	root *glog.BaseLogger
}

var _ interfaces.LoggerProvider = (*Provider)(nil)

// NewProvider builds the root go-logger instance from cfg.
func NewProvider(cfg Config) (*Provider, error) {
	options, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}

	root := glog.NewLogger(options...)
	if focus := compact(cfg.Focus); len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root}, nil
}

func buildOptions(cfg Config) ([]glog.Option, error) {
	var options []glog.Option

	level, err := levelFor(cfg.Level)
	if err != nil {
		return nil, err
	}
	if level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "console", "text":
		options = append(options, glog.WithLoggerTypeConsole())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("gologger: unsupported format %q", cfg.Format)
	}

	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}
	return options, nil
}

// GetLogger returns the child logger registered under name.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return adapt(p.root)
	}
	return adapt(p.root.GetLogger(name))
}

func adapt(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

type adapter struct {
	inner glog.Logger
}

var (
	_ interfaces.Logger       = (*adapter)(nil)
	_ interfaces.FieldsLogger = (*adapter)(nil)
)

func (a *adapter) Trace(msg string, args ...any) { a.inner.Trace(msg, args...) }
func (a *adapter) Debug(msg string, args ...any) { a.inner.Debug(msg, args...) }
func (a *adapter) Info(msg string, args ...any)  { a.inner.Info(msg, args...) }
func (a *adapter) Warn(msg string, args ...any)  { a.inner.Warn(msg, args...) }
func (a *adapter) Error(msg string, args ...any) { a.inner.Error(msg, args...) }
func (a *adapter) Fatal(msg string, args ...any) { a.inner.Fatal(msg, args...) }

// WithFields prefers the native go-logger field support. Loggers without it
// get the fields appended as sorted key/value pairs on every call.
func (a *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return a
	}
	if native, ok := a.inner.(glog.FieldsLogger); ok {
		return adapt(native.WithFields(maps.Clone(fields)))
	}
	return &pairsAdapter{adapter: a, pairs: flatten(fields)}
}

func (a *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return a
	}
	return adapt(a.inner.WithContext(ctx))
}

type pairsAdapter struct {
	*adapter
	pairs []any
}

func (p *pairsAdapter) with(args []any) []any {
	return append(slices.Clone(p.pairs), args...)
}

func (p *pairsAdapter) Trace(msg string, args ...any) { p.inner.Trace(msg, p.with(args)...) }
func (p *pairsAdapter) Debug(msg string, args ...any) { p.inner.Debug(msg, p.with(args)...) }
func (p *pairsAdapter) Info(msg string, args ...any)  { p.inner.Info(msg, p.with(args)...) }
func (p *pairsAdapter) Warn(msg string, args ...any)  { p.inner.Warn(msg, p.with(args)...) }
func (p *pairsAdapter) Error(msg string, args ...any) { p.inner.Error(msg, p.with(args)...) }
func (p *pairsAdapter) Fatal(msg string, args ...any) { p.inner.Fatal(msg, p.with(args)...) }

func (p *pairsAdapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return p
	}
	return &pairsAdapter{adapter: p.adapter, pairs: append(slices.Clone(p.pairs), flatten(fields)...)}
}

func (p *pairsAdapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return p
	}
	return &pairsAdapter{adapter: &adapter{inner: p.inner.WithContext(ctx)}, pairs: p.pairs}
}

func flatten(fields map[string]any) []any {
	out := make([]any, 0, len(fields)*2)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		out = append(out, key, fields[key])
	}
	return out
}

func levelFor(level string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return "", nil
	case "trace":
		return glog.Trace, nil
	case "debug":
		return glog.Debug, nil
	case "info":
		return glog.Info, nil
	case "warn", "warning":
		return glog.Warn, nil
	case "error":
		return glog.Error, nil
	case "fatal":
		return glog.Fatal, nil
	}
	return "", fmt.Errorf("gologger: unsupported level %q", level)
}

func compact(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
