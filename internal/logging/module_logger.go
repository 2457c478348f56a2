package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-curriculum/pkg/interfaces"
)

const (
	rootModule     = "curriculum"
	scannerModule  = "curriculum.scanner"
	indexerModule  = "curriculum.indexer"
	resolverModule = "curriculum.resolver"
	watchModule    = "curriculum.watch"
	storageModule  = "curriculum.storage"
)

const (
	fieldPath      = "path"
	fieldReference = "reference"
	fieldClass     = "content_class"
)

// ModuleLogger returns a logger scoped to module, tagged with a "module"
// field. A nil provider yields the no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ScannerLogger returns the logger namespace used by directory scans.
func ScannerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, scannerModule)
}

// IndexerLogger returns the logger namespace used by metadata ingestion.
func IndexerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, indexerModule)
}

// ResolverLogger returns the logger namespace used by content resolution.
func ResolverLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, resolverModule)
}

// WatchLogger returns the logger namespace used by the filesystem watcher.
func WatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, watchModule)
}

// StorageLogger returns the logger namespace used by the index store.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// WithFileContext enriches logger with the content class and file location of
// the entry being processed. Empty values are ignored.
func WithFileContext(logger interfaces.Logger, class, path, reference string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(class); trimmed != "" {
		fields[fieldClass] = trimmed
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldPath] = trimmed
	}
	if trimmed := strings.TrimSpace(reference); trimmed != "" {
		fields[fieldReference] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
