package curriculum

import (
	"github.com/goliatone/go-curriculum/internal/di"
	"github.com/goliatone/go-curriculum/internal/runtimeconfig"
)

type (
	Config         = runtimeconfig.Config
	ScanConfig     = runtimeconfig.ScanConfig
	LoaderConfig   = runtimeconfig.LoaderConfig
	StorageConfig  = runtimeconfig.StorageConfig
	ResolverConfig = runtimeconfig.ResolverConfig
	IndexConfig    = runtimeconfig.IndexConfig
	WatchConfig    = runtimeconfig.WatchConfig
	MarkdownConfig = runtimeconfig.MarkdownConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
)

// Option overrides a collaborator the module would otherwise build from
// configuration.
type Option = di.Option

var (
	WithLoggerProvider  = di.WithLoggerProvider
	WithLogOutput       = di.WithLogOutput
	WithBundle          = di.WithBundle
	WithBunDB           = di.WithBunDB
	WithRenderer        = di.WithRenderer
	WithClock           = di.WithClock
	WithCommandRegistry = di.WithCommandRegistry
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML config file over DefaultConfig and applies
// CURRICULUM_* environment overrides.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
