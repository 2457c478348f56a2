package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-curriculum/internal/source"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "CURRICULUM_"

var (
	// ErrConfigRead reports a config file that could not be read or decoded.
	ErrConfigRead = errors.New("curriculum config: read failed")
	// ErrInvalidEnv reports an environment override with an unparsable value.
	ErrInvalidEnv = errors.New("curriculum config: invalid environment override")
)

// Config aggregates every runtime option of the catalog.
type Config struct {
	LessonsDir string         `yaml:"lessons_dir"`
	QuizzesDir string         `yaml:"quizzes_dir"`
	Scan       ScanConfig     `yaml:"scan"`
	Loader     LoaderConfig   `yaml:"loader"`
	Storage    StorageConfig  `yaml:"storage"`
	Resolver   ResolverConfig `yaml:"resolver"`
	Index      IndexConfig    `yaml:"index"`
	Watch      WatchConfig    `yaml:"watch"`
	Markdown   MarkdownConfig `yaml:"markdown"`
	Logging    LoggingConfig  `yaml:"logging"`
}

// ScanConfig controls directory enumeration.
type ScanConfig struct {
	Recursive bool `yaml:"recursive"`
	Workers   int  `yaml:"workers"`
	// Resources treats unprefixed relative directories as paths inside the
	// embedded resource bundle instead of the filesystem.
	Resources bool `yaml:"resources"`
}

// LoaderConfig bounds content reads.
type LoaderConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects the index store.
type StorageConfig struct {
	Provider string `yaml:"provider"`
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
}

// ResolverConfig tunes content resolution.
type ResolverConfig struct {
	QuizFailure string `yaml:"quiz_failure"`
	SearchLimit int    `yaml:"search_limit"`
}

// IndexConfig controls when ingestion runs.
type IndexConfig struct {
	OnStartup bool `yaml:"on_startup"`
}

// WatchConfig tunes the filesystem watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// MarkdownConfig mirrors interfaces.RenderOptions.
type MarkdownConfig struct {
	Extensions []string `yaml:"extensions"`
	SafeMode   bool     `yaml:"safe_mode"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns defaults for everything except the two content roots,
// which have none.
func DefaultConfig() Config {
	return Config{
		Scan: ScanConfig{
			Recursive: false,
		},
		Loader: LoaderConfig{
			Timeout: source.DefaultTimeout,
		},
		Storage: StorageConfig{
			Provider: "memory",
			Driver:   "sqlite",
		},
		Resolver: ResolverConfig{
			QuizFailure: "propagate",
			SearchLimit: 10,
		},
		Index: IndexConfig{
			OnStartup: true,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate reports every invalid option as a go-errors validation error.
func (cfg Config) Validate() error {
	err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.LessonsDir, validation.Required.Error("lessons directory is required")),
		validation.Field(&cfg.QuizzesDir, validation.Required.Error("quizzes directory is required")),
		validation.Field(&cfg.Scan),
		validation.Field(&cfg.Loader),
		validation.Field(&cfg.Storage),
		validation.Field(&cfg.Resolver),
		validation.Field(&cfg.Watch),
		validation.Field(&cfg.Logging),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid curriculum config").
			WithTextCode("CONFIG_INVALID")
	}
	return nil
}

// Validate implements validation.Validatable.
func (c ScanConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Workers, validation.Min(0)),
	)
}

// Validate implements validation.Validatable.
func (c LoaderConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (c StorageConfig) Validate() error {
	provider := normalize(c.Provider)
	return validation.ValidateStruct(&c,
		validation.Field(&c.Provider, validation.By(oneOf("memory", "bun"))),
		validation.Field(&c.Driver, validation.When(provider == "bun", validation.By(oneOf("sqlite", "postgres")))),
		validation.Field(&c.DSN, validation.When(provider == "bun", validation.Required.Error("dsn is required for the bun provider"))),
	)
}

// Validate implements validation.Validatable.
func (c ResolverConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.QuizFailure, validation.By(oneOf("", "propagate", "degrade"))),
		validation.Field(&c.SearchLimit, validation.Min(0)),
	)
}

// Validate implements validation.Validatable.
func (c WatchConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (c LoggingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Provider, validation.By(oneOf("console", "gologger"))),
		validation.Field(&c.Level, validation.By(oneOf("", "trace", "debug", "info", "warn", "warning", "error", "fatal"))),
		validation.Field(&c.Format, validation.By(oneOf("", "json", "console", "text", "pretty"))),
	)
}

func oneOf(allowed ...string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		s = normalize(s)
		for _, candidate := range allowed {
			if s == candidate {
				return nil
			}
		}
		return validation.NewError("validation_not_allowed", fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")))
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Load reads a YAML config file over DefaultConfig and applies CURRICULUM_*
// environment overrides. An empty path skips the file. The result is not
// validated.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, goerrors.Wrap(fmt.Errorf("%w: %w", ErrConfigRead, err), goerrors.CategoryBadInput, "read config file").
				WithMetadata(map[string]any{"path": path})
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, goerrors.Wrap(fmt.Errorf("%w: %w", ErrConfigRead, err), goerrors.CategoryBadInput, "decode config file").
				WithMetadata(map[string]any{"path": path})
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment overrides read through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LESSONS_DIR":           &cfg.LessonsDir,
		"QUIZZES_DIR":           &cfg.QuizzesDir,
		"STORAGE_PROVIDER":      &cfg.Storage.Provider,
		"STORAGE_DRIVER":        &cfg.Storage.Driver,
		"STORAGE_DSN":           &cfg.Storage.DSN,
		"RESOLVER_QUIZ_FAILURE": &cfg.Resolver.QuizFailure,
		"LOG_PROVIDER":          &cfg.Logging.Provider,
		"LOG_LEVEL":             &cfg.Logging.Level,
		"LOG_FORMAT":            &cfg.Logging.Format,
	}
	for key, target := range strs {
		if value, ok := lookup(EnvPrefix + key); ok {
			*target = strings.TrimSpace(value)
		}
	}

	bools := map[string]*bool{
		"SCAN_RECURSIVE":     &cfg.Scan.Recursive,
		"SCAN_RESOURCES":     &cfg.Scan.Resources,
		"INDEX_ON_STARTUP":   &cfg.Index.OnStartup,
		"MARKDOWN_SAFE_MODE": &cfg.Markdown.SafeMode,
		"LOG_ADD_SOURCE":     &cfg.Logging.AddSource,
	}
	for key, target := range bools {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return envError(key, value, err)
		}
		*target = parsed
	}

	ints := map[string]*int{
		"SCAN_WORKERS":          &cfg.Scan.Workers,
		"RESOLVER_SEARCH_LIMIT": &cfg.Resolver.SearchLimit,
	}
	for key, target := range ints {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return envError(key, value, err)
		}
		*target = parsed
	}

	durations := map[string]*time.Duration{
		"LOADER_TIMEOUT": &cfg.Loader.Timeout,
		"WATCH_DEBOUNCE": &cfg.Watch.Debounce,
	}
	for key, target := range durations {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return envError(key, value, err)
		}
		*target = parsed
	}

	if value, ok := lookup(EnvPrefix + "MARKDOWN_EXTENSIONS"); ok {
		cfg.Markdown.Extensions = splitList(value)
	}
	return nil
}

func envError(key, value string, err error) error {
	return goerrors.Wrap(fmt.Errorf("%w: %w", ErrInvalidEnv, err), goerrors.CategoryBadInput, "invalid environment override").
		WithMetadata(map[string]any{"variable": EnvPrefix + key, "value": value})
}

func splitList(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Root converts a configured directory into a content reference. Prefixed
// values ("resource:", "classpath:") and absolute paths are parsed as-is;
// relative paths resolve against the working directory unless resources is
// set, in which case they address the resource bundle.
func Root(dir string, resources bool) (source.Reference, error) {
	dir = strings.TrimSpace(dir)
	if ref, err := source.ParseReference(dir); err == nil {
		return ref, nil
	}
	if resources {
		return source.ResourceReference(dir), nil
	}
	return source.PathReference(dir)
}
