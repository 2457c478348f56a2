package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	curriculum "github.com/goliatone/go-curriculum"
)

type globalOptions struct {
	configPath string
	lessonsDir string
	quizzesDir string
	resources  bool
}

var moduleBuilder = buildModule

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Fatalf("curriculum: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "curriculum",
		Short:         "Index and query lesson and quiz content",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&opts.lessonsDir, "lessons", "", "Lessons directory (overrides config)")
	flags.StringVar(&opts.quizzesDir, "quizzes", "", "Quizzes directory (overrides config)")
	flags.BoolVar(&opts.resources, "resources", false, "Resolve relative directories inside the resource bundle")

	root.AddCommand(
		newIndexCommand(opts),
		newLessonCommand(opts),
		newQuizCommand(opts),
		newSearchCommand(opts),
		newWatchCommand(opts),
	)
	return root
}

func buildModule(ctx context.Context, opts globalOptions, indexOnStartup *bool) (*curriculum.Module, error) {
	cfg, err := curriculum.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.lessonsDir != "" {
		cfg.LessonsDir = opts.lessonsDir
	}
	if opts.quizzesDir != "" {
		cfg.QuizzesDir = opts.quizzesDir
	}
	if opts.resources {
		cfg.Scan.Resources = true
	}
	if indexOnStartup != nil {
		cfg.Index.OnStartup = *indexOnStartup
	}
	return curriculum.New(ctx, cfg, curriculum.WithLogOutput(os.Stderr))
}

func withModule(cmd *cobra.Command, opts *globalOptions, indexOnStartup *bool, fn func(context.Context, *curriculum.Module) error) error {
	ctx := cmd.Context()
	module, err := moduleBuilder(ctx, *opts, indexOnStartup)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()
	return fn(ctx, module)
}

func newIndexCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan both directories and print the index summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			skip := false
			return withModule(cmd, opts, &skip, func(ctx context.Context, module *curriculum.Module) error {
				result, err := module.Index(ctx)
				if err != nil {
					return fmt.Errorf("index: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newLessonCommand(opts *globalOptions) *cobra.Command {
	var id, title string
	cmd := &cobra.Command{
		Use:   "lesson",
		Short: "Resolve a lesson by --id or --title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var lessonID uuid.UUID
			if id != "" {
				parsed, err := uuid.Parse(id)
				if err != nil {
					return fmt.Errorf("parse id: %w", err)
				}
				lessonID = parsed
			}
			return withModule(cmd, opts, nil, func(ctx context.Context, module *curriculum.Module) error {
				var (
					lesson *curriculum.Lesson
					err    error
				)
				if title != "" {
					lesson, err = module.LessonByTitle(ctx, title)
				} else {
					lesson, err = module.Lesson(ctx, lessonID)
				}
				if err != nil {
					return fmt.Errorf("resolve lesson: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), lesson)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Lesson ID")
	cmd.Flags().StringVar(&title, "title", "", "Exact canonical lesson title")
	cmd.MarkFlagsMutuallyExclusive("id", "title")
	cmd.MarkFlagsOneRequired("id", "title")
	return cmd
}

func newQuizCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz <id>",
		Short: "Resolve a quiz by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quizID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse id: %w", err)
			}
			return withModule(cmd, opts, nil, func(ctx context.Context, module *curriculum.Module) error {
				quiz, err := module.Quiz(ctx, quizID)
				if err != nil {
					return fmt.Errorf("resolve quiz: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), quiz)
			})
		},
	}
}

func newSearchCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search [keyword]",
		Short: "List lesson titles containing keyword",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}
			return withModule(cmd, opts, nil, func(ctx context.Context, module *curriculum.Module) error {
				titles, err := module.SearchLessons(ctx, keyword)
				if err != nil {
					return fmt.Errorf("search lessons: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), titles)
			})
		},
	}
}

func newWatchCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-index whenever content files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withModule(cmd, opts, nil, func(ctx context.Context, module *curriculum.Module) error {
				out := cmd.OutOrStdout()
				results := module.Subscribe(ctx)
				go func() {
					for result := range results {
						_ = writeJSON(out, result)
					}
				}()
				return module.Watch(ctx)
			})
		},
	}
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
