package main

import (
	"context"
	"fmt"
	"os"

	"resgen/cmd/resgen/ui"
	"resgen/internal/config"
	"resgen/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Generate flags
	watchMode bool

	// Prebuild flags
	depfilePath string

	// Runtime state, set up in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
	logs   *logging.Registry

	styles = ui.DefaultStyles()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "resgen [input] [output-dir]",
	Short: "Generate per-language resource bundles from a resource file",
	Long: `Reads a JSON array of resource records and writes one bundle per language.

Each record looks like {"id": "app.title", "values": {"nb": "Skjema", "en": "Form"}}.
For every language found, resgen writes <output-dir>/resource.<language>.json
containing {"language": ..., "resources": [{"id": ..., "value": ...}, ...]}.

Records without an id, or whose values is not an object, are skipped.

The output directory defaults to ` + config.DefaultOutputDir + `. Targets can also be
listed in ` + config.DefaultPath + `.

An input file named "prebuild" is read as the subcommand; pass it as ./prebuild.

Examples:
  resgen texts/resources.json
  resgen texts/resources.json app/src/resources
  resgen texts/resources.json --watch`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initRuntime()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runGenerate,
}

// prebuildCmd runs the build-hook variant
var prebuildCmd = &cobra.Command{
	Use:   "prebuild [input] [output-dir]",
	Short: "Generate resource bundles once before a build step",
	Long: `Runs a single generation pass intended to precede a build.

The input file is registered as a build dependency. With --depfile the
dependencies are written as Make rules so the build tool can detect when the
generated bundles are stale. A missing input file only produces a warning.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runPrebuild,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")

	rootCmd.Flags().BoolVar(&watchMode, "watch", false, "Regenerate whenever the input file changes")

	prebuildCmd.Flags().StringVar(&depfilePath, "depfile", "", "Write Make-style dependency rules to this file")

	rootCmd.AddCommand(prebuildCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initRuntime loads configuration and builds the logger.
func initRuntime() error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	root, err := logging.New(logging.Options{
		Level:   loaded.Logging.Level,
		Format:  loaded.Logging.Format,
		Verbose: verbose,
	})
	if err != nil {
		return err
	}

	cfg = loaded
	logger = root
	logs = logging.NewRegistry(root, loaded.Logging.Categories)
	logs.Get(logging.CategoryBoot).Debug("Configuration loaded",
		zap.String("config", configPath),
		zap.Int("targets", len(loaded.Targets)))
	return nil
}

// commandContext returns the command's context, or a background context for
// commands invoked directly in tests.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
