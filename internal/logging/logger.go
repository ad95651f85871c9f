// Package logging builds the zap loggers used by resgen.
// Each subsystem logs under a named category; categories can be switched off
// individually from configuration.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config resolution
	CategoryGenerate Category = "generate" // Generation passes
	CategoryWatch    Category = "watch"    // File watcher events
	CategoryBuild    Category = "build"    // Build hook runs
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level   string
	Format  string // console, json
	Verbose bool   // forces debug level
}

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the root logger.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "", "console", "text":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.DisableStacktrace = true
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: console, json)", opts.Format)
	}

	level := ParseLevel(opts.Level)
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.With(zap.String("app", "resgen")), nil
}

// Registry hands out category loggers derived from one root logger.
type Registry struct {
	root       *zap.Logger
	categories map[string]bool
}

// NewRegistry wraps root. A nil root yields no-op loggers.
func NewRegistry(root *zap.Logger, categories map[string]bool) *Registry {
	if root == nil {
		root = zap.NewNop()
	}
	return &Registry{root: root, categories: categories}
}

// IsCategoryEnabled returns whether a specific category is enabled
func (r *Registry) IsCategoryEnabled(category Category) bool {
	if r.categories == nil {
		return true
	}
	enabled, exists := r.categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns the logger for category, or a no-op logger when the category
// is disabled.
func (r *Registry) Get(category Category) *zap.Logger {
	if !r.IsCategoryEnabled(category) {
		return zap.NewNop()
	}
	return r.root.Named(string(category))
}

// Root returns the underlying logger.
func (r *Registry) Root() *zap.Logger {
	return r.root
}
