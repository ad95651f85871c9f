package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "resgen.yaml"

// DefaultOutputDir is used when neither arguments nor config name one.
const DefaultOutputDir = "src/resources"

// Config holds all resgen configuration.
type Config struct {
	// Targets pair a source file with the directory its bundles go to.
	Targets []Target `yaml:"targets"`

	// Output directory for targets that leave it empty
	OutputDir string `yaml:"output_dir"`

	Watch WatchConfig `yaml:"watch"`

	Logging LoggingConfig `yaml:"logging"`
}

// Target is one resource source and its output directory.
type Target struct {
	Input     string `yaml:"input"`
	OutputDir string `yaml:"output_dir,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce coalesces bursts of change events. Zero runs one pass per event.
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // console, json
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: DefaultOutputDir,
		Watch: WatchConfig{
			Debounce: "0s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if input := os.Getenv("RESGEN_INPUT"); input != "" {
		c.Targets = []Target{{Input: input}}
	}
	if dir := os.Getenv("RESGEN_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if level := os.Getenv("RESGEN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if d := os.Getenv("RESGEN_WATCH_DEBOUNCE"); d != "" {
		c.Watch.Debounce = d
	}
}

// WithArgs returns the targets to run. Positional arguments (input and an
// optional output directory) replace configured targets.
func (c *Config) WithArgs(args []string) []Target {
	if len(args) > 0 {
		t := Target{Input: args[0]}
		if len(args) > 1 {
			t.OutputDir = args[1]
		}
		return c.resolve([]Target{t})
	}
	return c.resolve(c.Targets)
}

func (c *Config) resolve(targets []Target) []Target {
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if t.OutputDir == "" {
			t.OutputDir = c.OutputDir
		}
		if t.OutputDir == "" {
			t.OutputDir = DefaultOutputDir
		}
		out = append(out, t)
	}
	return out
}

// GetWatchDebounce returns the watch debounce window as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ValidFormats lists the supported log formats.
var ValidFormats = []string{"console", "json"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for i, t := range c.Targets {
		if t.Input == "" {
			return fmt.Errorf("target %d: input not configured", i)
		}
	}

	if c.Watch.Debounce != "" {
		d, err := time.ParseDuration(c.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("invalid watch debounce %q: %w", c.Watch.Debounce, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid watch debounce %q: must not be negative", c.Watch.Debounce)
		}
	}

	if c.Logging.Format != "" {
		validFormat := false
		for _, f := range ValidFormats {
			if c.Logging.Format == f {
				validFormat = true
				break
			}
		}
		if !validFormat {
			return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, ValidFormats)
		}
	}

	return nil
}
