// Package generator runs one resource generation pass: read the source file,
// group its records by language and write one bundle per language.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"resgen/internal/bundle"
	"resgen/internal/resource"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrMissingInput is returned when the source file does not exist.
var ErrMissingInput = errors.New("resource file not found")

// ErrMalformedTopLevel is returned when the source document is not an array.
var ErrMalformedTopLevel = resource.ErrMalformedTopLevel

// Result summarizes a completed pass.
type Result struct {
	RunID     string
	Input     string
	OutputDir string
	Languages []string
	Files     []string
	Rejected  []string
	Records   int
	Skipped   int
	Duration  time.Duration
}

// Generator runs generation passes for one input file.
type Generator struct {
	fs     afero.Fs
	input  string
	writer *bundle.Writer
	logger *zap.Logger
}

// New creates a generator reading input and writing into outputDir on fs.
// The logger is used as given; callers pick the category.
func New(fs afero.Fs, input, outputDir string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		fs:     fs,
		input:  input,
		writer: bundle.NewWriter(fs, outputDir),
		logger: logger,
	}
}

// Input returns the source file path.
func (g *Generator) Input() string {
	return g.input
}

// OutputDir returns the directory bundles are written to.
func (g *Generator) OutputDir() string {
	return g.writer.Dir()
}

// Run executes one pass. Nothing is written when the input is missing or
// malformed. A write failure can leave earlier bundles updated.
//
// The context is only checked before the pass starts; a started pass runs
// to completion.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{
		RunID:     uuid.New().String(),
		Input:     g.input,
		OutputDir: g.writer.Dir(),
	}
	log := g.logger.With(zap.String("run_id", res.RunID), zap.String("input", g.input))

	data, err := afero.ReadFile(g.fs, g.input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, g.input)
		}
		return nil, fmt.Errorf("failed to read %s: %w", g.input, err)
	}

	decoded, err := resource.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.input, err)
	}
	res.Records = len(decoded.Records)
	res.Skipped = decoded.Skipped
	if decoded.Skipped > 0 {
		log.Debug("Skipped malformed records", zap.Int("skipped", decoded.Skipped))
	}

	groups := resource.Group(decoded.Records)
	res.Languages = groups.Languages()

	report, err := g.writer.Write(groups)
	if report != nil {
		res.Files = report.Paths
		res.Rejected = report.Rejected
	}
	if err != nil {
		return nil, err
	}
	for _, lang := range res.Rejected {
		log.Warn("Skipped language with unusable code", zap.String("language", lang))
	}

	res.Duration = time.Since(start)
	log.Info("Generated resource bundles",
		zap.Int("records", res.Records),
		zap.Int("languages", len(res.Files)),
		zap.String("output_dir", res.OutputDir),
		zap.Duration("duration", res.Duration))
	return res, nil
}
