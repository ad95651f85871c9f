// Package buildhook exposes the generation pass as a step that runs once
// before a build. The source file is registered as a build dependency so
// that the surrounding build tool can tell when the bundles are stale.
package buildhook

import (
	"context"
	"errors"
	"fmt"

	"resgen/internal/generator"

	"go.uber.org/zap"
)

// Compilation is the part of a build the hook talks to.
type Compilation interface {
	// AddFileDependency registers a file whose change invalidates the build.
	AddFileDependency(path string)
	// Warn records a non-fatal problem.
	Warn(msg string)
}

// Generator is the generation pass the plugin runs.
type Generator interface {
	Input() string
	Run(ctx context.Context) (*generator.Result, error)
}

// Plugin runs a generation pass before the build starts.
// It does not watch for changes; rebuilding is up to the build tool.
type Plugin struct {
	gen    Generator
	logger *zap.Logger
}

// New creates a plugin for gen.
func New(gen Generator, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plugin{gen: gen, logger: logger}
}

// BeforeRun registers the source file with c and runs one pass.
// A missing source file is reported as a warning and the build continues
// without generated resources; any other failure is returned.
func (p *Plugin) BeforeRun(ctx context.Context, c Compilation) (*generator.Result, error) {
	c.AddFileDependency(p.gen.Input())

	res, err := p.gen.Run(ctx)
	if err != nil {
		if errors.Is(err, generator.ErrMissingInput) {
			msg := fmt.Sprintf("resource generation skipped: %v", err)
			p.logger.Warn("Resource file missing, continuing build", zap.String("input", p.gen.Input()))
			c.Warn(msg)
			return nil, nil
		}
		return nil, fmt.Errorf("resource generation failed: %w", err)
	}

	p.logger.Debug("Resource bundles generated before build",
		zap.String("run_id", res.RunID),
		zap.Strings("files", res.Files))
	return res, nil
}
