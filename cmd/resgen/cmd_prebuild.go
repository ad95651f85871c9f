package main

import (
	"resgen/internal/buildhook"
	"resgen/internal/logging"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runPrebuild runs the build hook once per target and optionally writes the
// collected dependencies as Make rules.
func runPrebuild(cmd *cobra.Command, args []string) error {
	targets := cfg.WithArgs(args)
	if len(targets) == 0 {
		return cmd.Usage()
	}

	ctx := commandContext(cmd)
	buildLog := logs.Get(logging.CategoryBuild)

	depFiles := make([]*buildhook.DepFile, 0, len(targets))
	for _, t := range targets {
		dep := buildhook.NewDepFile(t.OutputDir)
		plugin := buildhook.New(newGenerator(t), buildLog)

		res, err := plugin.BeforeRun(ctx, dep)
		if err != nil {
			return err
		}
		for _, msg := range dep.Warnings() {
			if err := styles.RenderWarning(cmd.ErrOrStderr(), msg); err != nil {
				return err
			}
		}
		if res != nil {
			if err := printSummary(cmd.OutOrStdout(), res); err != nil {
				return err
			}
		}
		depFiles = append(depFiles, dep)
	}

	if depfilePath == "" {
		return nil
	}
	if err := buildhook.Save(afero.NewOsFs(), depfilePath, depFiles...); err != nil {
		return err
	}
	buildLog.Debug("Wrote dependency file", zap.String("path", depfilePath))
	return nil
}
