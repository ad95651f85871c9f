package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"resgen/cmd/resgen/ui"
	"resgen/internal/config"
	"resgen/internal/generator"
	"resgen/internal/logging"
	"resgen/internal/watch"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// runGenerate is the root command: one pass per target, or watch mode.
func runGenerate(cmd *cobra.Command, args []string) error {
	targets := cfg.WithArgs(args)
	if len(targets) == 0 {
		return cmd.Usage()
	}

	ctx := commandContext(cmd)
	if watchMode {
		return runWatch(ctx, cmd.OutOrStdout(), targets)
	}

	for _, t := range targets {
		res, err := newGenerator(t).Run(ctx)
		if err != nil {
			return err
		}
		if err := printSummary(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}
	return nil
}

// runWatch watches every target until SIGINT/SIGTERM.
func runWatch(ctx context.Context, out io.Writer, targets []config.Target) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var outMu sync.Mutex
	report := func(res *generator.Result, err error) {
		if err != nil {
			return
		}
		outMu.Lock()
		defer outMu.Unlock()
		_ = printSummary(out, res)
	}

	watchers := make([]*watch.Watcher, 0, len(targets))
	for _, t := range targets {
		w, err := watch.New(t.Input, newGenerator(t),
			watch.WithDebounce(cfg.GetWatchDebounce()),
			watch.WithLogger(logs.Get(logging.CategoryWatch)),
			watch.OnPass(report))
		if err != nil {
			for _, started := range watchers {
				started.Stop()
			}
			return err
		}
		watchers = append(watchers, w)
	}

	logs.Get(logging.CategoryWatch).Info("Watching for changes, press Ctrl+C to stop",
		zap.Int("targets", len(watchers)))

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range watchers {
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}

func newGenerator(t config.Target) *generator.Generator {
	return generator.New(afero.NewOsFs(), t.Input, t.OutputDir, logs.Get(logging.CategoryGenerate))
}

func printSummary(w io.Writer, res *generator.Result) error {
	return styles.RenderSummary(w, ui.Summary{
		Input:    res.Input,
		Files:    res.Files,
		Records:  res.Records,
		Skipped:  res.Skipped,
		Rejected: res.Rejected,
	})
}
