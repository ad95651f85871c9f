// Package watch re-runs generation passes when the source file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"resgen/internal/generator"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Runner executes one generation pass.
type Runner interface {
	Run(ctx context.Context) (*generator.Result, error)
}

// Watcher watches a single source file and runs a pass for every change.
// Passes run on the watcher's own event loop, one at a time.
type Watcher struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	runner   Runner
	input    string // cleaned absolute path of the watched file
	dir      string // directory holding the file, the actual watch target
	debounce time.Duration
	logger   *zap.Logger

	pending   bool
	lastEvent time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	onPass func(*generator.Result, error)

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Passes        int
	Failures      int
	LastRunID     string
	LastError     string
	LastPassAt    time.Time
	LastEventType string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce coalesces events arriving within d of each other into one
// pass. Zero (the default) runs a pass for every event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger. Nil keeps the no-op default.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// OnPass registers a callback invoked after every pass.
func OnPass(fn func(*generator.Result, error)) Option {
	return func(w *Watcher) { w.onPass = fn }
}

// New creates a watcher for input. The parent directory is watched so that
// editors replacing the file by rename are still noticed.
func New(input string, runner Runner, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", input, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		runner:  runner,
		input:   filepath.Clean(abs),
		dir:     filepath.Dir(abs),
		logger:  zap.NewNop(),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start runs an initial pass, then begins watching in a goroutine.
// A failing initial pass is logged, not returned: the file may appear later.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		_ = w.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching resource file", zap.String("input", w.input))

	w.runPass(ctx, "initial")

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit. A pass in
// progress finishes first.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Error closing file watcher", zap.Error(err))
	}
	w.logger.Info("Stopped watching", zap.String("input", w.input))
}

// Run starts the watcher and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-w.doneCh:
	}
	w.Stop()
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var tick <-chan time.Time
	if w.debounce > 0 {
		ticker := time.NewTicker(debounceTick(w.debounce))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-tick:
			w.processDebounced(ctx)
		}
	}
}

func debounceTick(d time.Duration) time.Duration {
	tick := d / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	return tick
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.input {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.logger.Warn("Resource file removed, waiting for it to reappear", zap.String("input", w.input))
		return
	default:
		return
	}

	w.logger.Debug("Resource file changed", zap.String("event", eventType))

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventType = eventType
	w.lastEvent = time.Now()
	debounce := w.debounce > 0
	if debounce {
		w.pending = true
	}
	w.mu.Unlock()

	if !debounce {
		w.runPass(ctx, eventType)
	}
}

func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	ready := w.pending && time.Since(w.lastEvent) >= w.debounce
	if ready {
		w.pending = false
	}
	w.mu.Unlock()

	if ready {
		w.runPass(ctx, "debounced")
	}
}

func (w *Watcher) runPass(ctx context.Context, trigger string) {
	res, err := w.runner.Run(ctx)

	w.mu.Lock()
	w.stats.Passes++
	w.stats.LastPassAt = time.Now()
	if err != nil {
		w.stats.Failures++
		w.stats.LastError = err.Error()
	} else {
		w.stats.LastError = ""
		w.stats.LastRunID = res.RunID
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Generation pass failed", zap.String("trigger", trigger), zap.Error(err))
	}
	if w.onPass != nil {
		w.onPass(res, err)
	}
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching returns true if the watcher is currently running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Input returns the watched file.
func (w *Watcher) Input() string {
	return w.input
}
