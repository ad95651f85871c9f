package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"resgen/internal/generator"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

const waitFor = 5 * time.Second
const pollEvery = 20 * time.Millisecond

type countingRunner struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRunner) Run(ctx context.Context) (*generator.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return &generator.Result{RunID: "run"}, nil
}

func (r *countingRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func TestWatcher_RegeneratesOnChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	input := filepath.Join(dir, "resources.json")
	out := filepath.Join(dir, "out")
	writeFile(t, input, `[{"id": "a", "values": {"nb": "first"}}]`)

	gen := generator.New(afero.NewOsFs(), input, out, zap.NewNop())
	w, err := New(input, gen, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	bundlePath := filepath.Join(out, "resource.nb.json")
	assert.Contains(t, readFile(bundlePath), "first", "initial pass should run on start")
	assert.Equal(t, 1, w.GetStats().Passes)
	assert.True(t, w.IsWatching())

	writeFile(t, input, `[{"id": "a", "values": {"nb": "second", "en": "added"}}]`)

	require.Eventually(t, func() bool {
		return strings.Contains(readFile(filepath.Join(out, "resource.en.json")), "added") &&
			strings.Contains(readFile(bundlePath), "second")
	}, waitFor, pollEvery)

	stats := w.GetStats()
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.GreaterOrEqual(t, stats.Passes, 2)
}

func TestWatcher_MissingInputRecovers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	input := filepath.Join(dir, "resources.json")
	out := filepath.Join(dir, "out")

	var mu sync.Mutex
	var errs []error
	gen := generator.New(afero.NewOsFs(), input, out, zap.NewNop())
	w, err := New(input, gen, OnPass(func(_ *generator.Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	}))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	stats := w.GetStats()
	assert.Equal(t, 1, stats.Failures)
	assert.Contains(t, stats.LastError, "not found")

	writeFile(t, input, `[{"id": "a", "values": {"nb": "Hei"}}]`)

	require.Eventually(t, func() bool {
		return strings.Contains(readFile(filepath.Join(out, "resource.nb.json")), "Hei")
	}, waitFor, pollEvery)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, errs)
	assert.Error(t, errs[0])
}

func TestWatcher_FailedPassKeepsWatching(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	input := filepath.Join(dir, "resources.json")
	writeFile(t, input, `[]`)

	gen := generator.New(afero.NewOsFs(), input, filepath.Join(dir, "out"), zap.NewNop())
	w, err := New(input, gen)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, input, `{"not": "an array"}`)
	require.Eventually(t, func() bool {
		return w.GetStats().Failures > 0
	}, waitFor, pollEvery)
	assert.True(t, w.IsWatching())

	writeFile(t, input, `[{"id": "a", "values": {"en": "back"}}]`)
	require.Eventually(t, func() bool {
		return strings.Contains(readFile(filepath.Join(dir, "out", "resource.en.json")), "back")
	}, waitFor, pollEvery)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	input := filepath.Join(dir, "resources.json")
	writeFile(t, input, `[]`)

	runner := &countingRunner{}
	w, err := New(input, runner)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "unrelated.json"), `[]`)
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, 1, runner.Calls())
	assert.Equal(t, 0, w.GetStats().Events)
}

func TestWatcher_Debounce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	input := filepath.Join(dir, "resources.json")
	writeFile(t, input, `[]`)

	runner := &countingRunner{}
	w, err := New(input, runner, WithDebounce(300*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		writeFile(t, input, `[]`)
	}

	require.Eventually(t, func() bool {
		return runner.Calls() == 2
	}, waitFor, pollEvery)

	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, 2, runner.Calls(), "burst should collapse into a single pass")
	assert.GreaterOrEqual(t, w.GetStats().Events, 1)
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	input := filepath.Join(dir, "resources.json")
	writeFile(t, input, `[]`)

	runner := &countingRunner{}
	w, err := New(input, runner)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return runner.Calls() == 1 }, waitFor, pollEvery)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, w.IsWatching())

	// Stop after Run is a no-op.
	w.Stop()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := New(filepath.Join(t.TempDir(), "resources.json"), &countingRunner{})
	require.NoError(t, err)
	w.Stop()
	assert.False(t, w.IsWatching())
}
