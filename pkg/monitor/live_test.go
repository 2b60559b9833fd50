package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/token-calculator/pkg/aggregator"
	"github.com/0xmhha/token-calculator/pkg/calculator"
	"github.com/0xmhha/token-calculator/pkg/logger"
	"github.com/0xmhha/token-calculator/pkg/parser"
	"github.com/0xmhha/token-calculator/pkg/watcher"
)

// mockWatcher implements the watcher.Watcher interface for testing.
type mockWatcher struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	closed   bool
	paths    []string
	events   chan watcher.Event
	errors   chan error
	startErr error
}

func newMockWatcher() *mockWatcher {
	return &mockWatcher{
		events: make(chan watcher.Event, 10),
		errors: make(chan error, 10),
	}
}

func (m *mockWatcher) Start(ctx context.Context, paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	m.stopped = false
	m.paths = paths
	return nil
}

func (m *mockWatcher) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

func (m *mockWatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.events)
	close(m.errors)
	return nil
}

func (m *mockWatcher) Events() <-chan watcher.Event {
	return m.events
}

func (m *mockWatcher) Errors() <-chan error {
	return m.errors
}

func (m *mockWatcher) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *mockWatcher) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *mockWatcher) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.paths...)
}

// mockRunner returns queued results in order, repeating the last one.
type mockRunner struct {
	mu      sync.Mutex
	results []*calculator.Result
	errs    []error
	calls   int
}

func (m *mockRunner) Run(ctx context.Context) (*calculator.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	return m.results[i], m.errs[i]
}

func (m *mockRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newMockRunner() *mockRunner {
	return &mockRunner{}
}

func (m *mockRunner) Then(result *calculator.Result, err error) *mockRunner {
	m.results = append(m.results, result)
	m.errs = append(m.errs, err)
	return m
}

// Helper to create a result with the given events and token split.
func createResult(events, input, read, write int) *calculator.Result {
	return &calculator.Result{
		State: &aggregator.State{
			Totals: aggregator.Totals{
				UserInputTokens: input,
				FileReadTokens:  read,
				FileWriteTokens: write,
				TotalTokens:     input + read + write,
			},
		},
		Parse: parser.Stats{Lines: events, Events: events},
	}
}

func receive(t *testing.T, mon LiveMonitor) Update {
	t.Helper()
	select {
	case u := <-mon.Updates():
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func TestNew(t *testing.T) {
	log := logger.Noop()
	files := []string{"/p/logs/events.jsonl"}

	t.Run("creates monitor with defaults", func(t *testing.T) {
		mon, err := New(Config{Files: files}, newMockWatcher(), newMockRunner(), log)
		require.NoError(t, err)
		lm := mon.(*liveMonitor)
		assert.Equal(t, defaultBufferSize, cap(lm.updates))
		assert.Zero(t, lm.config.RefreshInterval)
	})

	t.Run("requires files", func(t *testing.T) {
		_, err := New(Config{}, newMockWatcher(), newMockRunner(), log)
		assert.ErrorIs(t, err, ErrNoFiles)
	})

	t.Run("requires watcher and runner", func(t *testing.T) {
		_, err := New(Config{Files: files}, nil, newMockRunner(), log)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		_, err = New(Config{Files: files}, newMockWatcher(), nil, log)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("rejects negative refresh interval", func(t *testing.T) {
		_, err := New(Config{Files: files, RefreshInterval: -time.Second}, newMockWatcher(), newMockRunner(), log)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestStart(t *testing.T) {
	log := logger.Noop()
	files := []string{"/p/logs/events.jsonl", "/p/claude.md"}

	t.Run("publishes initial result and watches files", func(t *testing.T) {
		w := newMockWatcher()
		r := newMockRunner().Then(createResult(3, 100, 200, 0), nil)

		mon, err := New(Config{Files: files}, w, r, log)
		require.NoError(t, err)
		defer mon.Close()

		require.NoError(t, mon.Start(context.Background()))

		assert.True(t, w.Started())
		assert.Equal(t, files, w.Paths())

		u := receive(t, mon)
		require.NoError(t, u.Err)
		assert.Equal(t, 300, u.Result.State.Totals.TotalTokens)
		assert.Equal(t, 300, u.Delta.TotalTokens)
		assert.Equal(t, 3, u.Delta.NewEvents)
		assert.Empty(t, u.Trigger)
		assert.Same(t, u.Result, mon.Latest())
	})

	t.Run("missing log is reported but watching continues", func(t *testing.T) {
		w := newMockWatcher()
		r := newMockRunner().Then(nil, calculator.ErrLogNotFound)

		mon, err := New(Config{Files: files}, w, r, log)
		require.NoError(t, err)
		defer mon.Close()

		require.NoError(t, mon.Start(context.Background()))
		assert.True(t, w.Started())

		u := receive(t, mon)
		assert.ErrorIs(t, u.Err, calculator.ErrLogNotFound)
		assert.Nil(t, u.Result)
		assert.Nil(t, mon.Latest())
	})

	t.Run("returns error when watcher fails", func(t *testing.T) {
		w := newMockWatcher()
		w.startErr = assert.AnError
		r := newMockRunner().Then(createResult(0, 0, 0, 0), nil)

		mon, err := New(Config{Files: files}, w, r, log)
		require.NoError(t, err)
		defer mon.Close()

		err = mon.Start(context.Background())
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to start watcher")

		assert.ErrorIs(t, mon.Stop(), ErrMonitorNotRunning)
	})

	t.Run("returns error when already running", func(t *testing.T) {
		r := newMockRunner().Then(createResult(0, 0, 0, 0), nil)
		mon, err := New(Config{Files: files}, newMockWatcher(), r, log)
		require.NoError(t, err)
		defer mon.Close()

		require.NoError(t, mon.Start(context.Background()))
		assert.ErrorIs(t, mon.Start(context.Background()), ErrMonitorRunning)
	})

	t.Run("returns error when closed", func(t *testing.T) {
		mon, err := New(Config{Files: files}, newMockWatcher(), newMockRunner(), log)
		require.NoError(t, err)

		require.NoError(t, mon.Close())
		assert.ErrorIs(t, mon.Start(context.Background()), ErrMonitorClosed)
	})
}

func TestFileChanges(t *testing.T) {
	log := logger.Noop()
	w := newMockWatcher()
	r := newMockRunner().
		Then(createResult(2, 100, 0, 0), nil).
		Then(createResult(4, 150, 400, 0), nil).
		Then(createResult(5, 150, 400, 80), nil)

	mon, err := New(Config{Files: []string{"/p/logs/events.jsonl"}}, w, r, log)
	require.NoError(t, err)
	defer mon.Close()

	require.NoError(t, mon.Start(context.Background()))
	receive(t, mon)

	w.events <- watcher.Event{Path: "/p/logs/events.jsonl", Op: watcher.OpWrite, Timestamp: time.Now()}
	u := receive(t, mon)
	require.NoError(t, u.Err)
	assert.Equal(t, "/p/logs/events.jsonl", u.Trigger)
	assert.Equal(t, DeltaStats{NewEvents: 2, UserInputTokens: 50, FileReadTokens: 400, TotalTokens: 450}, u.Delta)
	assert.Equal(t, 450, u.Cumulative.TotalTokens)

	w.events <- watcher.Event{Path: "/p/logs/events.jsonl", Op: watcher.OpWrite, Timestamp: time.Now()}
	u = receive(t, mon)
	assert.Equal(t, DeltaStats{NewEvents: 1, FileWriteTokens: 80, TotalTokens: 80}, u.Delta)
	assert.Equal(t, DeltaStats{NewEvents: 3, UserInputTokens: 50, FileReadTokens: 400, FileWriteTokens: 80, TotalTokens: 530}, u.Cumulative)
	assert.Equal(t, 3, r.Calls())
}

func TestFailedRunKeepsLatest(t *testing.T) {
	w := newMockWatcher()
	first := createResult(1, 10, 0, 0)
	r := newMockRunner().
		Then(first, nil).
		Then(nil, assert.AnError).
		Then(createResult(2, 30, 0, 0), nil)

	mon, err := New(Config{Files: []string{"/p/events.jsonl"}}, w, r, logger.Noop())
	require.NoError(t, err)
	defer mon.Close()

	require.NoError(t, mon.Start(context.Background()))
	receive(t, mon)

	w.events <- watcher.Event{Path: "/p/events.jsonl", Op: watcher.OpWrite}
	u := receive(t, mon)
	assert.ErrorIs(t, u.Err, assert.AnError)
	assert.Same(t, first, mon.Latest())

	w.events <- watcher.Event{Path: "/p/events.jsonl", Op: watcher.OpWrite}
	u = receive(t, mon)
	require.NoError(t, u.Err)
	assert.Equal(t, 20, u.Delta.TotalTokens)
}

func TestPeriodicUpdates(t *testing.T) {
	r := newMockRunner().Then(createResult(1, 10, 0, 0), nil)

	mon, err := New(Config{
		Files:           []string{"/p/events.jsonl"},
		RefreshInterval: 20 * time.Millisecond,
	}, newMockWatcher(), r, logger.Noop())
	require.NoError(t, err)
	defer mon.Close()

	require.NoError(t, mon.Start(context.Background()))
	receive(t, mon)

	u := receive(t, mon)
	assert.Empty(t, u.Trigger)
	require.NoError(t, u.Err)
	assert.Equal(t, 10, u.Result.State.Totals.TotalTokens)
	assert.Zero(t, u.Delta.TotalTokens)
	assert.Zero(t, u.Cumulative.TotalTokens)
}

func TestStop(t *testing.T) {
	log := logger.Noop()

	t.Run("stops running monitor", func(t *testing.T) {
		w := newMockWatcher()
		r := newMockRunner().Then(createResult(0, 0, 0, 0), nil)
		mon, err := New(Config{Files: []string{"/p/events.jsonl"}}, w, r, log)
		require.NoError(t, err)
		defer mon.Close()

		require.NoError(t, mon.Start(context.Background()))
		require.NoError(t, mon.Stop())
		assert.True(t, w.Stopped())
	})

	t.Run("returns error when not running", func(t *testing.T) {
		mon, err := New(Config{Files: []string{"/p/events.jsonl"}}, newMockWatcher(), newMockRunner(), log)
		require.NoError(t, err)
		defer mon.Close()

		assert.ErrorIs(t, mon.Stop(), ErrMonitorNotRunning)
	})

	t.Run("can restart after stop", func(t *testing.T) {
		r := newMockRunner().Then(createResult(0, 0, 0, 0), nil)
		mon, err := New(Config{Files: []string{"/p/events.jsonl"}}, newMockWatcher(), r, log)
		require.NoError(t, err)
		defer mon.Close()

		require.NoError(t, mon.Start(context.Background()))
		require.NoError(t, mon.Stop())
		require.NoError(t, mon.Start(context.Background()))
		assert.Equal(t, 2, r.Calls())
	})
}

func TestClose(t *testing.T) {
	w := newMockWatcher()
	r := newMockRunner().Then(createResult(0, 0, 0, 0), nil)
	mon, err := New(Config{Files: []string{"/p/events.jsonl"}}, w, r, logger.Noop())
	require.NoError(t, err)

	require.NoError(t, mon.Start(context.Background()))
	require.NoError(t, mon.Close())
	require.NoError(t, mon.Close())

	assert.ErrorIs(t, mon.Stop(), ErrMonitorClosed)

	// Drain the buffered initial update; the channel is then closed.
	for range mon.Updates() {
	}
}
