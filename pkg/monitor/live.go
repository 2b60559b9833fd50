package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/0xmhha/token-calculator/pkg/calculator"
	"github.com/0xmhha/token-calculator/pkg/logger"
	"github.com/0xmhha/token-calculator/pkg/watcher"
)

const defaultBufferSize = 10

// liveMonitor implements the LiveMonitor interface.
type liveMonitor struct {
	config  Config
	logger  logger.Logger
	watcher watcher.Watcher
	runner  Runner

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}

	// runMu serializes calculations; a Runner is not safe for concurrent use.
	runMu sync.Mutex

	first  *calculator.Result
	latest *calculator.Result

	// Update channel for consumers
	updates chan Update
}

// New creates a new live monitor.
//
// Parameters:
//   - cfg: Monitor configuration
//   - w: File watcher
//   - r: Calculation runner
//   - log: Logger instance
//
// Returns:
//   - Configured LiveMonitor
//   - Error if configuration is invalid
func New(cfg Config, w watcher.Watcher, r Runner, log logger.Logger) (LiveMonitor, error) {
	if w == nil || r == nil {
		return nil, ErrInvalidConfig
	}
	if len(cfg.Files) == 0 {
		return nil, ErrNoFiles
	}
	if cfg.RefreshInterval < 0 {
		return nil, fmt.Errorf("%w: negative refresh interval", ErrInvalidConfig)
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if log == nil {
		log = logger.Noop()
	}

	m := &liveMonitor{
		config:   cfg,
		logger:   log,
		watcher:  w,
		runner:   r,
		stopChan: make(chan struct{}),
		updates:  make(chan Update, cfg.BufferSize),
	}

	log.Debug("live monitor created",
		"files", cfg.Files,
		"refresh_interval", cfg.RefreshInterval)

	return m, nil
}

// Start implements LiveMonitor.Start.
func (m *liveMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMonitorClosed
	}
	if m.running {
		m.mu.Unlock()
		return ErrMonitorRunning
	}
	m.running = true
	m.stopChan = make(chan struct{})
	stop := m.stopChan
	m.mu.Unlock()

	m.refresh(ctx, "")

	if err := m.watcher.Start(ctx, m.config.Files); err != nil {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	go m.processEvents(ctx, stop)

	if m.config.RefreshInterval > 0 {
		go m.periodicUpdates(ctx, stop)
	}

	m.logger.Info("live monitor started", "files", len(m.config.Files))
	return nil
}

// Stop implements LiveMonitor.Stop.
func (m *liveMonitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrMonitorClosed
	}
	if !m.running {
		return ErrMonitorNotRunning
	}

	close(m.stopChan)
	m.running = false

	if err := m.watcher.Stop(); err != nil {
		m.logger.Warn("failed to stop watcher", "error", err)
	}

	m.logger.Info("live monitor stopped")
	return nil
}

// Latest implements LiveMonitor.Latest.
func (m *liveMonitor) Latest() *calculator.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.latest
}

// Updates returns a channel for receiving live updates.
func (m *liveMonitor) Updates() <-chan Update {
	return m.updates
}

// processEvents handles file change events from the watcher.
func (m *liveMonitor) processEvents(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-stop:
			return

		case event, ok := <-m.watcher.Events():
			if !ok {
				m.logger.Debug("watcher events channel closed")
				return
			}

			m.logger.Debug("file change detected",
				"path", event.Path,
				"op", event.Op)
			m.refresh(ctx, event.Path)

		case err, ok := <-m.watcher.Errors():
			if !ok {
				m.logger.Debug("watcher errors channel closed")
				return
			}

			m.logger.Error("watcher error", "error", err)
		}
	}
}

// periodicUpdates re-runs the calculation even if no watched file changed.
func (m *liveMonitor) periodicUpdates(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(m.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-stop:
			return

		case <-ticker.C:
			m.refresh(ctx, "")
		}
	}
}

// refresh runs one calculation and publishes its outcome.
func (m *liveMonitor) refresh(ctx context.Context, trigger string) {
	m.runMu.Lock()
	result, err := m.runner.Run(ctx)
	m.runMu.Unlock()

	update := Update{
		Timestamp: time.Now(),
		Trigger:   trigger,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.logger.Warn("calculation failed", "trigger", trigger, "error", err)
		update.Err = err
	} else {
		if m.first == nil {
			m.first = result
		}
		update.Result = result
		update.Delta = delta(m.latest, result)
		update.Cumulative = delta(m.first, result)
		m.latest = result
	}

	m.sendUpdate(update)
}

// sendUpdate publishes an update without blocking. The caller holds m.mu.
func (m *liveMonitor) sendUpdate(update Update) {
	if m.closed {
		return
	}

	select {
	case m.updates <- update:
	default:
		m.logger.Warn("updates channel full, dropping update")
	}
}

// delta computes the change from prev to cur. A nil prev counts as empty.
func delta(prev, cur *calculator.Result) DeltaStats {
	d := DeltaStats{
		NewEvents:       cur.Parse.Events,
		UserInputTokens: cur.State.Totals.UserInputTokens,
		FileReadTokens:  cur.State.Totals.FileReadTokens,
		FileWriteTokens: cur.State.Totals.FileWriteTokens,
		TotalTokens:     cur.State.Totals.TotalTokens,
	}
	if prev == nil {
		return d
	}

	d.NewEvents -= prev.Parse.Events
	d.UserInputTokens -= prev.State.Totals.UserInputTokens
	d.FileReadTokens -= prev.State.Totals.FileReadTokens
	d.FileWriteTokens -= prev.State.Totals.FileWriteTokens
	d.TotalTokens -= prev.State.Totals.TotalTokens
	return d
}

// Close closes the monitor and releases resources.
func (m *liveMonitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	if m.running {
		close(m.stopChan)
		m.running = false
	}

	close(m.updates)

	if err := m.watcher.Close(); err != nil {
		m.logger.Warn("failed to close watcher", "error", err)
	}

	m.logger.Info("live monitor closed")
	return nil
}
