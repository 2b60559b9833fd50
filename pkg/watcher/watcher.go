package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/token-calculator/pkg/discovery"
	"github.com/0xmhha/token-calculator/pkg/logger"
)

const (
	defaultDebounce         = 200 * time.Millisecond
	defaultBreakerThreshold = 5
	eventBuffer             = 16
	errorBuffer             = 10
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event
	errors chan error

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}
	files    map[string]bool

	// Debouncing state.
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// Circuit breaker state.
	failureCount int
}

// New creates a new file watcher.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = defaultDebounce
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = defaultBreakerThreshold
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	log.Debug("file watcher created", "debounce_interval", cfg.DebounceInterval)

	return &watcher{
		fsw:            fsw,
		logger:         log,
		config:         cfg,
		events:         make(chan Event, eventBuffer),
		errors:         make(chan error, errorBuffer),
		stopChan:       make(chan struct{}),
		files:          make(map[string]bool),
		debounceTimers: make(map[string]*time.Timer),
	}, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.running {
		return ErrAlreadyStarted
	}
	if len(files) == 0 {
		return ErrInvalidPath
	}

	dirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(discovery.ExpandHome(file))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPath, file, err)
		}

		dir := filepath.Dir(abs)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: directory %s does not exist", ErrInvalidPath, dir)
		}

		w.files[abs] = true
		dirs[dir] = true
	}

	for dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.running = true
	w.logger.Info("watcher started", "file_count", len(w.files))

	go w.processEvents(ctx, w.stopChan)
	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.stopChan = make(chan struct{})
	w.running = false

	w.logger.Info("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = nil
	w.debounceMu.Unlock()

	close(w.events)
	close(w.errors)

	if err := w.fsw.Close(); err != nil {
		w.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Debug("watcher closed")
	return nil
}

// processEvents handles events from fsnotify until ctx or stop ends it.
func (w *watcher) processEvents(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("event processing stopped", "reason", "context cancelled")
			return

		case <-stop:
			w.logger.Debug("event processing stopped", "reason", "stop signal")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent debounces events for watched files and drops the rest.
func (w *watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	w.mu.RLock()
	watched := w.files[path]
	w.mu.RUnlock()
	if !watched {
		return
	}

	var op Op
	switch {
	case event.Op.Has(fsnotify.Create):
		op = OpCreate
	case event.Op.Has(fsnotify.Write):
		op = OpWrite
	case event.Op.Has(fsnotify.Remove):
		op = OpRemove
	case event.Op.Has(fsnotify.Rename):
		op = OpRename
	case event.Op.Has(fsnotify.Chmod):
		// Permission changes never alter the log content.
		return
	default:
		w.logger.Debug("unknown fsnotify operation", "op", event.Op, "path", path)
		return
	}

	w.debounceEvent(Event{
		Path:      path,
		Op:        op,
		Timestamp: time.Now(),
	})
}

// debounceEvent restarts the quiet-period timer for event.Path.
func (w *watcher) debounceEvent(event Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimers == nil {
		return
	}
	if timer, exists := w.debounceTimers[event.Path]; exists {
		timer.Stop()
	}

	w.debounceTimers[event.Path] = time.AfterFunc(w.config.DebounceInterval, func() {
		w.debounceMu.Lock()
		if w.debounceTimers != nil {
			delete(w.debounceTimers, event.Path)
		}
		w.debounceMu.Unlock()

		w.emit(event)
	})
}

// emit delivers event unless the watcher is closed. A full channel drops
// the event: a consumer still holding a pending event will see the change.
func (w *watcher) emit(event Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}

	select {
	case w.events <- event:
	default:
		w.logger.Debug("event channel full, dropping event", "path", event.Path)
	}
}

// handleError reports fsnotify errors until the circuit breaker opens.
func (w *watcher) handleError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.failureCount++
	w.logger.Error("fsnotify error",
		"error", err,
		"failure_count", w.failureCount)

	if w.failureCount >= w.config.CircuitBreakerThreshold {
		w.logger.Error("circuit breaker opened",
			"threshold", w.config.CircuitBreakerThreshold)
		err = ErrCircuitBreakerOpen
	}

	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping error")
	}
}
