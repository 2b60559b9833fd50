// Package watcher provides real-time file monitoring.
//
// It uses fsnotify to watch individual files, such as the session event log,
// and debounces bursts of writes into a single event. Files are watched
// through their parent directory, so a log that is created or replaced after
// Start is still picked up.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 200 * time.Millisecond,
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"logs/events.jsonl"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("File %s: %s\n", event.Path, event.Op)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
	OpChmod                 // File permissions changed
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Event represents a change to a watched file.
type Event struct {
	// Path is the absolute path of the watched file.
	Path string

	// Op is the last operation seen within the debounce interval.
	Op Op

	// Timestamp is when the operation was seen.
	Timestamp time.Time
}

// Watcher provides file monitoring.
type Watcher interface {
	// Start begins watching the given files and returns once the watches
	// are installed. Events are delivered until ctx is done, Stop or Close.
	//
	// Every file's parent directory must exist; the file itself may not.
	Start(ctx context.Context, files []string) error

	// Stop stops event processing.
	Stop() error

	// Events returns the channel of debounced file events.
	// The channel is closed by Close.
	Events() <-chan Event

	// Errors returns the channel of non-fatal watcher errors.
	// The channel is closed by Close.
	Errors() <-chan error

	// Close closes the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the quiet time required before an event is emitted.
	// Events for the same file within this interval are coalesced.
	// Default: 200ms.
	DebounceInterval time.Duration

	// CircuitBreakerThreshold is the number of fsnotify errors after which
	// ErrCircuitBreakerOpen is reported instead of individual errors.
	// Default: 5.
	CircuitBreakerThreshold int
}
