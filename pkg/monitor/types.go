// Package monitor keeps a token report current while a session runs.
//
// Every change to a watched file triggers a fresh calculation. Results are
// published on the Updates channel together with the change in total tokens
// since the previous successful run.
package monitor

import (
	"context"
	"time"

	"github.com/0xmhha/token-calculator/pkg/calculator"
)

// Runner performs one complete calculation.
type Runner interface {
	Run(ctx context.Context) (*calculator.Result, error)
}

// Config holds the configuration for the live monitor.
type Config struct {
	// Files are watched for changes. Usually the session log and the
	// initial-context document.
	Files []string

	// RefreshInterval re-runs the calculation periodically even when no
	// watched file changed, which picks up edits to files the session read.
	// Zero disables periodic runs.
	RefreshInterval time.Duration

	// BufferSize is the capacity of the updates channel. Default: 10.
	BufferSize int
}

// LiveMonitor provides continuously refreshed token accounting.
type LiveMonitor interface {
	// Start runs the first calculation, installs the file watches and
	// returns. Later calculations run in the background until ctx is done,
	// Stop or Close.
	Start(ctx context.Context) error

	// Stop stops the monitor gracefully. It may be started again.
	Stop() error

	// Latest returns the most recent successful result, or nil.
	Latest() *calculator.Result

	// Updates returns the channel of calculation results.
	// The channel is closed by Close.
	Updates() <-chan Update

	// Close stops the monitor and releases resources.
	Close() error
}

// Update represents one calculation.
type Update struct {
	// Timestamp of the update
	Timestamp time.Time

	// Result is nil when Err is set.
	Result *calculator.Result

	// Err is the calculation failure, such as a log file that does not exist yet.
	Err error

	// Delta is the change since the previous successful result.
	Delta DeltaStats

	// Cumulative is the change since the first successful result.
	Cumulative DeltaStats

	// Trigger is the path whose change caused the run. Empty for the
	// initial and periodic runs.
	Trigger string
}

// DeltaStats represents changes between two results.
type DeltaStats struct {
	// NewEvents is the change in applied events.
	NewEvents int

	UserInputTokens int
	FileReadTokens  int
	FileWriteTokens int
	TotalTokens     int
}
