// Package calculator runs one token accounting pass over a session log.
//
// A run replays the whole log into a fresh aggregator, loads the
// initial-context document, finalizes, and measures the total against the
// context window. Runs share nothing but the estimator's file memo, so
// repeating a run over unchanged inputs yields an identical Result.
//
// Example usage:
//
//	calc, err := calculator.New(calculator.FromConfig(cfg, root, ""), log)
//	if err != nil {
//	    return err
//	}
//	result, err := calc.Run(ctx)
package calculator

import (
	"github.com/0xmhha/token-calculator/pkg/aggregator"
	"github.com/0xmhha/token-calculator/pkg/config"
	"github.com/0xmhha/token-calculator/pkg/estimator"
	"github.com/0xmhha/token-calculator/pkg/parser"
)

// Config contains everything one run needs.
type Config struct {
	// LogPath is the session event log. Required.
	LogPath string

	// InitialContextPath is the document loaded into every session.
	// Empty skips it.
	InitialContextPath string

	// JapaneseThreshold classifies text as Japanese at or above this ratio.
	JapaneseThreshold float64

	Estimator  estimator.Config
	Aggregator aggregator.Config

	// WindowSize and Thresholds classify the final total.
	WindowSize int
	Thresholds aggregator.Thresholds
}

// FromConfig builds a run configuration for the project at root. sessionID
// restricts accounting to one session; empty accounts for the whole log.
func FromConfig(cfg *config.Config, root, sessionID string) Config {
	return Config{
		LogPath:            cfg.LogPath(root),
		InitialContextPath: cfg.InitialContextPath(root),
		JapaneseThreshold:  cfg.LanguageDetection.JapaneseThreshold,
		Estimator: estimator.Config{
			CharsPerTokenJapanese: cfg.LanguageDetection.CharsPerToken.Japanese,
			CharsPerTokenEnglish:  cfg.LanguageDetection.CharsPerToken.English,
		},
		Aggregator: aggregator.Config{
			WebFetchTokens:  cfg.TokenEstimates.WebFetch.Tokens,
			WebSearchTokens: cfg.TokenEstimates.WebSearch.Tokens,
			SessionID:       sessionID,
		},
		WindowSize: cfg.ContextWindow.Size,
		Thresholds: aggregator.Thresholds{
			Warning: cfg.ContextWindow.WarningThreshold,
			Caution: cfg.ContextWindow.CautionThreshold,
		},
	}
}

// Result is the outcome of one run.
type Result struct {
	// State is the finalized accounting state.
	State *aggregator.State

	// Usage measures State.Totals.TotalTokens against the context window.
	Usage aggregator.Usage

	// Thresholds are the limits Usage was classified with.
	Thresholds aggregator.Thresholds

	// Parse counts lines read, events applied and lines skipped.
	Parse parser.Stats

	// LogPath is the log that was read.
	LogPath string
}
