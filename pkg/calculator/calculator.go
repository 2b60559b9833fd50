package calculator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/0xmhha/token-calculator/pkg/aggregator"
	"github.com/0xmhha/token-calculator/pkg/estimator"
	"github.com/0xmhha/token-calculator/pkg/language"
	"github.com/0xmhha/token-calculator/pkg/logger"
	"github.com/0xmhha/token-calculator/pkg/parser"
)

// Calculator runs accounting passes. It is safe to call Run from one
// goroutine at a time.
type Calculator struct {
	config    Config
	parser    parser.Parser
	estimator *estimator.Estimator
	logger    logger.Logger
}

// New creates a calculator.
func New(cfg Config, log logger.Logger) (*Calculator, error) {
	if cfg.LogPath == "" {
		return nil, ErrNoLogPath
	}

	est, err := estimator.New(language.NewDetector(cfg.JapaneseThreshold), cfg.Estimator, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create estimator: %w", err)
	}

	return &Calculator{
		config:    cfg,
		parser:    parser.New(log),
		estimator: est,
		logger:    log.With("log", cfg.LogPath),
	}, nil
}

// Run replays the log into a fresh state and returns the finalized result.
//
// A missing log is reported as ErrLogNotFound. Malformed lines and
// unreadable files named by events are not errors.
func (c *Calculator) Run(ctx context.Context) (*Result, error) {
	if _, err := os.Stat(c.config.LogPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLogNotFound, c.config.LogPath)
		}
		return nil, fmt.Errorf("failed to stat log: %w", err)
	}

	agg := aggregator.New(c.config.Aggregator, c.estimator, c.logger)

	stats, err := c.parser.Stream(ctx, c.config.LogPath, agg.Apply)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	if stats.Skipped > 0 {
		c.logger.Warn("skipped invalid log lines", "skipped", stats.Skipped, "lines", stats.Lines)
	}

	if err := agg.LoadInitialContext(c.config.InitialContextPath); err != nil {
		return nil, fmt.Errorf("failed to load initial context: %w", err)
	}

	state, err := agg.Finalize()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("calculation complete",
		"events", stats.Events,
		"total_tokens", state.Totals.TotalTokens)

	return &Result{
		State:      state,
		Usage:      aggregator.ComputeUsage(state.Totals.TotalTokens, c.config.WindowSize, c.config.Thresholds),
		Thresholds: c.config.Thresholds,
		Parse:      stats,
		LogPath:    c.config.LogPath,
	}, nil
}
