// Package report renders calculation results.
//
// It supports a human-readable text report in English or Japanese, a JSON
// document of the full accounting state, and a one-line summary for watch
// mode. Renderers never modify the result they are given.
package report

import (
	"io"

	"github.com/0xmhha/token-calculator/pkg/calculator"
)

// Format represents an output format.
type Format string

const (
	// FormatText renders the full report.
	FormatText Format = "text"

	// FormatJSON renders the accounting state as JSON.
	FormatJSON Format = "json"

	// FormatSimple renders a one-line summary.
	FormatSimple Format = "simple"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatSimple:
		return f, nil
	default:
		return "", ErrUnknownFormat
	}
}

// Formatter formats a calculation result.
type Formatter interface {
	// Format writes result to w.
	//
	// Returns error if writing fails.
	Format(w io.Writer, result *calculator.Result) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatText.
	Format Format

	// Language selects the message table (en, ja).
	// Default: en.
	Language string

	// Verbose adds the per-input and per-file breakdown to the text report.
	Verbose bool
}
