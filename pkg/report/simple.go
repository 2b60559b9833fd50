package report

import (
	"fmt"
	"io"

	"golang.org/x/text/message"

	"github.com/0xmhha/token-calculator/pkg/calculator"
)

// simpleFormatter formats output as a single line.
type simpleFormatter struct {
	config  Config
	printer *message.Printer
}

// Format implements Formatter.Format.
func (f *simpleFormatter) Format(w io.Writer, result *calculator.Result) error {
	t := result.State.Totals
	_, err := fmt.Fprintf(w, "Total: %s (%s%% of %s, %s) | Input: %s | Read: %s | Write: %s | Context: %s\n",
		formatNumber(f.printer, t.TotalTokens),
		formatPercent(result.Usage.Ratio),
		formatNumber(f.printer, result.Usage.WindowSize),
		result.Usage.Level,
		formatNumber(f.printer, t.UserInputTokens),
		formatNumber(f.printer, t.FileReadTokens),
		formatNumber(f.printer, t.FileWriteTokens),
		formatNumber(f.printer, t.ContextTokens))
	return err
}
