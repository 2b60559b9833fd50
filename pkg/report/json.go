package report

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/token-calculator/pkg/aggregator"
	"github.com/0xmhha/token-calculator/pkg/calculator"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// jsonReport is the accounting state plus its context-window classification.
type jsonReport struct {
	*aggregator.State
	ContextWindowSize int              `json:"contextWindowSize"`
	UsageRatio        float64          `json:"usageRatio"`
	UsageLevel        aggregator.Level `json:"usageLevel"`
}

// Format implements Formatter.Format.
func (f *jsonFormatter) Format(w io.Writer, result *calculator.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(jsonReport{
		State:             result.State,
		ContextWindowSize: result.Usage.WindowSize,
		UsageRatio:        result.Usage.Ratio,
		UsageLevel:        result.Usage.Level,
	})
}
