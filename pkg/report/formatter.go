package report

import (
	"math"
	"strconv"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/message"
)

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatText
	}
	msgs := messagesFor(cfg.Language)
	printer := message.NewPrinter(printerTag(cfg.Language))

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg, printer: printer}
	case FormatText:
		fallthrough
	default:
		return &textFormatter{config: cfg, messages: msgs, printer: printer}
	}
}

func printerTag(lang string) xlanguage.Tag {
	if lang == "ja" {
		return xlanguage.Japanese
	}
	return xlanguage.English
}

// formatNumber formats an integer with the locale's digit grouping.
func formatNumber(p *message.Printer, n int) string {
	return p.Sprintf("%d", n)
}

// formatPercent renders a ratio as a percentage with one decimal.
func formatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64)
}

// formatThreshold renders a threshold ratio as a short percentage: 0.8 -> 80.
func formatThreshold(ratio float64) string {
	return strconv.FormatFloat(math.Round(ratio*10000)/100, 'f', -1, 64)
}
