package report

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"golang.org/x/text/message"

	"github.com/0xmhha/token-calculator/pkg/aggregator"
	"github.com/0xmhha/token-calculator/pkg/calculator"
	"github.com/0xmhha/token-calculator/pkg/language"
)

const (
	separatorWidth = 50
	barWidth       = 30

	recentInputs  = 5
	recentFiles   = 10
	previewLength = 50
)

// textFormatter renders the human-readable report.
type textFormatter struct {
	config   Config
	messages *messages
	printer  *message.Printer
}

// Format implements Formatter.Format.
func (f *textFormatter) Format(w io.Writer, result *calculator.Result) error {
	var b strings.Builder
	m := f.messages
	state := result.State
	separator := strings.Repeat("=", separatorWidth)

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", separator)
	line("%s", m.title)
	line("%s", separator)

	if state.SessionID != "" {
		line("%s: %s", m.sessionID, state.SessionID)
		line("%s: %s", m.startTime, state.StartTime)
		line("")
	}

	t := state.Totals
	line("%s:", m.tokenUsageSummary)
	line("- %s:        %s %s", m.userInput, f.number(t.UserInputTokens), m.tokens)
	line("- %s:        %s %s", m.filesRead, f.number(t.FileReadTokens), m.tokens)
	line("- %s:     %s %s", m.filesWritten, f.number(t.FileWriteTokens), m.tokens)
	line("- %s:   %s %s", m.initialContext, f.number(t.ContextTokens), m.tokens)
	line("%s", strings.Repeat("-", 33))
	line("%s:        %s %s", m.totalTokens, f.number(t.TotalTokens), m.tokens)
	line("")

	usage := result.Usage
	line("%s:", m.contextWindowUsage)
	line("- %s%% %s %s %s", formatPercent(usage.Ratio), m.ofTokens, f.number(usage.WindowSize), m.tokens)
	line("  %s", progressBar(usage.Ratio))

	switch usage.Level {
	case aggregator.LevelWarning:
		line("")
		line("⚠️  %s %s%%!", m.warning, formatThreshold(result.Thresholds.Warning))
		line("   %s", m.warningMessage)
	case aggregator.LevelCaution:
		line("")
		line("📝 %s %s%%.", m.note, formatThreshold(result.Thresholds.Caution))
	}
	line("")

	primary := m.english
	if state.LanguageStats.PrimaryLanguage == language.Japanese {
		primary = m.japanese
	}
	line("%s:", m.languageDetection)
	line("- %s: %d%% %s%s%s", m.japaneseContent,
		int(math.Round(state.LanguageStats.JapaneseRatio*100)),
		m.calculatedAs, primary, m.calculatedAsSuffix)

	if f.config.Verbose {
		line("")
		f.writeBreakdown(line, state)
	}

	line("%s", separator)

	_, err := io.WriteString(w, b.String())
	return err
}

func (f *textFormatter) writeBreakdown(line func(string, ...any), state *aggregator.State) {
	m := f.messages
	line("%s:", m.detailedBreakdown)
	line("")

	if len(state.UserInputs) > 0 {
		line("%s:", m.userInputs)
		for i, input := range lo.Subset(state.UserInputs, -recentInputs, recentInputs) {
			line("  %d. %s... (%d %s)", i+1, preview(input.Text), input.Tokens, m.tokens)
		}
		line("")
	}

	if len(state.FilesRead) > 0 {
		line("%s:", m.filesReadList)
		for _, file := range recent(state.FilesRead) {
			name := filepath.Base(file.FilePath)
			if file.Estimated {
				line("  - %s: %d %s (%s)", name, file.Tokens, m.tokens, m.estimated)
				continue
			}
			line("  - %s: %d %s (%s, %s)", name, file.Tokens, m.tokens,
				humanize.IBytes(uint64(file.Size)), file.Language) // #nosec G115 -- sizes are never negative
		}
		line("")
	}

	if len(state.FilesWritten) > 0 {
		line("%s:", m.filesWrittenList)
		for _, file := range recent(state.FilesWritten) {
			line("  - %s: %d %s (%s)", filepath.Base(file.FilePath), file.Tokens, m.tokens,
				humanize.IBytes(uint64(file.Size))) // #nosec G115 -- sizes are never negative
		}
	}
}

func (f *textFormatter) number(n int) string {
	return formatNumber(f.printer, n)
}

// recent returns the last recentFiles distinct paths.
func recent(files []aggregator.FileAccess) []aggregator.FileAccess {
	return lo.Subset(aggregator.UniqueFiles(files), -recentFiles, recentFiles)
}

// preview shortens text to its first previewLength characters on one line.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return strings.ReplaceAll(string(runes), "\n", " ")
}

// progressBar draws ratio as barWidth cells.
func progressBar(ratio float64) string {
	filled := int(math.Round(ratio * barWidth))
	filled = max(0, min(filled, barWidth))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}
