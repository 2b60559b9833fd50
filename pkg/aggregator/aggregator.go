package aggregator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/0xmhha/token-calculator/pkg/estimator"
	"github.com/0xmhha/token-calculator/pkg/language"
	"github.com/0xmhha/token-calculator/pkg/logger"
	"github.com/0xmhha/token-calculator/pkg/parser"
)

// Aggregator applies events to a State.
//
// It has a single writer and no locking: Apply, LoadInitialContext and
// Finalize must be called from one goroutine.
type Aggregator struct {
	config    Config
	estimator *estimator.Estimator
	logger    logger.Logger

	state         *State
	activeSession string
	contextLoaded bool
	finalized     bool
}

// New creates an aggregator with a fresh State.
func New(cfg Config, est *estimator.Estimator, log logger.Logger) *Aggregator {
	return &Aggregator{
		config:    cfg,
		estimator: est,
		logger:    log,
		state:     newState(),
	}
}

// State returns the state being accumulated.
func (a *Aggregator) State() *State {
	return a.state
}

// Apply folds one event into the state. Every side effect of ev, including
// file reads, is complete when Apply returns.
func (a *Aggregator) Apply(ev parser.Event) error {
	if a.finalized {
		return ErrFinalized
	}
	if !a.inScope(ev) {
		return nil
	}

	switch ev.Kind {
	case parser.KindSessionStart:
		a.state.SessionID = ev.SessionID
		a.state.StartTime = ev.Timestamp
	case parser.KindUserPromptSubmit:
		a.applyUserInput(ev)
	case parser.KindPostToolUse:
		a.applyToolUse(ev)
	default:
		a.logger.Debug("ignoring event", "event_type", ev.Type)
	}
	return nil
}

// inScope implements the session filter. SessionStart events switch the
// active session before the check, so a matching SessionStart is in scope.
func (a *Aggregator) inScope(ev parser.Event) bool {
	if a.config.SessionID == "" {
		return true
	}
	if ev.Kind == parser.KindSessionStart {
		a.activeSession = ev.SessionID
	}
	return a.activeSession == a.config.SessionID
}

func (a *Aggregator) applyUserInput(ev parser.Event) {
	tokens := a.estimator.Estimate(ev.UserInput)
	a.state.UserInputs = append(a.state.UserInputs, UserInput{
		Timestamp: ev.Timestamp,
		Text:      ev.UserInput,
		Tokens:    tokens,
	})
	a.state.Totals.UserInputTokens += tokens
}

func (a *Aggregator) applyToolUse(ev parser.Event) {
	if ev.Parameters == nil {
		a.logger.Debug("tool use without parameters", "tool", ev.ToolName)
		return
	}

	switch {
	case ev.Tool == parser.ToolRead:
		if access, ok := a.fileAccess(ev); ok {
			a.state.FilesRead = append(a.state.FilesRead, access)
			a.state.Totals.FileReadTokens += access.Tokens
		}
	case ev.Tool.Writes():
		if access, ok := a.fileAccess(ev); ok {
			a.state.FilesWritten = append(a.state.FilesWritten, access)
			a.state.Totals.FileWriteTokens += access.Tokens
		}
	case ev.Tool == parser.ToolWebFetch:
		a.applyFixedCost(ev, a.config.WebFetchTokens, parser.KeyURL, "", LanguageWeb)
	case ev.Tool == parser.ToolWebSearch:
		a.applyFixedCost(ev, a.config.WebSearchTokens, parser.KeyQuery, SearchPrefix, LanguageSearch)
	default:
		a.logger.Debug("ignoring tool", "tool", ev.ToolName)
	}
}

// fileAccess resolves the file named by the event's "file" parameter.
func (a *Aggregator) fileAccess(ev parser.Event) (FileAccess, bool) {
	path, ok := ev.Parameters.Lookup(parser.KeyFile)
	if !ok {
		return FileAccess{}, false
	}

	stats := a.estimator.EstimateFile(path)
	return FileAccess{
		Timestamp:     ev.Timestamp,
		FilePath:      path,
		Tokens:        stats.Tokens,
		Size:          stats.Size,
		Language:      stats.Language,
		JapaneseRatio: stats.JapaneseRatio,
	}, true
}

// applyFixedCost charges cost on every invocation; the descriptor entry is
// informational and only recorded when key is present.
func (a *Aggregator) applyFixedCost(ev parser.Event, cost int, key parser.Key, prefix string, tag language.Tag) {
	a.state.Totals.FileReadTokens += cost

	value, ok := ev.Parameters.Lookup(key)
	if !ok {
		return
	}
	a.state.FilesRead = append(a.state.FilesRead, FileAccess{
		Timestamp: ev.Timestamp,
		FilePath:  prefix + value,
		Tokens:    cost,
		Language:  tag,
		Estimated: true,
	})
}

// LoadInitialContext estimates the document at path and records it as the
// session's initial context. A missing document leaves ContextTokens at 0.
func (a *Aggregator) LoadInitialContext(path string) error {
	if a.finalized {
		return ErrFinalized
	}
	if a.contextLoaded {
		return ErrContextLoaded
	}
	a.contextLoaded = true

	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			a.logger.Debug("no initial context document", "path", path)
			return nil
		}
		a.logger.Warn("failed to stat initial context", "path", path, "error", err)
		return nil
	}

	stats := a.estimator.EstimateFile(path)
	a.state.InitialContext = &InitialContext{
		FilePath:      path,
		Tokens:        stats.Tokens,
		Size:          stats.Size,
		Language:      stats.Language,
		JapaneseRatio: stats.JapaneseRatio,
	}
	a.state.Totals.ContextTokens = stats.Tokens
	return nil
}

// Finalize computes TotalTokens and the session language mix. It may be
// called once; the returned State must not be modified afterwards.
func (a *Aggregator) Finalize() (*State, error) {
	if a.finalized {
		return nil, fmt.Errorf("finalize: %w", ErrFinalized)
	}
	a.finalized = true

	t := &a.state.Totals
	t.TotalTokens = t.UserInputTokens + t.FileReadTokens + t.FileWriteTokens + t.ContextTokens

	a.state.LanguageStats = a.languageStats()
	return a.state, nil
}

// languageStats is the length-weighted Japanese ratio over user inputs only.
func (a *Aggregator) languageStats() LanguageStats {
	detector := a.estimator.Detector()

	var japanese, total float64
	for _, input := range a.state.UserInputs {
		length := float64(language.Length(input.Text))
		japanese += length * detector.Detect(input.Text).Ratio
		total += length
	}

	if total == 0 {
		return LanguageStats{PrimaryLanguage: language.English}
	}

	ratio := japanese / total
	return LanguageStats{
		JapaneseRatio:   ratio,
		PrimaryLanguage: detector.TagFor(ratio),
	}
}
