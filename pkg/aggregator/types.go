// Package aggregator folds a session event stream into token totals.
//
// One Aggregator owns one State for one run: events are applied strictly in
// log order, the initial-context document is loaded once, and Finalize
// derives the grand total and the session language mix. After Finalize the
// State is read-only input for reporting.
//
// Example usage:
//
//	agg := aggregator.New(aggregator.Config{
//	    WebFetchTokens:  2500,
//	    WebSearchTokens: 1750,
//	}, est, log)
//
//	for _, ev := range events {
//	    if err := agg.Apply(ev); err != nil {
//	        return err
//	    }
//	}
//	agg.LoadInitialContext("claude.md")
//	state, err := agg.Finalize()
package aggregator

import (
	"github.com/0xmhha/token-calculator/pkg/language"
)

// Labels recorded for fixed-cost web tool entries.
const (
	LanguageWeb    language.Tag = "web"
	LanguageSearch language.Tag = "search"

	// SearchPrefix labels WebSearch queries in FilesRead.
	SearchPrefix = "Search: "
)

// Default fixed costs for web tools.
const (
	DefaultWebFetchTokens  = 2500
	DefaultWebSearchTokens = 1750
)

// UserInput is one submitted prompt.
type UserInput struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	Tokens    int    `json:"tokens"`
}

// FileAccess is one read or write of a file, or one web tool invocation.
//
// Estimated is true for entries whose Tokens is a configured constant
// (WebFetch, WebSearch) rather than measured content.
type FileAccess struct {
	Timestamp     string       `json:"timestamp"`
	FilePath      string       `json:"filePath"`
	Tokens        int          `json:"tokens"`
	Size          int64        `json:"size"`
	Language      language.Tag `json:"language"`
	JapaneseRatio *float64     `json:"japaneseRatio,omitempty"`
	Estimated     bool         `json:"estimated,omitempty"`
}

// InitialContext describes the document loaded into every session up front.
type InitialContext struct {
	FilePath      string       `json:"filePath"`
	Tokens        int          `json:"tokens"`
	Size          int64        `json:"size"`
	Language      language.Tag `json:"language"`
	JapaneseRatio *float64     `json:"japaneseRatio,omitempty"`
}

// Totals holds the running token sums.
//
// Invariant: TotalTokens is zero until Finalize, then equals the sum of the
// other four fields.
type Totals struct {
	UserInputTokens int `json:"userInputTokens"`
	FileReadTokens  int `json:"fileReadTokens"`
	FileWriteTokens int `json:"fileWriteTokens"`
	ContextTokens   int `json:"contextTokens"`
	TotalTokens     int `json:"totalTokens"`
}

// LanguageStats is the session-level language mix of user inputs.
type LanguageStats struct {
	JapaneseRatio   float64      `json:"japaneseRatio"`
	PrimaryLanguage language.Tag `json:"primaryLanguage"`
}

// State is the accounting state of one run.
//
// Invariant: UserInputs, FilesRead and FilesWritten are append-only and in
// event order; repeated paths are kept as separate entries.
type State struct {
	SessionID      string          `json:"sessionId"`
	StartTime      string          `json:"startTime"`
	UserInputs     []UserInput     `json:"userInputs"`
	FilesRead      []FileAccess    `json:"filesRead"`
	FilesWritten   []FileAccess    `json:"filesWritten"`
	InitialContext *InitialContext `json:"initialContext"`
	Totals         Totals          `json:"totals"`
	LanguageStats  LanguageStats   `json:"languageStats"`
}

// newState returns an empty state with non-nil sequences.
func newState() *State {
	return &State{
		UserInputs:   make([]UserInput, 0),
		FilesRead:    make([]FileAccess, 0),
		FilesWritten: make([]FileAccess, 0),
		LanguageStats: LanguageStats{
			PrimaryLanguage: language.English,
		},
	}
}

// Config contains aggregator configuration.
type Config struct {
	// WebFetchTokens is charged to FileReadTokens per WebFetch call.
	WebFetchTokens int

	// WebSearchTokens is charged to FileReadTokens per WebSearch call.
	WebSearchTokens int

	// SessionID restricts accounting to events recorded after a SessionStart
	// carrying this id. Empty means every event counts.
	SessionID string
}
