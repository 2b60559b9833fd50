// Package parser reads the session event log.
//
// The log is newline-delimited JSON: one event per line, in the order the
// events happened. Lines that are not JSON objects are reported and skipped;
// they never abort a scan.
//
// Example usage:
//
//	p := parser.New(logger.Default())
//	stats, err := p.Stream(ctx, "logs/events.jsonl", func(ev parser.Event) error {
//	    agg.Apply(ev)
//	    return nil
//	})
package parser

// Kind is the closed set of event types the calculator understands.
type Kind int

const (
	// KindUnknown is any event type not listed below. Applying it is a no-op.
	KindUnknown Kind = iota
	KindSessionStart
	KindUserPromptSubmit
	KindPostToolUse
)

// String returns the event_type spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindSessionStart:
		return "SessionStart"
	case KindUserPromptSubmit:
		return "UserPromptSubmit"
	case KindPostToolUse:
		return "PostToolUse"
	default:
		return "Unknown"
	}
}

// ParseKind maps an event_type value to a Kind.
func ParseKind(s string) Kind {
	switch s {
	case "SessionStart":
		return KindSessionStart
	case "UserPromptSubmit":
		return KindUserPromptSubmit
	case "PostToolUse":
		return KindPostToolUse
	default:
		return KindUnknown
	}
}

// Tool is the closed set of tool names that contribute to token totals.
type Tool int

const (
	// ToolUnknown is any tool not listed below. Applying it is a no-op.
	ToolUnknown Tool = iota
	ToolRead
	ToolWrite
	ToolEdit
	ToolMultiEdit
	ToolNotebookEdit
	ToolWebFetch
	ToolWebSearch
)

var toolNames = map[string]Tool{
	"Read":         ToolRead,
	"Write":        ToolWrite,
	"Edit":         ToolEdit,
	"MultiEdit":    ToolMultiEdit,
	"NotebookEdit": ToolNotebookEdit,
	"WebFetch":     ToolWebFetch,
	"WebSearch":    ToolWebSearch,
}

// ParseTool maps a tool_name value to a Tool.
func ParseTool(name string) Tool {
	return toolNames[name]
}

// Writes reports whether the tool modifies a file.
func (t Tool) Writes() bool {
	switch t {
	case ToolWrite, ToolEdit, ToolMultiEdit, ToolNotebookEdit:
		return true
	default:
		return false
	}
}

// Event is one parsed log line.
//
// Invariant: Parameters is nil when data.parameters is absent or null.
type Event struct {
	Kind Kind

	// Type is the raw event_type value.
	Type string

	// Timestamp is kept verbatim; it is never reparsed.
	Timestamp string

	// SessionID is set on SessionStart events.
	SessionID string

	// UserInput is data.user_input, empty when absent.
	UserInput string

	// ToolName is the raw data.tool_name value.
	ToolName string

	Tool Tool

	Parameters *Parameters
}

// Stats summarizes one scan over a log.
type Stats struct {
	// Lines is the number of non-blank lines read.
	Lines int

	// Events is the number of lines handed to the callback.
	Events int

	// Skipped is the number of lines that failed to parse.
	Skipped int
}
