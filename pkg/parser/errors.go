package parser

import (
	"errors"
	"fmt"
)

// Common errors returned by the parser package.
var (
	// ErrMalformedJSON is returned when a log line is not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON line")

	// ErrNotObject is returned when a log line is valid JSON but not an object.
	ErrNotObject = errors.New("event is not a JSON object")
)

// maxErrorData bounds how much of a bad line is echoed back.
const maxErrorData = 100

// ParseError provides context about a parsing failure.
type ParseError struct {
	Line int    // Line number where error occurred (1-indexed)
	Data string // The malformed line (truncated if too long)
	Err  error  // Underlying error
}

func (e *ParseError) Error() string {
	data := e.Data
	if len(data) > maxErrorData {
		data = data[:maxErrorData] + "..."
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s: %v", e.Line, data, e.Err)
	}
	return fmt.Sprintf("parse error: %s: %v", data, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
