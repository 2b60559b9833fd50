package parser

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/0xmhha/token-calculator/pkg/logger"
)

// readBufferSize is the initial bufio buffer; lines longer than this are
// still read in full.
const readBufferSize = 64 * 1024

// Parser parses session event logs.
type Parser interface {
	// ParseLine parses one log line into an Event.
	//
	// Returns ErrMalformedJSON or ErrNotObject (wrapped) when the line is not
	// a JSON object. Unknown event types and tools are not errors.
	ParseLine(line []byte) (*Event, error)

	// Stream reads the log at path line by line and calls fn for every
	// parsed event, in file order. fn returns before the next line is read.
	//
	// Malformed lines are logged and skipped. Errors opening or reading the
	// file, errors returned by fn, and context cancellation end the scan.
	Stream(ctx context.Context, path string, fn func(Event) error) (Stats, error)

	// StreamReader is Stream over an already open reader.
	StreamReader(ctx context.Context, r io.Reader, fn func(Event) error) (Stats, error)
}

type jsonlParser struct {
	logger logger.Logger
}

// New creates a new Parser.
func New(log logger.Logger) Parser {
	return &jsonlParser{logger: log}
}

func (p *jsonlParser) ParseLine(line []byte) (*Event, error) {
	if !gjson.ValidBytes(line) {
		return nil, ErrMalformedJSON
	}

	doc := gjson.ParseBytes(line)
	if !doc.IsObject() {
		return nil, ErrNotObject
	}

	rawType := doc.Get("event_type").String()
	ev := &Event{
		Kind:      ParseKind(rawType),
		Type:      rawType,
		Timestamp: doc.Get("timestamp").String(),
		SessionID: doc.Get("session_id").String(),
	}

	data := doc.Get("data")
	if data.IsObject() {
		ev.UserInput = data.Get("user_input").String()
		ev.ToolName = data.Get("tool_name").String()
		ev.Tool = ParseTool(ev.ToolName)
		ev.Parameters = parametersFrom(data.Get("parameters"))
	}

	return ev, nil
}

func (p *jsonlParser) Stream(ctx context.Context, path string, fn func(Event) error) (Stats, error) {
	// #nosec G304: path is the log chosen by the operator
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			p.logger.Warn("failed to close log", "path", path, "error", closeErr)
		}
	}()

	return p.StreamReader(ctx, f, fn)
}

func (p *jsonlParser) StreamReader(ctx context.Context, r io.Reader, fn func(Event) error) (Stats, error) {
	var stats Stats
	br := bufio.NewReaderSize(r, readBufferSize)

	lineNum := 0
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		raw, readErr := br.ReadBytes('\n')
		if len(raw) > 0 {
			lineNum++
			if err := p.handleLine(lineNum, raw, &stats, fn); err != nil {
				return stats, err
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("read error at line %d: %w", lineNum, readErr)
		}
	}
}

func (p *jsonlParser) handleLine(lineNum int, raw []byte, stats *Stats, fn func(Event) error) error {
	line := bytes.TrimRight(raw, "\r\n")
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}
	stats.Lines++

	ev, err := p.ParseLine(line)
	if err != nil {
		stats.Skipped++
		p.logger.Warn("skipping invalid log line",
			"error", &ParseError{Line: lineNum, Data: string(line), Err: err})
		return nil
	}

	stats.Events++
	return fn(*ev)
}
