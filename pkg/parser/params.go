package parser

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Key names an embedded field of a tool's parameter blob.
type Key string

// Keys extracted from tool parameters.
const (
	KeyFile  Key = "file"
	KeyURL   Key = "url"
	KeyQuery Key = "query"
)

var keyPatterns = map[Key]*regexp.Regexp{
	KeyFile:  regexp.MustCompile(`file:\s*(.+)`),
	KeyURL:   regexp.MustCompile(`url:\s*(.+)`),
	KeyQuery: regexp.MustCompile(`query:\s*(.+)`),
}

// objectFields lists, per key, the object fields consulted in order when the
// parameters are a JSON object rather than a text blob.
var objectFields = map[Key][]string{
	KeyFile:  {"file_path", "notebook_path", "file"},
	KeyURL:   {"url"},
	KeyQuery: {"query"},
}

// Parameters is the tool invocation payload. Hooks emit either a text blob of
// "key: value" lines or a JSON object; both shapes are supported.
type Parameters struct {
	text   string
	fields map[string]string
}

// TextParameters wraps a "key: value" text blob.
func TextParameters(text string) *Parameters {
	return &Parameters{text: text}
}

// ObjectParameters wraps structured parameters.
func ObjectParameters(fields map[string]string) *Parameters {
	return &Parameters{fields: fields}
}

func parametersFrom(r gjson.Result) *Parameters {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if !r.IsObject() {
		return TextParameters(r.String())
	}

	fields := make(map[string]string)
	r.ForEach(func(k, v gjson.Result) bool {
		fields[k.String()] = v.String()
		return true
	})
	return ObjectParameters(fields)
}

// Lookup returns the value for key.
//
// For text blobs this is the first "key: value" occurrence, value trimmed and
// running to the end of its line. A present but blank value is still a match.
func (p *Parameters) Lookup(key Key) (string, bool) {
	if p == nil {
		return "", false
	}

	if p.fields != nil {
		for _, field := range objectFields[key] {
			if v, ok := p.fields[field]; ok {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}

	re, ok := keyPatterns[key]
	if !ok {
		return "", false
	}
	m := re.FindStringSubmatch(p.text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// String returns the text blob, or "" for object parameters.
func (p *Parameters) String() string {
	if p == nil {
		return ""
	}
	return p.text
}
