package output

import (
	"encoding/json"

	"github.com/dl/gosearch"
)

// JSONFormatter formats records as JSON Lines, one object per record.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// jsonRecord is the serialization format shared by all record types.
type jsonRecord struct {
	Type    string    `json:"type"`
	File    string    `json:"file,omitempty"`
	Kind    string    `json:"kind,omitempty"`
	LineNum uint64    `json:"line_number,omitempty"`
	Column  int       `json:"column,omitempty"`
	Text    string    `json:"text,omitempty"`
	Matches []jsonPos `json:"matches,omitempty"`
	Count   *uint64   `json:"count,omitempty"`
}

type jsonPos struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (f *JSONFormatter) Match(buf []byte, m *gosearch.Match) []byte {
	jm := jsonRecord{
		Type:    "match",
		File:    m.Path,
		LineNum: m.LineNumber,
		Column:  m.Column,
		Text:    m.Text,
	}
	if len(m.Submatches) > 0 {
		jm.Matches = make([]jsonPos, len(m.Submatches))
		for i, sm := range m.Submatches {
			jm.Matches[i] = jsonPos{Start: sm.Start, End: sm.End}
		}
	}
	return appendJSON(buf, jm)
}

func (f *JSONFormatter) Context(buf []byte, c *gosearch.ContextLine) []byte {
	return appendJSON(buf, jsonRecord{
		Type:    "context",
		File:    c.Path,
		Kind:    c.Kind.String(),
		LineNum: c.LineNumber,
		Text:    c.Text,
	})
}

// Break is a no-op; JSON consumers group records by line number.
func (f *JSONFormatter) Break(buf []byte) []byte { return buf }

func (f *JSONFormatter) Count(buf []byte, r Result) []byte {
	n := r.Count
	return appendJSON(buf, jsonRecord{Type: "count", File: r.Path, Count: &n})
}

func (f *JSONFormatter) Path(buf []byte, path string) []byte {
	return appendJSON(buf, jsonRecord{Type: "path", File: path})
}

func appendJSON(buf []byte, v jsonRecord) []byte {
	data, _ := json.Marshal(v)
	buf = append(buf, data...)
	return append(buf, '\n')
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
