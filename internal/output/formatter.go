package output

import "github.com/dl/gosearch"

// Formatter renders search records. Every method appends to buf and
// returns the extended slice, so callers can reuse one buffer per file.
type Formatter interface {
	Match(buf []byte, m *gosearch.Match) []byte
	Context(buf []byte, c *gosearch.ContextLine) []byte
	// Break marks a gap between two groups of context lines.
	Break(buf []byte) []byte
	Count(buf []byte, r Result) []byte
	Path(buf []byte, path string) []byte
}
