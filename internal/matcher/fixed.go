package matcher

import (
	"bytes"
)

// LiteralMatcher matches a single non-empty fixed string. Case-insensitive
// matching folds ASCII only; the factory routes non-ASCII patterns that
// need folding to the regex engine.
type LiteralMatcher struct {
	pattern []byte
	fold    *foldSearcher // nil when case-sensitive
}

// NewLiteralMatcher creates a LiteralMatcher for pattern.
func NewLiteralMatcher(pattern string, ignoreCase bool) *LiteralMatcher {
	m := &LiteralMatcher{pattern: []byte(pattern)}
	if ignoreCase {
		m.fold = newFoldSearcher(m.pattern)
	}
	return m
}

func (m *LiteralMatcher) index(b []byte) int {
	if m.fold != nil {
		return m.fold.Index(b)
	}
	return bytes.Index(b, m.pattern)
}

func (m *LiteralMatcher) FindFirst(b []byte) (int, int, bool) {
	i := m.index(b)
	if i < 0 {
		return 0, 0, false
	}
	return i, i + len(m.pattern), true
}

func (m *LiteralMatcher) FindAll(b []byte, visit func(start, end int) bool) {
	n := len(m.pattern)
	for start := 0; start+n <= len(b); {
		i := m.index(b[start:])
		if i < 0 {
			return
		}
		pos := start + i
		if !visit(pos, pos+n) {
			return
		}
		start = pos + n
	}
}

func (m *LiteralMatcher) ShortestMatch(b []byte) (int, bool) {
	_, end, ok := m.FindFirst(b)
	return end, ok
}

func (m *LiteralMatcher) Candidate(data []byte) int {
	return m.index(data)
}
