package matcher

import (
	"sync"

	"go.elara.ws/pcre"
)

// PCREMatcher matches using PCRE2-compatible regexes via the pure Go pcre package.
// Supports lookahead, lookbehind, backreferences, atomic groups, and all PCRE2 features.
// Calls into the compiled regex are serialized.
type PCREMatcher struct {
	mu sync.Mutex
	re *pcre.Regexp
}

// NewPCREMatcher creates a PCREMatcher from a PCRE2 pattern string.
func NewPCREMatcher(pattern string, ignoreCase bool) (*PCREMatcher, error) {
	var opts pcre.CompileOption
	if ignoreCase {
		opts |= pcre.Caseless
	}

	re, err := pcre.CompileOpts(pattern, opts)
	if err != nil {
		return nil, err
	}
	return &PCREMatcher{re: re}, nil
}

func (m *PCREMatcher) FindFirst(b []byte) (int, int, bool) {
	m.mu.Lock()
	locs := m.re.FindAllIndex(b, 1)
	m.mu.Unlock()
	if len(locs) == 0 {
		return 0, 0, false
	}
	return locs[0][0], locs[0][1], true
}

func (m *PCREMatcher) FindAll(b []byte, visit func(start, end int) bool) {
	m.mu.Lock()
	locs := m.re.FindAllIndex(b, -1)
	m.mu.Unlock()
	for _, loc := range locs {
		end := loc[1]
		if end > len(b) {
			end = len(b)
		}
		if !visit(loc[0], end) {
			return
		}
	}
}

func (m *PCREMatcher) ShortestMatch(b []byte) (int, bool) {
	_, end, ok := m.FindFirst(b)
	return end, ok
}

// Close releases the compiled PCRE regex resources.
func (m *PCREMatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.re != nil {
		m.re.Close()
		m.re = nil
	}
	return nil
}
