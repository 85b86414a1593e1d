package matcher

import (
	"bytes"
	"regexp"
	"unicode"
	"unicode/utf8"
)

// nonWordClass matches one character that cannot be part of a word.
const nonWordClass = `[^\pL\pM\pN\pPc]`

// RegexMatcher uses Go's RE2 regexp engine. When the pattern has a required
// literal, lines without it are rejected before the regex runs.
type RegexMatcher struct {
	re      *regexp.Regexp
	literal []byte        // required literal, nil if none
	fold    *foldSearcher // set when the literal must be searched case-insensitively
	word    bool          // the word is capture group 1, see buildRegex
}

// NewRegexMatcher creates a RegexMatcher for the given pattern. Case
// handling is expected to be inlined in the pattern, e.g. "(?i)".
func NewRegexMatcher(pattern string, ignoreCase bool) (*RegexMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	m := &RegexMatcher{re: re}
	if info, ok := extractLiteral(pattern, ignoreCase); ok {
		m.literal = []byte(info.literal)
		if info.ignoreCase {
			m.fold = newFoldSearcher(m.literal)
		}
	}
	return m, nil
}

// String returns the compiled regex source.
func (m *RegexMatcher) String() string {
	return m.re.String()
}

func (m *RegexMatcher) literalIndex(b []byte) int {
	if m.fold != nil {
		return m.fold.Index(b)
	}
	return bytes.Index(b, m.literal)
}

func (m *RegexMatcher) mayMatch(b []byte) bool {
	return m.literal == nil || m.literalIndex(b) >= 0
}

func (m *RegexMatcher) FindFirst(b []byte) (int, int, bool) {
	if !m.mayMatch(b) {
		return 0, 0, false
	}
	if m.word {
		return m.findWord(b, 0)
	}
	loc := m.re.FindIndex(b)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// findWord returns the first word match starting at or after pos. The
// regex sees b[pos:] with no left context, so a "^" anchored match at pos
// is rejected when the rune before pos is a word character.
func (m *RegexMatcher) findWord(b []byte, pos int) (int, int, bool) {
	for pos <= len(b) {
		loc := m.re.FindSubmatchIndex(b[pos:])
		if loc == nil {
			return 0, 0, false
		}
		start, end := pos+loc[2], pos+loc[3]
		if start == pos && pos > 0 && isWordRune(lastRune(b[:pos])) {
			_, w := utf8.DecodeRune(b[pos:])
			if w == 0 {
				return 0, 0, false
			}
			pos += w
			continue
		}
		return start, end, true
	}
	return 0, 0, false
}

func (m *RegexMatcher) findAllWords(b []byte, visit func(start, end int) bool) {
	pos := 0
	for pos <= len(b) {
		start, end, ok := m.findWord(b, pos)
		if !ok || !visit(start, end) {
			return
		}
		if end > start {
			pos = end
			continue
		}
		if end >= len(b) {
			return
		}
		_, w := utf8.DecodeRune(b[end:])
		pos = end + w
	}
}

func lastRune(b []byte) rune {
	r, _ := utf8.DecodeLastRune(b)
	return r
}

// isWordRune reports whether r counts as a word character for word
// matching. Invalid UTF-8 does not.
func isWordRune(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	return unicode.In(r, unicode.L, unicode.M, unicode.N, unicode.Pc)
}

func (m *RegexMatcher) FindAll(b []byte, visit func(start, end int) bool) {
	if !m.mayMatch(b) {
		return
	}
	if m.word {
		m.findAllWords(b, visit)
		return
	}
	for _, loc := range m.re.FindAllIndex(b, -1) {
		if !visit(loc[0], loc[1]) {
			return
		}
	}
}

func (m *RegexMatcher) ShortestMatch(b []byte) (int, bool) {
	_, end, ok := m.FindFirst(b)
	return end, ok
}

func (m *RegexMatcher) Candidate(data []byte) int {
	if m.literal == nil {
		return 0
	}
	return m.literalIndex(data)
}
