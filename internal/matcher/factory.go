package matcher

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dl/gosearch/internal/config"
)

// New compiles pattern into a Matcher.
// Selection logic:
//   - PCRE2 engine -> PCREMatcher
//   - literal text, one line -> LiteralMatcher (Horspool for case folding)
//   - literal text, several lines -> AhoCorasickMatcher
//   - otherwise -> RegexMatcher (RE2 with a required-literal prefilter)
//
// A pattern containing newlines is treated as one alternative per line.
// Word and line modes always go through a regex engine.
func New(pattern string, opts Options) (Matcher, error) {
	patterns := splitPatterns(pattern)
	ignoreCase := resolveCase(patterns, opts)

	if opts.Engine == config.EnginePCRE2 {
		m, err := NewPCREMatcher(buildRegex(patterns, opts, false), ignoreCase)
		if err != nil {
			return nil, &PatternError{Pattern: pattern, Err: err}
		}
		return m, nil
	}

	// Same optimization for plain text patterns written without -F: if no
	// alternative contains regex metacharacters, skip the regex engine.
	literal := opts.Fixed
	if !literal {
		literal = true
		for _, p := range patterns {
			if !isLiteral(p) {
				literal = false
				break
			}
		}
	}
	if literal && !opts.Word && !opts.Line && canUseLiterals(patterns, ignoreCase) {
		if len(patterns) == 1 {
			return NewLiteralMatcher(patterns[0], ignoreCase), nil
		}
		return NewAhoCorasickMatcher(patterns, ignoreCase), nil
	}

	if !opts.Fixed {
		for _, p := range patterns {
			if hasLiteralNewline(p) {
				return nil, &PatternError{Pattern: pattern, Err: errors.New(`the literal "\n" is not allowed in a regex`)}
			}
		}
	}
	m, err := NewRegexMatcher(buildRegex(patterns, opts, true), ignoreCase)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	m.word = opts.Word && !opts.Line
	return m, nil
}

// splitPatterns splits a pattern on line terminators. A lone pattern is
// returned as is, even when empty.
func splitPatterns(pattern string) []string {
	if !strings.Contains(pattern, "\n") {
		return []string{pattern}
	}
	lines := strings.Split(pattern, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// canUseLiterals reports whether the byte-oriented literal matchers give
// the same answer as the regex engine. Alternatives must be non-empty, and
// when folding case they must be ASCII without letters that also fold to
// non-ASCII runes.
func canUseLiterals(patterns []string, ignoreCase bool) bool {
	for _, p := range patterns {
		if p == "" {
			return false
		}
		if ignoreCase && (!isASCII(p) || strings.ContainsAny(p, foldSensitive)) {
			return false
		}
	}
	return true
}

// buildRegex assembles the final regex source. For RE2 the case flag is
// inlined; PCRE receives it as a compile option instead.
//
// Word boundaries are Unicode aware. RE2's \b only knows ASCII, so the RE2
// form consumes the neighboring non-word characters and captures the word
// in group 1 (see wordFind). PCRE switches \b to Unicode with (*UCP).
func buildRegex(patterns []string, opts Options, re2 bool) string {
	alts := make([]string, len(patterns))
	for i, p := range patterns {
		if opts.Fixed {
			p = regexp.QuoteMeta(p)
		}
		alts[i] = p
	}

	var expr string
	if len(alts) == 1 {
		expr = alts[0]
	} else {
		var b strings.Builder
		for i, a := range alts {
			if i > 0 {
				b.WriteByte('|')
			}
			b.WriteString("(?:")
			b.WriteString(a)
			b.WriteByte(')')
		}
		expr = b.String()
	}

	switch {
	case opts.Line:
		expr = "^(?:" + expr + ")$"
	case opts.Word && re2:
		expr = `(?:^|` + nonWordClass + `)(` + expr + `)(?:$|` + nonWordClass + `)`
	case opts.Word:
		expr = `(*UTF)(*UCP)\b(?:` + expr + `)\b`
	}
	if re2 && resolveCase(patterns, opts) {
		expr = "(?i)" + expr
	}
	return expr
}

// resolveCase decides whether matching ignores case.
func resolveCase(patterns []string, opts Options) bool {
	switch opts.CaseMode {
	case config.CaseInsensitive:
		return true
	case config.CaseSensitive:
		return false
	}
	for _, p := range patterns {
		if hasUppercase(p, opts.Fixed) {
			return false
		}
	}
	return true
}

// isLiteral returns true if the pattern contains no regex metacharacters
// and can be treated as a fixed string.
func isLiteral(pattern string) bool {
	return !strings.ContainsAny(pattern, `\.+*?()|[]{}^$`)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
