package matcher

import (
	"regexp/syntax"
	"strings"
	"unicode"
)

// foldSensitive holds ASCII letters whose simple case folding includes a
// non-ASCII rune (K and the Kelvin sign, S and the long s). A folded
// literal containing one of them cannot be searched byte-wise.
const foldSensitive = "ksKS"

const minPrefilterLen = 3

// literalInfo holds a literal substring extracted from a regex AST that is
// guaranteed to appear in any match of the regex.
type literalInfo struct {
	literal    string
	ignoreCase bool
}

// extractLiteral parses a regex pattern and extracts the longest required
// literal substring that must appear in any match. Returns the literal info
// and true if a usable literal was found (length >= minPrefilterLen).
func extractLiteral(pattern string, ignoreCase bool) (literalInfo, bool) {
	flags := syntax.Perl
	if ignoreCase {
		flags |= syntax.FoldCase
	}

	re, err := syntax.Parse(pattern, flags)
	if err != nil {
		return literalInfo{}, false
	}
	re = re.Simplify()

	// If any node uses DotNL ((?s) flag), the literal may sit on a different
	// line than the match start when searching a whole buffer.
	if hasDotNL(re) {
		return literalInfo{}, false
	}

	candidates := extractFromNode(re)
	if len(candidates) == 0 {
		return literalInfo{}, false
	}

	// Pick the longest candidate that is all-ASCII.
	var best candidate
	for _, c := range candidates {
		if len(c.runes) > len(best.runes) && isASCIIRunes(c.runes) {
			best = c
		}
	}

	lit := string(best.runes)
	if len(lit) < minPrefilterLen {
		return literalInfo{}, false
	}

	ci := best.foldCase || ignoreCase
	if ci {
		if strings.ContainsAny(lit, foldSensitive) {
			return literalInfo{}, false
		}
		lit = strings.ToLower(lit)
	}

	return literalInfo{literal: lit, ignoreCase: ci}, true
}

// candidate is a literal substring found in the regex AST.
type candidate struct {
	runes    []rune
	foldCase bool
}

// extractFromNode walks the AST and returns all required literal substrings.
func extractFromNode(re *syntax.Regexp) []candidate {
	switch re.Op {
	case syntax.OpLiteral:
		if len(re.Rune) == 0 {
			return nil
		}
		return []candidate{{
			runes:    re.Rune,
			foldCase: re.Flags&syntax.FoldCase != 0,
		}}

	case syntax.OpConcat:
		return extractFromConcat(re.Sub)

	case syntax.OpCapture:
		if len(re.Sub) > 0 {
			return extractFromNode(re.Sub[0])
		}
		return nil

	case syntax.OpPlus:
		// Must match at least once, so the child is required.
		if len(re.Sub) > 0 {
			return extractFromNode(re.Sub[0])
		}
		return nil

	case syntax.OpRepeat:
		// Required only if Min >= 1.
		if re.Min >= 1 && len(re.Sub) > 0 {
			return extractFromNode(re.Sub[0])
		}
		return nil

	case syntax.OpStar, syntax.OpQuest:
		// Zero occurrences is valid; the child is not required.
		return nil

	case syntax.OpAlternate:
		// None of the branches is individually required.
		return nil

	default:
		// OpCharClass, OpAnyChar, OpAnyCharNotNL, anchors, etc.
		return nil
	}
}

// extractFromConcat handles OpConcat by collecting candidates from children
// and merging adjacent OpLiteral nodes into longer candidates.
func extractFromConcat(subs []*syntax.Regexp) []candidate {
	var results []candidate

	// First pass: merge adjacent OpLiteral children.
	var currentRunes []rune
	var currentFold bool
	flushMerged := func() {
		if len(currentRunes) > 0 {
			results = append(results, candidate{
				runes:    currentRunes,
				foldCase: currentFold,
			})
			currentRunes = nil
		}
	}

	for _, sub := range subs {
		if sub.Op == syntax.OpLiteral && len(sub.Rune) > 0 {
			fc := sub.Flags&syntax.FoldCase != 0
			if len(currentRunes) > 0 && fc != currentFold {
				// FoldCase flag changed: flush and start a new run.
				flushMerged()
			}
			currentFold = fc
			currentRunes = append(currentRunes, sub.Rune...)
		} else {
			flushMerged()
			// Recurse into non-literal required children.
			results = append(results, extractFromNode(sub)...)
		}
	}
	flushMerged()

	return results
}

// hasDotNL returns true if any node in the tree has the DotNL flag set,
// meaning the pattern uses (?s) and matches can span lines.
func hasDotNL(re *syntax.Regexp) bool {
	return anyNode(re, func(n *syntax.Regexp) bool {
		return n.Op == syntax.OpAnyChar
	})
}

// isASCIIRunes returns true if all runes are ASCII.
func isASCIIRunes(runes []rune) bool {
	for _, r := range runes {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// hasUppercase reports whether pattern contains an uppercase literal
// character, which disables smart case. Escapes and classes such as \W
// or [A-Z] do not count. Patterns the RE2 parser rejects (PCRE-only
// syntax) fall back to a scan of the raw text that skips escaped runes.
func hasUppercase(pattern string, fixed bool) bool {
	if fixed {
		return strings.IndexFunc(pattern, unicode.IsUpper) >= 0
	}
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		escaped := false
		for _, r := range pattern {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case unicode.IsUpper(r):
				return true
			}
		}
		return false
	}
	return anyNode(re, func(n *syntax.Regexp) bool {
		if n.Op != syntax.OpLiteral || n.Flags&syntax.FoldCase != 0 {
			return false
		}
		for _, r := range n.Rune {
			if unicode.IsUpper(r) {
				return true
			}
		}
		return false
	})
}

// hasLiteralNewline reports whether a regex explicitly matches a line
// terminator. Lines handed to a Matcher never contain one, so such a
// pattern could only fail silently.
func hasLiteralNewline(pattern string) bool {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return false
	}
	return anyNode(re, func(n *syntax.Regexp) bool {
		if n.Op != syntax.OpLiteral {
			return false
		}
		for _, r := range n.Rune {
			if r == '\n' {
				return true
			}
		}
		return false
	})
}

func anyNode(re *syntax.Regexp, pred func(*syntax.Regexp) bool) bool {
	if pred(re) {
		return true
	}
	for _, sub := range re.Sub {
		if anyNode(sub, pred) {
			return true
		}
	}
	return false
}
