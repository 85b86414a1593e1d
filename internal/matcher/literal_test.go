package matcher

import (
	"bytes"
	"testing"
)

func TestExtractLiteral(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		ignoreCase bool
		wantLit    string
		wantOK     bool
		wantCI     bool
	}{
		// Basic literals
		{"pure literal long", "timeout", false, "timeout", true, false},
		{"pure literal 3 chars", "foo", false, "foo", true, false},
		{"below min length", "ab", false, "", false, false},
		{"single char", "x", false, "", false, false},

		// Regex with extractable literal
		{"dot-star prefix", ".*timeout", false, "timeout", true, false},
		{"dot-star suffix", "error.*", false, "error", true, false},
		{"word boundary", `\bconnection\b`, false, "connection", true, false},
		{"digit suffix", `error\d+`, false, "error", true, false},
		{"whitespace middle picks longest", `error\s+timeout`, false, "timeout", true, false},
		{"dot-star both sides", ".*timeout.*", false, "timeout", true, false},
		{"anchored", `^error\d+$`, false, "error", true, false},

		// Case-insensitive
		{"case insensitive flag", "timeout", true, "timeout", true, true},
		{"embedded case insensitive", "(?i)timeout", false, "timeout", true, true},

		// No extractable literal
		{"pure digit class", `\d+`, false, "", false, false},
		{"alternation", "foo|bar", false, "", false, false},
		{"char class only", `[abc]+`, false, "", false, false},
		{"dot star only", ".*", false, "", false, false},
		{"anchors only", `^$`, false, "", false, false},
		{"any char", `.`, false, "", false, false},

		// Optional parts don't contribute
		{"optional group", `(?:error)?timeout`, false, "timeout", true, false},
		{"star quantifier", `x*timeout`, false, "timeout", true, false},
		{"question quantifier", `x?timeout`, false, "timeout", true, false},

		// Plus: err+or → Concat[Literal("er"), Plus(Literal("r")), Literal("or")]
		// "er" and "or" are both 2 chars, below min. No extractable literal.
		{"plus on literal below min", `err+or`, false, "", false, false},
		// connection+timeout → Concat[Literal("connectio"), Plus(Literal("n")), Literal("timeout")]
		// "connectio" (9) > "timeout" (7), so "connectio" wins
		{"plus on longer literal", `connection+timeout`, false, "connectio", true, false},

		// Capture group is transparent
		{"capture group", `(error)\d+`, false, "error", true, false},
		{"nested capture", `((timeout))`, false, "timeout", true, false},

		// Repeat with Min >= 1
		{"repeat min 1", `x{1,3}timeout`, false, "timeout", true, false},
		{"repeat min 0", `x{0,3}timeout`, false, "timeout", true, false},

		// DotNL ((?s)) disables prefilter
		{"dot-s flag", `(?s).*timeout`, false, "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := extractLiteral(tt.pattern, tt.ignoreCase)
			if ok != tt.wantOK {
				t.Errorf("extractLiteral(%q, %v) ok = %v, want %v", tt.pattern, tt.ignoreCase, ok, tt.wantOK)
				return
			}
			if !ok {
				return
			}
			if info.literal != tt.wantLit {
				t.Errorf("extractLiteral(%q, %v) literal = %q, want %q", tt.pattern, tt.ignoreCase, info.literal, tt.wantLit)
			}
			if info.ignoreCase != tt.wantCI {
				t.Errorf("extractLiteral(%q, %v) ignoreCase = %v, want %v", tt.pattern, tt.ignoreCase, info.ignoreCase, tt.wantCI)
			}
		})
	}
}

func TestExtractLiteral_FoldSensitive(t *testing.T) {
	// "k" and "s" fold to non-ASCII runes, so a byte-wise folded search
	// could miss lines the regex engine accepts.
	tests := []struct {
		pattern    string
		ignoreCase bool
		wantOK     bool
	}{
		{"kelvin", true, false},
		{"class", true, false},
		{"(?i)mask", false, false},
		{"kelvin", false, true},
		{"timeout", true, true},
	}
	for _, tt := range tests {
		if _, ok := extractLiteral(tt.pattern, tt.ignoreCase); ok != tt.wantOK {
			t.Errorf("extractLiteral(%q, %v) ok = %v, want %v", tt.pattern, tt.ignoreCase, ok, tt.wantOK)
		}
	}
}

func TestHasUppercase(t *testing.T) {
	tests := []struct {
		pattern string
		fixed   bool
		want    bool
	}{
		{"foo", false, false},
		{"Foo", false, true},
		{`\W+`, false, false},
		{`[A-Z]+`, false, false},
		{`\Sfoo`, false, false},
		{"foo", true, false},
		{`\W`, true, true},
		{`(?<=a)B`, false, true}, // RE2 rejects lookbehind, raw scan applies
		{`(?<=a)\D`, false, false},
	}
	for _, tt := range tests {
		if got := hasUppercase(tt.pattern, tt.fixed); got != tt.want {
			t.Errorf("hasUppercase(%q, %v) = %v, want %v", tt.pattern, tt.fixed, got, tt.want)
		}
	}
}

func TestHasLiteralNewline(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{`foo\nbar`, true},
		{`foo`, false},
		{`[^\n]+`, false},
		{`\s+`, false},
	}
	for _, tt := range tests {
		if got := hasLiteralNewline(tt.pattern); got != tt.want {
			t.Errorf("hasLiteralNewline(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}

func TestRegexPrefilter_Correctness(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		ignoreCase bool
		input      string
		wantLines  []int
	}{
		{
			name:      "dot-star prefix",
			pattern:   ".*timeout",
			input:     "connection timeout\nall good\nread timeout\n",
			wantLines: []int{1, 3},
		},
		{
			name:      "literal not at match start",
			pattern:   `\d+error`,
			input:     "123error here\nno match\n456error there\n",
			wantLines: []int{1, 3},
		},
		{
			name:      "prefilter candidate but no regex match",
			pattern:   `^error\d+`,
			input:     "has error in middle\nerror123\n",
			wantLines: []int{2},
		},
		{
			name:       "case insensitive prefilter",
			pattern:    "(?i)timeout",
			ignoreCase: true,
			input:      "TIMEOUT\nall good\nTimeOut\n",
			wantLines:  []int{1, 3},
		},
		{
			name:      "no match despite literal present",
			pattern:   `error\d{3}`,
			input:     "error in system\nerror123\n",
			wantLines: []int{2},
		},
		{
			name:    "no matches at all",
			pattern: ".*timeout",
			input:   "hello\nworld\n",
		},
		{
			name:      "dense matches every line",
			pattern:   ".*the",
			input:     "the quick\nthe slow\nthe lazy\n",
			wantLines: []int{1, 2, 3},
		},
		{
			name:    "empty input",
			pattern: ".*timeout",
			input:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewRegexMatcher(tt.pattern, tt.ignoreCase)
			if err != nil {
				t.Fatalf("NewRegexMatcher(%q): %v", tt.pattern, err)
			}

			got := matchingLines(m, tt.input)
			if !equalInts(got, tt.wantLines) {
				t.Errorf("matching lines = %v, want %v", got, tt.wantLines)
			}

			cand := m.Candidate([]byte(tt.input))
			if len(tt.wantLines) == 0 && m.literal != nil && cand >= 0 {
				t.Errorf("Candidate() = %d, want -1", cand)
			}
			if len(tt.wantLines) > 0 && cand < 0 {
				t.Errorf("Candidate() = -1 on matching input")
			}
		})
	}
}

// BenchmarkRegex_Prefilter_NoMatch benchmarks prefilter fast-reject on no-match data.
func BenchmarkRegex_Prefilter_NoMatch(b *testing.B) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 10000)
	m, _ := NewRegexMatcher(".*timeout", false)
	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		m.Candidate(data)
	}
}

// BenchmarkRegex_Prefilter_Dense benchmarks prefilter when every line matches.
func BenchmarkRegex_Prefilter_Dense(b *testing.B) {
	line := []byte("ERROR: connection timeout at port 8080")
	m, _ := NewRegexMatcher(`.*timeout`, false)
	b.ResetTimer()
	b.SetBytes(int64(len(line)))
	for b.Loop() {
		m.FindFirst(line)
	}
}

// BenchmarkRegex_NoPrefilter benchmarks regex without extractable literal (baseline).
func BenchmarkRegex_NoPrefilter(b *testing.B) {
	line := []byte("2024-01-15 connection error")
	m, _ := NewRegexMatcher(`\d{4}-\d{2}-\d{2}`, false)
	b.ResetTimer()
	b.SetBytes(int64(len(line)))
	for b.Loop() {
		m.FindFirst(line)
	}
}
