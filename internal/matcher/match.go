package matcher

import (
	"fmt"

	"github.com/dl/gosearch/internal/config"
)

// Matcher locates pattern matches inside a single line of bytes.
// Lines never contain a line terminator.
//
// Implementations are safe for concurrent use by multiple goroutines.
type Matcher interface {
	// FindFirst returns the leftmost match in b.
	FindFirst(b []byte) (start, end int, ok bool)

	// FindAll calls visit for each successive non-overlapping match in b,
	// stopping early when visit returns false.
	FindAll(b []byte, visit func(start, end int) bool)

	// ShortestMatch reports the end offset of some match in b. It is the
	// cheapest way to ask whether b matches at all.
	ShortestMatch(b []byte) (end int, ok bool)
}

// Prefilter is implemented by matchers that can skip ahead in a whole
// buffer to the first position where a match could start.
type Prefilter interface {
	// Candidate returns the offset in data of the earliest possible match,
	// or -1 if data cannot contain a match. Returning 0 means the matcher
	// cannot rule anything out.
	Candidate(data []byte) int
}

// Options controls how a pattern is compiled.
type Options struct {
	CaseMode config.CaseMode
	Fixed    bool // treat the pattern as literal text
	Word     bool // only match whole words
	Line     bool // only match whole lines
	Engine   config.Engine
}

// PatternError reports a pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
