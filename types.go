package gosearch

import (
	"strings"

	"github.com/dl/gosearch/internal/searcher"
)

// ContextKind tells why a non-matching line was reported.
type ContextKind int

const (
	ContextBefore ContextKind = iota // precedes a match
	ContextAfter                     // follows a match
	ContextOther
)

func (k ContextKind) String() string {
	switch k {
	case ContextBefore:
		return "before"
	case ContextAfter:
		return "after"
	default:
		return "other"
	}
}

func contextKind(k searcher.ContextKind) ContextKind {
	switch k {
	case searcher.ContextBefore:
		return ContextBefore
	case searcher.ContextAfter:
		return ContextAfter
	default:
		return ContextOther
	}
}

// SubMatch is one matched span of a line, as byte offsets into
// Match.Bytes. 0 <= Start <= End <= len(Bytes).
type SubMatch struct {
	Start int
	End   int
}

// ContextLine is a line reported around a match without matching itself.
// Bytes and Text follow the same terminator rule as Match.
type ContextLine struct {
	Kind       ContextKind
	Path       string
	LineNumber uint64 // 1-based; 0 when line numbers are disabled
	Bytes      []byte
	Text       string
}

// Match is one matching line.
//
// Bytes and Text hold the line with its "\n" terminator removed, so they are
// not the raw bytes as read. A "\r" before the "\n" is kept. Submatch
// offsets index into Bytes.
//
// Before context lines come first in Context, followed by the After lines
// that arrived while the same file was scanned.
type Match struct {
	Path       string
	LineNumber uint64 // 1-based; 0 when line numbers are disabled
	Column     int    // 1-based start of the first submatch; 0 when there is none
	Bytes      []byte // the line without its terminator
	Text       string // Bytes with invalid UTF-8 replaced by U+FFFD
	Submatches []SubMatch
	Context    []ContextLine
}

// lossyText decodes b, replacing each run of invalid UTF-8 with U+FFFD.
func lossyText(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

func newContextLine(path string, kind searcher.ContextKind, line []byte, num uint64) ContextLine {
	b := append([]byte(nil), line...)
	return ContextLine{
		Kind:       contextKind(kind),
		Path:       path,
		LineNumber: num,
		Bytes:      b,
		Text:       lossyText(b),
	}
}
