package searcher

// ContextKind tells a Sink why a non-matching line was reported.
type ContextKind int

const (
	ContextBefore ContextKind = iota // precedes a match
	ContextAfter                     // follows a match
	ContextOther                     // reported for another reason
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

// Sink receives the events of one scan. Line slices are only valid for the
// duration of the call; a Sink that keeps them must copy. Returning false
// stops the scan.
//
// lineNumber is 1-based, or 0 when line numbers are disabled.
type Sink interface {
	Matched(line []byte, lineNumber uint64) bool
	Context(kind ContextKind, line []byte, lineNumber uint64) bool
}

// Finisher is implemented by sinks that want to know when a scan is over.
// Finish is called once per scan that did not fail, including scans cut
// short by the sink or by binary detection.
type Finisher interface {
	Finish()
}
