package gosearch

// Sink receives records as a streaming search produces them.
//
// Matched and Context return whether the scan of the current file should
// go on; false skips the rest of that file only. Finish is called once
// after every file that was scanned without error. Records are owned by
// the Sink and are never touched by the search again.
//
// In a multi-threaded search the calls for one file are never
// interleaved with the calls for another.
type Sink interface {
	Matched(m *Match) bool
	Context(c *ContextLine) bool
	Finish()
}

// MatchFunc adapts a function to a Sink that only wants matches.
type MatchFunc func(m *Match) bool

func (f MatchFunc) Matched(m *Match) bool        { return f(m) }
func (f MatchFunc) Context(c *ContextLine) bool { return true }
func (f MatchFunc) Finish()                     {}

// SinkFuncs builds a Sink out of optional functions. A nil OnMatch or
// OnContext accepts the event and continues.
type SinkFuncs struct {
	OnMatch   func(m *Match) bool
	OnContext func(c *ContextLine) bool
	OnFinish  func()
}

func (s SinkFuncs) Matched(m *Match) bool {
	if s.OnMatch == nil {
		return true
	}
	return s.OnMatch(m)
}

func (s SinkFuncs) Context(c *ContextLine) bool {
	if s.OnContext == nil {
		return true
	}
	return s.OnContext(c)
}

func (s SinkFuncs) Finish() {
	if s.OnFinish != nil {
		s.OnFinish()
	}
}

var (
	_ Sink = MatchFunc(nil)
	_ Sink = SinkFuncs{}
)
