package gosearch

import "iter"

// Search is the materialized result of Builder.Build. It is a single-pass
// cursor: once a record has been read it cannot be read again, and a new
// Build is needed to search again.
type Search struct {
	matches []Match
}

// Next returns the next record, or false when the results are exhausted.
func (s *Search) Next() (Match, bool) {
	if len(s.matches) == 0 {
		return Match{}, false
	}
	m := s.matches[0]
	s.matches[0] = Match{}
	s.matches = s.matches[1:]
	return m, true
}

// Len returns the number of records not yet read.
func (s *Search) Len() int { return len(s.matches) }

// All returns an iterator that drains the remaining records.
func (s *Search) All() iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for {
			m, ok := s.Next()
			if !ok || !yield(m) {
				return
			}
		}
	}
}

// Collect drains the remaining records into a slice.
func (s *Search) Collect() []Match {
	out := s.matches
	s.matches = nil
	return out
}
