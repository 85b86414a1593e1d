package matcher

// foldSearcher finds an ASCII pattern in data ignoring ASCII letter case,
// using the Boyer-Moore-Horspool bad character rule. The skip table is
// filled for both cases of every pattern byte, so a single table serves
// folded and unfolded input.
type foldSearcher struct {
	pattern []byte // lowercased
	skip    [256]int
}

func newFoldSearcher(pattern []byte) *foldSearcher {
	s := &foldSearcher{pattern: make([]byte, len(pattern))}
	for i, c := range pattern {
		s.pattern[i] = toLower(c)
	}
	n := len(s.pattern)
	for i := range s.skip {
		s.skip[i] = n
	}
	for i := 0; i < n-1; i++ {
		c := s.pattern[i]
		s.skip[c] = n - 1 - i
		s.skip[toUpper(c)] = n - 1 - i
	}
	return s
}

// Index returns the offset of the first case-insensitive occurrence of the
// pattern in data, or -1.
func (s *foldSearcher) Index(data []byte) int {
	n := len(s.pattern)
	if n == 0 {
		return 0
	}
	last := s.pattern[n-1]
	for i := 0; i+n <= len(data); {
		tail := data[i+n-1]
		if toLower(tail) == last {
			j := n - 2
			for j >= 0 && toLower(data[i+j]) == s.pattern[j] {
				j--
			}
			if j < 0 {
				return i
			}
		}
		i += s.skip[tail]
	}
	return -1
}

// toLower converts an ASCII byte to lowercase.
func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// toUpper converts an ASCII byte to uppercase.
func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
