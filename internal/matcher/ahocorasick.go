package matcher

import (
	"bytes"
	"slices"
)

// acNode is a node in the Aho-Corasick automaton.
type acNode struct {
	children [256]*acNode
	fail     *acNode
	output   []int // indices of patterns that match at this node
	depth    int
}

// AhoCorasickMatcher matches multiple fixed patterns simultaneously
// using the Aho-Corasick algorithm. When several patterns match at the
// same position, the one listed first wins, mirroring regex alternation.
type AhoCorasickMatcher struct {
	root       *acNode
	patterns   [][]byte // original patterns
	ignoreCase bool
}

// NewAhoCorasickMatcher creates an AhoCorasickMatcher for multiple fixed patterns.
func NewAhoCorasickMatcher(patterns []string, ignoreCase bool) *AhoCorasickMatcher {
	m := &AhoCorasickMatcher{
		root:       &acNode{},
		ignoreCase: ignoreCase,
	}

	// Build the trie
	for i, p := range patterns {
		pat := []byte(p)
		if ignoreCase {
			pat = bytes.ToLower(pat)
		}
		m.patterns = append(m.patterns, pat)
		m.addPattern(pat, i)
	}

	// Build failure links via BFS
	m.buildFailureLinks()

	return m
}

func (m *AhoCorasickMatcher) addPattern(pattern []byte, index int) {
	node := m.root
	for _, b := range pattern {
		if node.children[b] == nil {
			node.children[b] = &acNode{depth: node.depth + 1}
		}
		node = node.children[b]
	}
	node.output = append(node.output, index)
}

func (m *AhoCorasickMatcher) buildFailureLinks() {
	queue := make([]*acNode, 0, 256)

	// Initialize depth-1 nodes: fail links point to root
	for i := range 256 {
		child := m.root.children[i]
		if child != nil {
			child.fail = m.root
			queue = append(queue, child)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for i := range 256 {
			child := current.children[i]
			if child == nil {
				continue
			}

			queue = append(queue, child)

			// Follow failure links to find the longest proper suffix
			fail := current.fail
			for fail != nil && fail.children[i] == nil {
				fail = fail.fail
			}
			if fail == nil {
				child.fail = m.root
			} else {
				child.fail = fail.children[i]
			}

			if child.fail != nil && len(child.fail.output) > 0 {
				child.output = append(child.output, child.fail.output...)
			}
		}
	}
}

// step advances the automaton by one input byte.
func (m *AhoCorasickMatcher) step(node *acNode, b byte) *acNode {
	if m.ignoreCase {
		b = toLower(b)
	}
	for node != m.root && node.children[b] == nil {
		node = node.fail
	}
	if node.children[b] != nil {
		node = node.children[b]
	}
	return node
}

// acMatch represents a single pattern match at a byte offset.
type acMatch struct {
	patternIdx int
	offset     int // byte offset in the searched text
	length     int // length of the matched pattern
}

// searchLine scans text for all pattern matches, overlapping ones included,
// ordered by start offset and then by pattern index.
func (m *AhoCorasickMatcher) searchLine(text []byte) []acMatch {
	var matches []acMatch
	node := m.root

	for i, b := range text {
		node = m.step(node, b)
		for _, pidx := range node.output {
			plen := len(m.patterns[pidx])
			matches = append(matches, acMatch{
				patternIdx: pidx,
				offset:     i - plen + 1,
				length:     plen,
			})
		}
	}

	slices.SortFunc(matches, func(a, b acMatch) int {
		if a.offset != b.offset {
			return a.offset - b.offset
		}
		return a.patternIdx - b.patternIdx
	})
	return matches
}

func (m *AhoCorasickMatcher) FindFirst(b []byte) (int, int, bool) {
	matches := m.searchLine(b)
	if len(matches) == 0 {
		return 0, 0, false
	}
	return matches[0].offset, matches[0].offset + matches[0].length, true
}

func (m *AhoCorasickMatcher) FindAll(b []byte, visit func(start, end int) bool) {
	next := 0
	for _, am := range m.searchLine(b) {
		if am.offset < next {
			continue
		}
		end := am.offset + am.length
		if !visit(am.offset, end) {
			return
		}
		next = end
	}
}

// ShortestMatch stops at the first position where any pattern ends.
func (m *AhoCorasickMatcher) ShortestMatch(b []byte) (int, bool) {
	node := m.root
	for i, c := range b {
		node = m.step(node, c)
		if len(node.output) > 0 {
			return i + 1, true
		}
	}
	return 0, false
}

// Candidate returns the start of the match that ends first. Patterns never
// span lines, so it always falls on the first line holding a match.
func (m *AhoCorasickMatcher) Candidate(data []byte) int {
	node := m.root
	for i, c := range data {
		node = m.step(node, c)
		if len(node.output) > 0 {
			return i + 1 - len(m.patterns[node.output[0]])
		}
	}
	return -1
}
