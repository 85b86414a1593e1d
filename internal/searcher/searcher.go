// Package searcher splits byte sources into lines, runs a matcher over
// them and reports matched and context lines to a Sink.
package searcher

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"

	"github.com/dl/gosearch/internal/config"
	"github.com/dl/gosearch/internal/input"
	"github.com/dl/gosearch/internal/matcher"
)

// ErrHeapLimit is returned when a streamed line does not fit in the heap limit.
var ErrHeapLimit = input.ErrHeapLimit

// Options configures a Searcher.
type Options struct {
	Before          int
	After           int
	BinaryDetection bool
	LineNumbers     bool
	MemoryMap       config.MmapChoice
	MmapThreshold   int64
	HeapLimit       int64 // 0 means unlimited
}

// Searcher runs line scans. It holds no per-scan state and is safe for
// concurrent use.
type Searcher struct {
	opts   Options
	reader input.Reader
	logger *log.Logger
}

// New creates a Searcher. A nil logger discards all output.
func New(opts Options, logger *log.Logger) *Searcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts.Before = max(opts.Before, 0)
	opts.After = max(opts.After, 0)
	return &Searcher{
		opts:   opts,
		reader: input.NewReader(opts.MemoryMap, opts.MmapThreshold),
		logger: logger,
	}
}

// SearchPath scans the file at path. With a heap limit and memory maps
// disabled the file is streamed instead of read whole.
func (s *Searcher) SearchPath(m matcher.Matcher, path string, sink Sink) error {
	if s.opts.HeapLimit > 0 && s.opts.MemoryMap == config.MmapNever {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return s.searchStream(m, path, f, sink)
	}

	rr, err := s.reader.Read(path)
	if err != nil {
		return err
	}
	defer rr.Closer()
	s.searchBuffer(m, path, rr.Data, sink)
	return nil
}

// SearchSlice scans an in-memory buffer.
func (s *Searcher) SearchSlice(m matcher.Matcher, data []byte, sink Sink) error {
	s.searchBuffer(m, "", data, sink)
	return nil
}

// SearchReader scans r line by line without reading it whole.
func (s *Searcher) SearchReader(m matcher.Matcher, r io.Reader, sink Sink) error {
	return s.searchStream(m, "", r, sink)
}

func finish(sink Sink) {
	if f, ok := sink.(Finisher); ok {
		f.Finish()
	}
}

func (s *Searcher) searchBuffer(m matcher.Matcher, path string, data []byte, sink Sink) {
	defer finish(sink)

	if s.opts.BinaryDetection && bytes.IndexByte(data, 0) >= 0 {
		s.logger.Debug("skipping binary data", "path", path)
		return
	}

	if pf, ok := m.(matcher.Prefilter); ok && s.opts.Before == 0 && s.opts.After == 0 {
		s.scanCandidates(m, pf, data, sink)
		return
	}

	sc := s.newScan(m, sink)
	var num uint64
	for len(data) > 0 {
		line, rest := data, []byte(nil)
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, rest = data[:i], data[i+1:]
		}
		num++
		if !sc.line(line, num) {
			return
		}
		data = rest
	}
}

// scanCandidates jumps between lines the prefilter cannot rule out. Only
// valid without context, since skipped lines are never reported.
func (s *Searcher) scanCandidates(m matcher.Matcher, pf matcher.Prefilter, data []byte, sink Sink) {
	cur := newLineCursor(data)
	pos := 0
	for pos < len(data) {
		c := pf.Candidate(data[pos:])
		if c < 0 {
			return
		}
		start, end, num := cur.seek(pos + c)
		line := data[start:end]
		if _, ok := m.ShortestMatch(line); ok {
			if !s.opts.LineNumbers {
				num = 0
			}
			if !sink.Matched(line, num) {
				return
			}
		}
		pos = end + 1
	}
}

func (s *Searcher) searchStream(m matcher.Matcher, path string, r io.Reader, sink Sink) error {
	lr := input.NewLineReader(r, s.opts.HeapLimit)
	sc := s.newScan(m, sink)
	sc.copyRing = true
	for {
		line, num, err := lr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, ErrHeapLimit) || path == "" {
				return err
			}
			return &fs.PathError{Op: "read", Path: path, Err: err}
		}
		if s.opts.BinaryDetection && bytes.IndexByte(line, 0) >= 0 {
			s.logger.Debug("binary data found, stopping", "path", path, "line", num)
			break
		}
		if !sc.line(line, num) {
			break
		}
	}
	finish(sink)
	return nil
}

type ringLine struct {
	data []byte
	num  uint64
}

// scan holds the context window state of a single pass.
type scan struct {
	m           matcher.Matcher
	sink        Sink
	before      int
	after       int
	lineNumbers bool
	copyRing    bool // lines are reused by the source and must be copied

	ring      []ringLine
	ringStart int
	ringLen   int
	afterLeft int
}

func (s *Searcher) newScan(m matcher.Matcher, sink Sink) *scan {
	sc := &scan{
		m:           m,
		sink:        sink,
		before:      s.opts.Before,
		after:       s.opts.After,
		lineNumbers: s.opts.LineNumbers,
	}
	if sc.before > 0 {
		sc.ring = make([]ringLine, sc.before)
	}
	return sc
}

// line handles one line and reports whether scanning should continue.
func (sc *scan) line(line []byte, num uint64) bool {
	if !sc.lineNumbers {
		num = 0
	}
	if _, ok := sc.m.ShortestMatch(line); ok {
		for i := range sc.ringLen {
			rl := sc.ring[(sc.ringStart+i)%len(sc.ring)]
			if !sc.sink.Context(ContextBefore, rl.data, rl.num) {
				return false
			}
		}
		sc.ringStart, sc.ringLen = 0, 0
		if !sc.sink.Matched(line, num) {
			return false
		}
		sc.afterLeft = sc.after
		return true
	}

	if sc.afterLeft > 0 {
		sc.afterLeft--
		return sc.sink.Context(ContextAfter, line, num)
	}

	if sc.before > 0 {
		sc.push(line, num)
	}
	return true
}

// push adds a line to the before-context ring, dropping the oldest entry
// once the ring is full.
func (sc *scan) push(line []byte, num uint64) {
	var slot int
	if sc.ringLen < len(sc.ring) {
		slot = (sc.ringStart + sc.ringLen) % len(sc.ring)
		sc.ringLen++
	} else {
		slot = sc.ringStart
		sc.ringStart = (sc.ringStart + 1) % len(sc.ring)
	}
	rl := &sc.ring[slot]
	if sc.copyRing {
		rl.data = append(rl.data[:0], line...)
	} else {
		rl.data = line
	}
	rl.num = num
}
