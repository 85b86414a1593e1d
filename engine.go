package gosearch

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/dl/gosearch/filter"
	"github.com/dl/gosearch/internal/config"
	"github.com/dl/gosearch/internal/matcher"
	"github.com/dl/gosearch/internal/scheduler"
	"github.com/dl/gosearch/internal/searcher"
	"github.com/dl/gosearch/internal/walker"
)

// Source names used when a scan has no real path.
const (
	readerSource = "<reader>"
	memorySource = "<memory>"
)

// engine runs one search operation. The matcher and searchers are built
// once, before anything is read, and shared by every file.
type engine struct {
	cfg      config.Config
	logger   *log.Logger
	matcher  matcher.Matcher
	searcher *searcher.Searcher // reports context lines
	plain    *searcher.Searcher // no context, for counting modes
}

// newEngine validates the pattern. Walk filters are validated later by
// newWalker, still before any traversal.
func newEngine(cfg config.Config, logger *log.Logger) (*engine, error) {
	e := newWalkEngine(cfg, logger)
	m, err := matcher.New(cfg.Pattern, matcher.Options{
		CaseMode: cfg.CaseMode,
		Fixed:    cfg.FixedStrings,
		Word:     cfg.Word,
		Line:     cfg.LineRegexp,
		Engine:   cfg.Engine,
	})
	if err != nil {
		return nil, wrapError(err, "")
	}
	e.logger.Debug("matcher compiled", "backend", fmt.Sprintf("%T", m), "engine", cfg.Engine)
	e.matcher = m

	opts := searcher.Options{
		Before:          cfg.BeforeContext,
		After:           cfg.AfterContext,
		BinaryDetection: cfg.BinaryDetection,
		LineNumbers:     cfg.LineNumbers,
		MemoryMap:       cfg.MemoryMap,
		MmapThreshold:   cfg.MmapThreshold,
		HeapLimit:       cfg.HeapLimit,
	}
	e.searcher = searcher.New(opts, e.logger)
	opts.Before, opts.After = 0, 0
	e.plain = searcher.New(opts, e.logger)
	return e, nil
}

// newWalkEngine returns an engine that can only walk.
func newWalkEngine(cfg config.Config, logger *log.Logger) *engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &engine{cfg: cfg, logger: logger}
}

// close releases matcher resources.
func (e *engine) close() {
	if c, ok := e.matcher.(io.Closer); ok {
		c.Close()
	}
}

func (e *engine) newWalker() (*walker.Walker, error) {
	cfg := e.cfg
	defs := make([]filter.TypeDef, 0, len(cfg.TypeDefs))
	for _, d := range cfg.TypeDefs {
		defs = append(defs, filter.TypeDef{Name: d.Name, Globs: []string{d.Glob}})
	}
	w, err := walker.New(cfg.Paths, walker.Options{
		MaxDepth:     cfg.MaxDepth,
		MaxFilesize:  cfg.MaxFilesize,
		Hidden:       cfg.Hidden,
		FollowLinks:  cfg.FollowLinks,
		IgnoreFiles:  cfg.IgnoreFiles,
		IgnoreParent: cfg.IgnoreParent,
		IgnoreVCS:    cfg.IgnoreVCS,
		Overrides:    cfg.Overrides,
		Globs:        cfg.Globs,
		GlobRoot:     cfg.Cwd,
		Types:        cfg.TypesOverride,
		TypeSelect:   cfg.Types,
		TypeNegate:   cfg.TypeNot,
		TypeDefs:     defs,
		Logger:       e.logger,
	})
	if err != nil {
		return nil, wrapError(err, "")
	}
	return w, nil
}

// eachFile calls scan for every file the walker yields. With one thread
// the files arrive in walk order on the calling goroutine; with more,
// scan is called concurrently from the scheduler's workers. The first
// error stops the operation.
func (e *engine) eachFile(scan func(path string) error) error {
	w, err := e.newWalker()
	if err != nil {
		return err
	}
	var files atomic.Int64
	visit := func(ent walker.Entry) error {
		files.Add(1)
		return scan(ent.Path)
	}

	if e.cfg.Threads <= 1 {
		err = w.Walk(func(ent walker.Entry) error {
			if !ent.IsFile() {
				return nil
			}
			return visit(ent)
		})
	} else {
		err = scheduler.New(e.cfg.Threads, e.logger).Run(context.Background(), w, visit)
	}
	e.logger.Debug("files searched", "files", files.Load(), "threads", max(e.cfg.Threads, 1))
	return wrapError(err, "")
}

func (e *engine) searchPath(s *searcher.Searcher, path string, sink searcher.Sink) error {
	if err := s.SearchPath(e.matcher, path, sink); err != nil {
		return wrapError(err, path)
	}
	return nil
}

// collect runs the search in batch mode. Each file's records are appended
// as one block, so files are never interleaved.
func (e *engine) collect() ([]Match, error) {
	var (
		mu      sync.Mutex
		results []Match
	)
	err := e.eachFile(func(path string) error {
		s := e.newCollectSink(path)
		if err := e.searchPath(e.searcher, path, s); err != nil {
			return err
		}
		mu.Lock()
		results = append(results, s.matches...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// stream forwards records to out while the search runs. The lock is held
// for a whole file so that out sees each file's events contiguously.
func (e *engine) stream(out Sink) error {
	var mu sync.Mutex
	return e.eachFile(func(path string) error {
		mu.Lock()
		defer mu.Unlock()
		return e.searchPath(e.searcher, path, e.newCallbackSink(path, out))
	})
}

func (e *engine) count() (uint64, error) {
	var (
		mu    sync.Mutex
		total uint64
	)
	err := e.eachFile(func(path string) error {
		s := &countSink{cap: newFileCap(e.cfg.MaxCount)}
		if err := e.searchPath(e.plain, path, s); err != nil {
			return err
		}
		mu.Lock()
		total = saturatingAdd(total, uint64(s.cap.n))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (e *engine) filesWithMatches() ([]string, error) {
	var (
		mu    sync.Mutex
		found = make(map[string]struct{})
	)
	err := e.eachFile(func(path string) error {
		s := &firstMatchSink{cap: newFileCap(e.cfg.MaxCount)}
		if err := e.searchPath(e.plain, path, s); err != nil {
			return err
		}
		if s.found {
			mu.Lock()
			found[path] = struct{}{}
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(found))
	for p := range found {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths, nil
}

// walkFiles lists the files a search would scan, without scanning them.
func (e *engine) walkFiles() ([]string, error) {
	var (
		mu    sync.Mutex
		files []string
	)
	err := e.eachFile(func(path string) error {
		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// collectSource runs a batch search over a single source.
func (e *engine) collectSource(name string, scan func(searcher.Sink) error) ([]Match, error) {
	s := e.newCollectSink(name)
	if err := scan(s); err != nil {
		return nil, wrapError(err, name)
	}
	return s.matches, nil
}

// streamSource runs a streaming search over a single source.
func (e *engine) streamSource(name string, out Sink, scan func(searcher.Sink) error) error {
	if err := scan(e.newCallbackSink(name, out)); err != nil {
		return wrapError(err, name)
	}
	return nil
}

// newMatch builds the record for a matched line. The line is copied; the
// scanner reuses its buffers.
func (e *engine) newMatch(path string, line []byte, num uint64) Match {
	b := append([]byte(nil), line...)
	var subs []SubMatch
	e.matcher.FindAll(b, func(start, end int) bool {
		subs = append(subs, SubMatch{Start: start, End: end})
		return true
	})
	m := Match{
		Path:       path,
		LineNumber: num,
		Bytes:      b,
		Text:       lossyText(b),
		Submatches: subs,
	}
	if len(subs) > 0 {
		m.Column = subs[0].Start + 1
	}
	return m
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// fileCap counts the matches of one file against the per-file limit.
type fileCap struct {
	limit int // negative means unlimited
	n     int
}

func newFileCap(limit *int) fileCap {
	if limit == nil {
		return fileCap{limit: -1}
	}
	return fileCap{limit: max(*limit, 0)}
}

// full reports whether no further match may be recorded.
func (c *fileCap) full() bool {
	return c.limit >= 0 && c.n >= c.limit
}

// add records a match and reports whether another one may follow.
func (c *fileCap) add() bool {
	c.n++
	return !c.full()
}

// collectSink keeps every record of one file. Before lines wait in
// pending for the next match; After and Other lines go to the last match
// and are dropped when there is none.
type collectSink struct {
	e       *engine
	path    string
	cap     fileCap
	matches []Match
	pending []ContextLine
	last    int
}

func (e *engine) newCollectSink(path string) *collectSink {
	return &collectSink{e: e, path: path, cap: newFileCap(e.cfg.MaxCount), last: -1}
}

func (s *collectSink) Matched(line []byte, num uint64) bool {
	if s.cap.full() {
		return false
	}
	m := s.e.newMatch(s.path, line, num)
	m.Context, s.pending = s.pending, nil
	s.matches = append(s.matches, m)
	s.last = len(s.matches) - 1
	return s.cap.add()
}

func (s *collectSink) Context(kind searcher.ContextKind, line []byte, num uint64) bool {
	if s.cap.full() {
		return false
	}
	c := newContextLine(s.path, kind, line, num)
	if c.Kind == ContextBefore {
		s.pending = append(s.pending, c)
	} else if s.last >= 0 {
		s.matches[s.last].Context = append(s.matches[s.last].Context, c)
	}
	return true
}

// callbackSink turns scanner events into records for a caller's Sink.
type callbackSink struct {
	e    *engine
	path string
	cap  fileCap
	out  Sink
}

func (e *engine) newCallbackSink(path string, out Sink) *callbackSink {
	return &callbackSink{e: e, path: path, cap: newFileCap(e.cfg.MaxCount), out: out}
}

func (s *callbackSink) Matched(line []byte, num uint64) bool {
	if s.cap.full() {
		return false
	}
	m := s.e.newMatch(s.path, line, num)
	keep := s.out.Matched(&m)
	more := s.cap.add()
	return keep && more
}

func (s *callbackSink) Context(kind searcher.ContextKind, line []byte, num uint64) bool {
	if s.cap.full() {
		return false
	}
	c := newContextLine(s.path, kind, line, num)
	return s.out.Context(&c)
}

func (s *callbackSink) Finish() { s.out.Finish() }

type countSink struct {
	cap fileCap
}

func (s *countSink) Matched([]byte, uint64) bool {
	if s.cap.full() {
		return false
	}
	return s.cap.add()
}

func (s *countSink) Context(searcher.ContextKind, []byte, uint64) bool { return true }

type firstMatchSink struct {
	cap   fileCap
	found bool
}

func (s *firstMatchSink) Matched([]byte, uint64) bool {
	s.found = !s.cap.full()
	return false
}

func (s *firstMatchSink) Context(searcher.ContextKind, []byte, uint64) bool { return true }

var (
	_ searcher.Sink     = (*collectSink)(nil)
	_ searcher.Sink     = (*callbackSink)(nil)
	_ searcher.Finisher = (*callbackSink)(nil)
	_ searcher.Sink     = (*countSink)(nil)
	_ searcher.Sink     = (*firstMatchSink)(nil)
)
