// Package gosearch searches directory trees for lines matching a pattern.
//
// A search is configured with a Builder and run by one of its terminal
// methods, which differ only in how results are consumed:
//
//	matches, err := gosearch.New("TODO").
//		Path("./src").
//		Type("go").
//		SmartCase().
//		Build()
//
// Build materializes every record, SearchWith streams them to a Sink,
// Count only counts and FilesWithMatches lists the matching files.
package gosearch

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/dl/gosearch/filter"
	"github.com/dl/gosearch/internal/config"
	"github.com/dl/gosearch/internal/searcher"
)

// MmapChoice controls whether files are memory-mapped.
type MmapChoice = config.MmapChoice

const (
	MmapNever  = config.MmapNever  // read files into pooled buffers
	MmapAuto   = config.MmapAuto   // map files of at least 1 MiB
	MmapAlways = config.MmapAlways // map every non-empty file
)

// Builder accumulates the configuration of a search. Every setter mutates
// the builder and returns it. Terminal methods work on a copy, so a
// builder can be run several times.
type Builder struct {
	cfg    config.Config
	logger *log.Logger
}

// New returns a builder for pattern with the default settings: the
// current working directory as the only root, smart case, all ignore
// files honored, binary detection and line numbers on, one thread.
func New(pattern string) *Builder {
	return &Builder{cfg: config.New(pattern)}
}

// Rg is an alias for New.
func Rg(pattern string) *Builder { return New(pattern) }

// Path replaces the roots with path.
func (b *Builder) Path(path string) *Builder {
	b.cfg.Paths = []string{path}
	return b
}

// Paths replaces the roots. An empty list leaves them unchanged.
func (b *Builder) Paths(paths ...string) *Builder {
	if len(paths) > 0 {
		b.cfg.Paths = append([]string(nil), paths...)
	}
	return b
}

// Glob adds an override glob, relative to the working directory captured
// by New. A leading "!" excludes matching paths.
func (b *Builder) Glob(glob string) *Builder {
	b.cfg.Globs = append(b.cfg.Globs, glob)
	return b
}

// Type restricts the search to files of the named type.
func (b *Builder) Type(name string) *Builder {
	b.cfg.Types = append(b.cfg.Types, name)
	return b
}

// TypeNot excludes files of the named type.
func (b *Builder) TypeNot(name string) *Builder {
	b.cfg.TypeNot = append(b.cfg.TypeNot, name)
	return b
}

// TypeAdd adds glob to the definition of the named type.
func (b *Builder) TypeAdd(name, glob string) *Builder {
	b.cfg.TypeDefs = append(b.cfg.TypeDefs, config.TypeDef{Name: name, Glob: glob})
	return b
}

// Types uses a prebuilt type matcher and drops the names and definitions
// given so far.
func (b *Builder) Types(t *filter.Types) *Builder {
	b.cfg.TypesOverride = t
	b.cfg.Types = nil
	b.cfg.TypeNot = nil
	b.cfg.TypeDefs = nil
	return b
}

// Overrides uses a prebuilt override set and drops the globs given so far.
func (b *Builder) Overrides(o *filter.Override) *Builder {
	b.cfg.Overrides = o
	b.cfg.Globs = nil
	return b
}

// MaxDepth limits how deep the walk descends. Roots are depth 0.
func (b *Builder) MaxDepth(depth int) *Builder {
	b.cfg.MaxDepth = &depth
	return b
}

// MaxFilesize skips files larger than size bytes.
func (b *Builder) MaxFilesize(size int64) *Builder {
	b.cfg.MaxFilesize = &size
	return b
}

// Hidden includes hidden files and directories.
func (b *Builder) Hidden(yes bool) *Builder {
	b.cfg.Hidden = yes
	return b
}

// Follow follows symbolic links.
func (b *Builder) Follow(yes bool) *Builder {
	b.cfg.FollowLinks = yes
	return b
}

// Ignore turns every ignore file source on or off.
func (b *Builder) Ignore(yes bool) *Builder {
	b.cfg.IgnoreFiles = yes
	b.cfg.IgnoreParent = yes
	b.cfg.IgnoreVCS = yes
	return b
}

// IgnoreParent controls whether ignore files above the roots apply.
func (b *Builder) IgnoreParent(yes bool) *Builder {
	b.cfg.IgnoreParent = yes
	return b
}

// IgnoreFiles controls .ignore and .rgignore files.
func (b *Builder) IgnoreFiles(yes bool) *Builder {
	b.cfg.IgnoreFiles = yes
	return b
}

// IgnoreVCS controls .gitignore, .git/info/exclude and the global git
// excludes file.
func (b *Builder) IgnoreVCS(yes bool) *Builder {
	b.cfg.IgnoreVCS = yes
	return b
}

// SmartCase matches case-insensitively unless the pattern has an
// uppercase letter.
func (b *Builder) SmartCase() *Builder {
	b.cfg.CaseMode = config.CaseSmart
	return b
}

func (b *Builder) IgnoreCase() *Builder {
	b.cfg.CaseMode = config.CaseInsensitive
	return b
}

func (b *Builder) CaseSensitive() *Builder {
	b.cfg.CaseMode = config.CaseSensitive
	return b
}

// FixedStrings treats the pattern as literal text. A pattern with several
// lines matches any of them.
func (b *Builder) FixedStrings(yes bool) *Builder {
	b.cfg.FixedStrings = yes
	return b
}

// Word only matches at word boundaries.
func (b *Builder) Word(yes bool) *Builder {
	b.cfg.Word = yes
	return b
}

// LineRegexp only matches whole lines.
func (b *Builder) LineRegexp(yes bool) *Builder {
	b.cfg.LineRegexp = yes
	return b
}

func (b *Builder) BeforeContext(lines int) *Builder {
	b.cfg.BeforeContext = max(lines, 0)
	return b
}

func (b *Builder) AfterContext(lines int) *Builder {
	b.cfg.AfterContext = max(lines, 0)
	return b
}

// Context sets both the before and after context.
func (b *Builder) Context(lines int) *Builder {
	return b.BeforeContext(lines).AfterContext(lines)
}

// MaxCount stops each file after n matches. The limit is per file; zero
// yields no matches at all.
func (b *Builder) MaxCount(n int) *Builder {
	b.cfg.MaxCount = &n
	return b
}

// BinaryDetection controls whether a NUL byte ends the scan of a file.
func (b *Builder) BinaryDetection(yes bool) *Builder {
	b.cfg.BinaryDetection = yes
	return b
}

// LineNumbers controls whether records carry line numbers.
func (b *Builder) LineNumbers(yes bool) *Builder {
	b.cfg.LineNumbers = yes
	return b
}

// Threads sets the number of search workers. More than one thread walks
// and searches in parallel, and files are no longer reported in a
// deterministic order.
func (b *Builder) Threads(n int) *Builder {
	b.cfg.Threads = n
	return b
}

func (b *Builder) MemoryMap(choice MmapChoice) *Builder {
	b.cfg.MemoryMap = choice
	return b
}

// HeapLimit bounds the memory used for a single line when a source is
// streamed. A longer line fails the search with an I/O error.
func (b *Builder) HeapLimit(bytes int64) *Builder {
	b.cfg.HeapLimit = bytes
	return b
}

func (b *Builder) NoHeapLimit() *Builder {
	b.cfg.HeapLimit = 0
	return b
}

// EngineDefault selects the RE2 engine from the standard library.
func (b *Builder) EngineDefault() *Builder {
	b.cfg.Engine = config.EngineDefault
	return b
}

// PCRE2 selects the PCRE2 engine, which supports look-around and
// backreferences.
func (b *Builder) PCRE2() *Builder {
	b.cfg.Engine = config.EnginePCRE2
	return b
}

// Logger sets the logger for debug output. By default nothing is logged.
func (b *Builder) Logger(l *log.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) engine() (*engine, error) {
	return newEngine(b.cfg.Clone(), b.logger)
}

// Build runs the search to completion and returns its records in walk
// order.
func (b *Builder) Build() (*Search, error) {
	e, err := b.engine()
	if err != nil {
		return nil, err
	}
	defer e.close()
	matches, err := e.collect()
	if err != nil {
		return nil, err
	}
	return &Search{matches: matches}, nil
}

// SearchWith streams records to sink as they are found.
func (b *Builder) SearchWith(sink Sink) error {
	e, err := b.engine()
	if err != nil {
		return err
	}
	defer e.close()
	return e.stream(sink)
}

// ForEach calls fn for every match. Returning false skips the rest of the
// current file.
func (b *Builder) ForEach(fn func(m *Match) bool) error {
	return b.SearchWith(MatchFunc(fn))
}

// ForEachWithContext is ForEach with a second callback for context lines.
func (b *Builder) ForEachWithContext(onMatch func(m *Match) bool, onContext func(c *ContextLine) bool) error {
	return b.SearchWith(SinkFuncs{OnMatch: onMatch, OnContext: onContext})
}

// Count returns the number of matching lines.
func (b *Builder) Count() (uint64, error) {
	e, err := b.engine()
	if err != nil {
		return 0, err
	}
	defer e.close()
	return e.count()
}

// FilesWithMatches returns the sorted paths of the files with at least
// one match.
func (b *Builder) FilesWithMatches() ([]string, error) {
	e, err := b.engine()
	if err != nil {
		return nil, err
	}
	defer e.close()
	return e.filesWithMatches()
}

// WalkFiles returns the files a search would scan, in walk order. The
// pattern is not compiled.
func (b *Builder) WalkFiles() ([]string, error) {
	return newWalkEngine(b.cfg.Clone(), b.logger).walkFiles()
}

// SearchFile searches a single file, bypassing the walker and its filters.
func (b *Builder) SearchFile(path string) ([]Match, error) {
	e, err := b.engine()
	if err != nil {
		return nil, err
	}
	defer e.close()
	return e.collectSource(path, func(s searcher.Sink) error {
		return e.searcher.SearchPath(e.matcher, path, s)
	})
}

// SearchFileWith streams the records of a single file to sink.
func (b *Builder) SearchFileWith(path string, sink Sink) error {
	e, err := b.engine()
	if err != nil {
		return err
	}
	defer e.close()
	return e.streamSource(path, sink, func(s searcher.Sink) error {
		return e.searcher.SearchPath(e.matcher, path, s)
	})
}

// SearchReader searches r. Records are attributed to "<reader>".
func (b *Builder) SearchReader(r io.Reader) ([]Match, error) {
	return b.SearchReaderNamed(readerSource, r)
}

// SearchReaderNamed searches r, attributing records to name.
func (b *Builder) SearchReaderNamed(name string, r io.Reader) ([]Match, error) {
	e, err := b.engine()
	if err != nil {
		return nil, err
	}
	defer e.close()
	return e.collectSource(name, func(s searcher.Sink) error {
		return e.searcher.SearchReader(e.matcher, r, s)
	})
}

// SearchSlice searches data. Records are attributed to "<memory>".
func (b *Builder) SearchSlice(data []byte) ([]Match, error) {
	return b.SearchSliceNamed(memorySource, data)
}

// SearchSliceNamed searches data, attributing records to name.
func (b *Builder) SearchSliceNamed(name string, data []byte) ([]Match, error) {
	e, err := b.engine()
	if err != nil {
		return nil, err
	}
	defer e.close()
	return e.collectSource(name, func(s searcher.Sink) error {
		return e.searcher.SearchSlice(e.matcher, data, s)
	})
}

func (b *Builder) SearchReaderWith(r io.Reader, sink Sink) error {
	return b.SearchReaderWithNamed(readerSource, r, sink)
}

func (b *Builder) SearchReaderWithNamed(name string, r io.Reader, sink Sink) error {
	e, err := b.engine()
	if err != nil {
		return err
	}
	defer e.close()
	return e.streamSource(name, sink, func(s searcher.Sink) error {
		return e.searcher.SearchReader(e.matcher, r, s)
	})
}

func (b *Builder) SearchSliceWith(data []byte, sink Sink) error {
	return b.SearchSliceWithNamed(memorySource, data, sink)
}

func (b *Builder) SearchSliceWithNamed(name string, data []byte, sink Sink) error {
	e, err := b.engine()
	if err != nil {
		return err
	}
	defer e.close()
	return e.streamSource(name, sink, func(s searcher.Sink) error {
		return e.searcher.SearchSlice(e.matcher, data, s)
	})
}
