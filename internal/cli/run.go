package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dl/gosearch"
	"github.com/dl/gosearch/filter"
	"github.com/dl/gosearch/internal/output"
)

// Exit codes, grep style.
const (
	ExitMatch   = 0
	ExitNoMatch = 1
	ExitError   = 2
)

const stdinName = "<stdin>"

// env is the process state a run talks to.
type env struct {
	stdin  io.Reader // nil when stdin is a terminal
	stdout *os.File
	logger *log.Logger
}

// Run executes the search with the given config.
// Returns exit code: 0 = match found, 1 = no match, 2 = error.
func Run(cfg Config) int {
	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level: level,
	})

	e := env{stdout: os.Stdout, logger: logger}
	if !output.IsTerminal(os.Stdin.Fd()) {
		e.stdin = os.Stdin
	}
	return run(cfg, e)
}

func run(cfg Config, e env) int {
	if err := cfg.Validate(); err != nil {
		e.logger.Error("invalid arguments", "err", err)
		return ExitError
	}
	w := output.NewWriter(e.stdout)

	if cfg.TypeList {
		if err := listTypes(cfg, w); err != nil {
			e.logger.Error("type list", "err", err)
			return ExitError
		}
		return ExitMatch
	}

	useStdin := len(cfg.Paths) == 0 && e.stdin != nil && !cfg.ListFiles
	if len(cfg.Paths) == 0 && !useStdin {
		cfg.Paths = []string{"."}
	}
	f := newFormatter(cfg, e.stdout, !useStdin && multiSource(cfg.Paths))
	b := cfg.Builder().Logger(e.logger)

	var (
		found bool
		err   error
	)
	switch {
	case cfg.ListFiles:
		found, err = printPaths(f, w, b.WalkFiles)
	case cfg.FileNamesOnly && !useStdin:
		found, err = printPaths(f, w, b.FilesWithMatches)
	default:
		p := newPrinter(cfg, f, w)
		if useStdin {
			err = b.SearchReaderWithNamed(stdinName, e.stdin, p)
		} else {
			err = b.SearchWith(p)
		}
		if err == nil {
			err = p.err
		}
		found = p.matched
	}
	if err != nil {
		e.logger.Error("search failed", "err", err)
		return ExitError
	}
	if found {
		return ExitMatch
	}
	return ExitNoMatch
}

// multiSource reports whether output lines need a file name: more than one
// root, or a directory root.
func multiSource(paths []string) bool {
	if len(paths) != 1 {
		return true
	}
	fi, err := os.Stat(paths[0])
	return err == nil && fi.IsDir()
}

func newFormatter(cfg Config, stdout *os.File, withPath bool) output.Formatter {
	if cfg.JSONOutput {
		return output.NewJSONFormatter()
	}

	useColor := false
	switch cfg.Color {
	case ColorAlways:
		useColor = true
	case ColorNever:
		useColor = false
	case ColorAuto:
		useColor = output.IsTerminal(stdout.Fd())
	}

	opts := output.TextOptions{
		WithPath:    withPath,
		LineNumbers: cfg.LineNumbers,
		Column:      cfg.Column,
	}
	if useColor {
		styles := output.NewStyles(output.NewRenderer(stdout, cfg.Color == ColorAlways))
		opts.Styles = &styles
	}
	return output.NewTextFormatter(opts)
}

func printPaths(f output.Formatter, w *output.Writer, list func() ([]string, error)) (bool, error) {
	paths, err := list()
	if err != nil {
		return false, err
	}
	var buf []byte
	for _, p := range paths {
		buf = f.Path(buf, p)
	}
	if _, err := w.Write(buf); err != nil {
		return false, err
	}
	return len(paths) > 0, nil
}

func listTypes(cfg Config, w *output.Writer) error {
	tb := filter.NewTypesBuilder().AddDefaults()
	for _, def := range cfg.TypeAdd {
		name, glob, _ := splitTypeDef(def)
		if err := tb.Add(name, glob); err != nil {
			return err
		}
	}
	var buf []byte
	for _, d := range tb.Definitions() {
		buf = append(buf, d.Name...)
		buf = append(buf, ": "...)
		buf = append(buf, strings.Join(d.Globs, ", ")...)
		buf = append(buf, '\n')
	}
	_, err := w.Write(buf)
	return err
}

// printer renders records as they stream in. Each file's output is
// buffered and written in one call when the file is finished, so lines
// from different files never interleave.
type printer struct {
	f output.Formatter
	w *output.Writer

	countOnly bool
	filesOnly bool
	context   bool

	buf     []byte
	path    string
	count   uint64
	last    uint64 // line number of the last printed line of this file
	printed bool   // some earlier file produced output
	matched bool
	err     error
}

func newPrinter(cfg Config, f output.Formatter, w *output.Writer) *printer {
	return &printer{
		f:         f,
		w:         w,
		countOnly: cfg.CountOnly,
		filesOnly: cfg.FileNamesOnly,
		context:   cfg.ContextBefore > 0 || cfg.ContextAfter > 0 || cfg.Context > 0,
	}
}

func (p *printer) Matched(m *gosearch.Match) bool {
	if p.err != nil {
		return false
	}
	p.matched = true
	p.path = m.Path
	switch {
	case p.filesOnly:
		p.buf = p.f.Path(p.buf, m.Path)
		return false
	case p.countOnly:
		p.count++
		return true
	}
	p.gap(m.LineNumber)
	p.buf = p.f.Match(p.buf, m)
	return true
}

func (p *printer) Context(c *gosearch.ContextLine) bool {
	if p.err != nil {
		return false
	}
	p.gap(c.LineNumber)
	p.buf = p.f.Context(p.buf, c)
	return true
}

// gap writes a break before a line that does not continue the previous
// group, including the first group of every file after the first.
func (p *printer) gap(num uint64) {
	if p.context {
		if (p.last == 0 && p.printed) || (p.last > 0 && num > p.last+1) {
			p.buf = p.f.Break(p.buf)
		}
	}
	p.last = num
}

func (p *printer) Finish() {
	if p.countOnly && p.count > 0 {
		p.buf = p.f.Count(p.buf, output.Result{Path: p.path, Count: p.count})
	}
	if len(p.buf) > 0 && p.err == nil {
		_, p.err = p.w.Write(p.buf)
		p.printed = true
	}
	p.buf = p.buf[:0]
	p.path = ""
	p.count = 0
	p.last = 0
}

var _ gosearch.Sink = (*printer)(nil)
