package output

import (
	"strconv"

	"github.com/dl/gosearch"
)

// TextOptions controls the text layout.
type TextOptions struct {
	WithPath    bool // prefix every line with its file name
	LineNumbers bool
	Column      bool
	// Styles enables color when non-nil.
	Styles *Styles
}

// TextFormatter formats records as grep-style text lines.
type TextFormatter struct {
	opts TextOptions
}

// NewTextFormatter creates a TextFormatter.
func NewTextFormatter(opts TextOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

func (f *TextFormatter) Match(buf []byte, m *gosearch.Match) []byte {
	buf = f.prefix(buf, m.Path, m.LineNumber, m.Column, ':')
	if f.opts.Styles != nil && len(m.Submatches) > 0 {
		buf = f.highlightMatches(buf, m.Bytes, m.Submatches)
	} else {
		buf = append(buf, m.Bytes...)
	}
	return append(buf, '\n')
}

func (f *TextFormatter) Context(buf []byte, c *gosearch.ContextLine) []byte {
	buf = f.prefix(buf, c.Path, c.LineNumber, 0, '-')
	if f.opts.Styles != nil {
		buf = append(buf, f.opts.Styles.Context.Render(string(c.Bytes))...)
	} else {
		buf = append(buf, c.Bytes...)
	}
	return append(buf, '\n')
}

func (f *TextFormatter) Break(buf []byte) []byte {
	return append(f.sep(buf, "--"), '\n')
}

func (f *TextFormatter) Count(buf []byte, r Result) []byte {
	if f.opts.WithPath {
		buf = f.path(buf, r.Path)
		buf = f.sep(buf, ":")
	}
	buf = strconv.AppendUint(buf, r.Count, 10)
	return append(buf, '\n')
}

func (f *TextFormatter) Path(buf []byte, path string) []byte {
	return append(f.path(buf, path), '\n')
}

// prefix writes "path:line:col:" with sep between the fields. Line and
// column are skipped when disabled or absent.
func (f *TextFormatter) prefix(buf []byte, path string, line uint64, col int, sep byte) []byte {
	s := string(sep)
	if f.opts.WithPath {
		buf = f.path(buf, path)
		buf = f.sep(buf, s)
	}
	if f.opts.LineNumbers && line > 0 {
		if f.opts.Styles != nil {
			buf = append(buf, f.opts.Styles.LineNum.Render(strconv.FormatUint(line, 10))...)
		} else {
			buf = strconv.AppendUint(buf, line, 10)
		}
		buf = f.sep(buf, s)
	}
	if f.opts.Column && col > 0 {
		buf = strconv.AppendInt(buf, int64(col), 10)
		buf = f.sep(buf, s)
	}
	return buf
}

func (f *TextFormatter) path(buf []byte, path string) []byte {
	if f.opts.Styles != nil {
		return append(buf, f.opts.Styles.Filename.Render(path)...)
	}
	return append(buf, path...)
}

func (f *TextFormatter) sep(buf []byte, s string) []byte {
	if f.opts.Styles != nil {
		return append(buf, f.opts.Styles.Separator.Render(s)...)
	}
	return append(buf, s...)
}

func (f *TextFormatter) highlightMatches(buf []byte, line []byte, subs []gosearch.SubMatch) []byte {
	prev := 0
	for _, sm := range subs {
		start, end := sm.Start, min(sm.End, len(line))
		if start > len(line) || start < prev {
			break
		}
		buf = append(buf, line[prev:start]...)
		if end > start {
			buf = append(buf, f.opts.Styles.Match.Render(string(line[start:end]))...)
		}
		prev = end
	}
	return append(buf, line[prev:]...)
}

var _ Formatter = (*TextFormatter)(nil)
