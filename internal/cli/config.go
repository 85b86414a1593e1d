package cli

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/dl/gosearch"
)

// ColorMode controls when colored output is used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // color when stdout is a terminal
	ColorAlways                  // always use color
	ColorNever                   // never use color
)

// ParseColorMode parses the --color flag value.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return 0, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Config holds all configuration for a gosearch run.
type Config struct {
	Pattern string
	Paths   []string

	// Case flags. When several are set, -s beats -i beats -S.
	CaseSensitive bool
	IgnoreCase    bool
	SmartCase     bool

	Fixed      bool
	Word       bool
	LineRegexp bool
	PCRE       bool

	ContextBefore int
	ContextAfter  int
	Context       int
	MaxCount      int // negative means unlimited

	CountOnly     bool
	FileNamesOnly bool
	ListFiles     bool
	TypeList      bool

	Hidden         bool
	FollowSymlinks bool
	NoIgnore       bool
	NoIgnoreParent bool
	NoIgnoreVCS    bool
	MaxDepth       int    // negative means unlimited
	MaxFilesize    string // e.g. "512K", "10M"; empty means unlimited
	Globs          []string
	Types          []string
	TypeNot        []string
	TypeAdd        []string // "name:glob"

	Text        bool // search binary files as text
	LineNumbers bool
	Column      bool
	JSONOutput  bool
	Color       ColorMode
	Workers     int // 0 means one per CPU
	Mmap        string
	Debug       bool
}

// Validate checks that the config is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Pattern == "" && !c.ListFiles && !c.TypeList {
		return fmt.Errorf("no pattern specified")
	}
	if c.Fixed && c.PCRE {
		return fmt.Errorf("cannot use -F (fixed) and -P (pcre) together")
	}
	if c.ContextBefore < 0 {
		return fmt.Errorf("invalid context before: %d", c.ContextBefore)
	}
	if c.ContextAfter < 0 {
		return fmt.Errorf("invalid context after: %d", c.ContextAfter)
	}
	if c.Context < 0 {
		return fmt.Errorf("invalid context: %d", c.Context)
	}
	if c.CountOnly && c.FileNamesOnly {
		return fmt.Errorf("cannot use -c (count) and -l (files-with-matches) together")
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid thread count: %d", c.Workers)
	}
	if _, err := parseMmap(c.Mmap); err != nil {
		return err
	}
	if _, err := parseSize(c.MaxFilesize); err != nil {
		return err
	}
	for _, def := range c.TypeAdd {
		if _, _, err := splitTypeDef(def); err != nil {
			return err
		}
	}
	return nil
}

// Builder converts the flags into a search builder. The config must have
// passed Validate.
func (c *Config) Builder() *gosearch.Builder {
	b := gosearch.New(c.Pattern)
	if len(c.Paths) > 0 {
		b.Paths(c.Paths...)
	}

	switch {
	case c.CaseSensitive:
		b.CaseSensitive()
	case c.IgnoreCase:
		b.IgnoreCase()
	default:
		b.SmartCase()
	}
	b.FixedStrings(c.Fixed).Word(c.Word).LineRegexp(c.LineRegexp)
	if c.PCRE {
		b.PCRE2()
	}

	if !c.CountOnly && !c.FileNamesOnly {
		before, after := c.ContextBefore, c.ContextAfter
		if c.Context > 0 {
			before, after = max(before, c.Context), max(after, c.Context)
		}
		b.BeforeContext(before).AfterContext(after)
	}
	if c.MaxCount >= 0 {
		b.MaxCount(c.MaxCount)
	}

	b.Hidden(c.Hidden).Follow(c.FollowSymlinks)
	if c.NoIgnore {
		b.Ignore(false)
	}
	if c.NoIgnoreParent {
		b.IgnoreParent(false)
	}
	if c.NoIgnoreVCS {
		b.IgnoreVCS(false)
	}
	if c.MaxDepth >= 0 {
		b.MaxDepth(c.MaxDepth)
	}
	if size, _ := parseSize(c.MaxFilesize); size > 0 {
		b.MaxFilesize(size)
	}
	for _, g := range c.Globs {
		b.Glob(g)
	}
	for _, def := range c.TypeAdd {
		name, glob, _ := splitTypeDef(def)
		b.TypeAdd(name, glob)
	}
	for _, t := range c.Types {
		b.Type(t)
	}
	for _, t := range c.TypeNot {
		b.TypeNot(t)
	}

	threads := c.Workers
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	mmap, _ := parseMmap(c.Mmap)
	return b.
		BinaryDetection(!c.Text).
		LineNumbers(true).
		Threads(threads).
		MemoryMap(mmap)
}

func parseMmap(s string) (gosearch.MmapChoice, error) {
	switch s {
	case "", "never":
		return gosearch.MmapNever, nil
	case "auto":
		return gosearch.MmapAuto, nil
	case "always":
		return gosearch.MmapAlways, nil
	}
	return 0, fmt.Errorf("invalid mmap choice %q (want never, auto or always)", s)
}

// parseSize parses a byte count with an optional K, M or G suffix.
func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	mult := int64(1)
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1 << 10
	case 'M', 'm':
		mult = 1 << 20
	case 'G', 'g':
		mult = 1 << 30
	}
	digits := s
	if mult > 1 {
		digits = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}

func splitTypeDef(def string) (name, glob string, err error) {
	name, glob, ok := strings.Cut(def, ":")
	if !ok || name == "" || glob == "" {
		return "", "", fmt.Errorf("invalid type definition %q (want name:glob)", def)
	}
	return name, glob, nil
}
