package config

import (
	"os"

	"github.com/dl/gosearch/filter"
)

// CaseMode controls how letter case affects matching.
type CaseMode int

const (
	CaseSmart       CaseMode = iota // insensitive unless the pattern has an uppercase literal
	CaseInsensitive                 // always insensitive
	CaseSensitive                   // always sensitive
)

func (m CaseMode) String() string {
	switch m {
	case CaseInsensitive:
		return "insensitive"
	case CaseSensitive:
		return "sensitive"
	default:
		return "smart"
	}
}

// Engine selects the regex backend.
type Engine int

const (
	EngineDefault Engine = iota // RE2 (regexp), with literal fast paths
	EnginePCRE2                 // PCRE2-compatible (go.elara.ws/pcre)
)

func (e Engine) String() string {
	if e == EnginePCRE2 {
		return "pcre2"
	}
	return "default"
}

// MmapChoice controls whether files are memory-mapped.
type MmapChoice int

const (
	MmapNever  MmapChoice = iota // always read into a pooled buffer
	MmapAuto                     // mmap files at or above MmapThreshold
	MmapAlways                   // mmap every non-empty file
)

// DefaultMmapThreshold is the file size at which MmapAuto switches to mmap.
const DefaultMmapThreshold = 1 << 20

// TypeDef is a custom file type definition added by name.
type TypeDef struct {
	Name string
	Glob string
}

// Config holds every parameter of a search. It is plain data: nothing here
// validates, and building one never fails.
type Config struct {
	Pattern string
	Paths   []string

	Globs         []string
	Types         []string
	TypeNot       []string
	TypeDefs      []TypeDef
	Overrides     *filter.Override
	TypesOverride *filter.Types

	MaxDepth        *int
	MaxFilesize     *int64
	Hidden          bool
	FollowLinks     bool
	IgnoreFiles     bool
	IgnoreParent    bool
	IgnoreVCS       bool
	BeforeContext   int
	AfterContext    int
	MaxCount        *int
	CaseMode        CaseMode
	FixedStrings    bool
	Word            bool
	LineRegexp      bool
	BinaryDetection bool
	LineNumbers     bool

	Engine        Engine
	Threads       int
	MemoryMap     MmapChoice
	MmapThreshold int64
	HeapLimit     int64 // 0 means unlimited

	// Cwd is the working directory captured when the config was created.
	// It is the default root and the base for relative override globs.
	Cwd string
}

// New returns a Config with the default settings for pattern. The current
// working directory is read once, here.
func New(pattern string) Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return Config{
		Pattern:         pattern,
		Paths:           []string{cwd},
		IgnoreFiles:     true,
		IgnoreParent:    true,
		IgnoreVCS:       true,
		CaseMode:        CaseSmart,
		BinaryDetection: true,
		LineNumbers:     true,
		Threads:         1,
		MemoryMap:       MmapNever,
		MmapThreshold:   DefaultMmapThreshold,
		Cwd:             cwd,
	}
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	out := c
	out.Paths = append([]string(nil), c.Paths...)
	out.Globs = append([]string(nil), c.Globs...)
	out.Types = append([]string(nil), c.Types...)
	out.TypeNot = append([]string(nil), c.TypeNot...)
	out.TypeDefs = append([]TypeDef(nil), c.TypeDefs...)
	return out
}
