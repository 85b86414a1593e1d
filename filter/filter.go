// Package filter holds the path filters applied while walking a tree:
// glob overrides and named file types.
//
// Both filters answer the same question for a path: ignore it, whitelist it,
// or have no opinion. The walker combines that answer with hidden-file and
// ignore-file rules.
package filter

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match is the verdict of a filter for a single path.
type Match int

const (
	None      Match = iota // filter has no opinion
	Ignore                 // path must be skipped
	Whitelist              // path must be kept, regardless of later filters
)

func (m Match) String() string {
	switch m {
	case Ignore:
		return "ignore"
	case Whitelist:
		return "whitelist"
	default:
		return "none"
	}
}

// GlobError reports a glob that could not be compiled.
type GlobError struct {
	Glob string
	Msg  string
}

func (e *GlobError) Error() string {
	return "glob " + quote(e.Glob) + ": " + e.Msg
}

// TypeError reports a malformed type definition or an unknown type name.
type TypeError struct {
	Name string
	Msg  string
}

func (e *TypeError) Error() string {
	return "type " + quote(e.Name) + ": " + e.Msg
}

func quote(s string) string {
	return "\"" + s + "\""
}

// compiledGlob is a validated glob with gitignore-style anchoring rules:
// a glob without a slash matches the base name at any depth, a glob with a
// slash matches the path relative to the filter root.
type compiledGlob struct {
	pattern  string
	basename bool
	dirOnly  bool
}

func compileGlob(raw string) (compiledGlob, error) {
	p := filepath.ToSlash(raw)
	g := compiledGlob{}
	if strings.HasSuffix(p, "/") && len(p) > 1 {
		g.dirOnly = true
		p = strings.TrimSuffix(p, "/")
	}
	if strings.HasPrefix(p, "/") {
		p = strings.TrimPrefix(p, "/")
	} else if !strings.Contains(p, "/") {
		g.basename = true
	}
	if p == "" {
		return compiledGlob{}, &GlobError{Glob: raw, Msg: "empty pattern"}
	}
	if !doublestar.ValidatePattern(p) {
		return compiledGlob{}, &GlobError{Glob: raw, Msg: "malformed pattern"}
	}
	g.pattern = p
	return g, nil
}

func (g compiledGlob) matches(rel, base string, isDir bool) bool {
	if g.dirOnly && !isDir {
		return false
	}
	subject := rel
	if g.basename {
		subject = base
	}
	ok, err := doublestar.Match(g.pattern, subject)
	return err == nil && ok
}
