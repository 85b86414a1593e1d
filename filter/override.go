package filter

import (
	"path/filepath"
	"strings"
)

type overrideGlob struct {
	compiledGlob
	negated bool
}

// OverrideBuilder accumulates override globs relative to a root directory.
//
// A plain glob whitelists matching paths; a glob prefixed with "!" ignores
// them. Once any whitelist glob exists, files matching none of the globs are
// ignored. When several globs match, the last one added wins.
type OverrideBuilder struct {
	root  string
	globs []overrideGlob
}

// NewOverrideBuilder creates a builder whose globs are matched relative to root.
func NewOverrideBuilder(root string) *OverrideBuilder {
	return &OverrideBuilder{root: filepath.Clean(root)}
}

// Add compiles and appends a glob.
func (b *OverrideBuilder) Add(glob string) error {
	raw := glob
	negated := false
	if strings.HasPrefix(glob, "!") {
		negated = true
		glob = glob[1:]
	}
	g, err := compileGlob(glob)
	if err != nil {
		if ge, ok := err.(*GlobError); ok {
			ge.Glob = raw
		}
		return err
	}
	b.globs = append(b.globs, overrideGlob{compiledGlob: g, negated: negated})
	return nil
}

// Build returns the immutable override set.
func (b *OverrideBuilder) Build() *Override {
	o := &Override{root: b.root, globs: make([]overrideGlob, len(b.globs))}
	copy(o.globs, b.globs)
	for _, g := range o.globs {
		if !g.negated {
			o.whitelists++
		}
	}
	return o
}

// Override is a compiled set of override globs. It is safe for concurrent use.
type Override struct {
	root       string
	globs      []overrideGlob
	whitelists int
}

// Len returns the number of globs.
func (o *Override) Len() int {
	if o == nil {
		return 0
	}
	return len(o.globs)
}

// Matched returns the override verdict for path.
func (o *Override) Matched(path string, isDir bool) Match {
	if o.Len() == 0 {
		return None
	}
	rel := o.relative(path)
	base := filepath.Base(path)
	for i := len(o.globs) - 1; i >= 0; i-- {
		g := o.globs[i]
		if !g.matches(rel, base, isDir) {
			continue
		}
		if g.negated {
			return Ignore
		}
		return Whitelist
	}
	if o.whitelists > 0 && !isDir {
		return Ignore
	}
	return None
}

func (o *Override) relative(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	if filepath.IsAbs(o.root) {
		if rel, err := filepath.Rel(o.root, path); err == nil && !escapesRoot(rel) {
			return filepath.ToSlash(rel)
		}
	}
	return strings.TrimPrefix(filepath.ToSlash(path), "/")
}

// escapesRoot reports whether rel, as returned by filepath.Rel, leaves the
// root. Names like "..foo" are ordinary children.
func escapesRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
