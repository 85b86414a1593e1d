package filter

import (
	"path/filepath"
	"sort"
	"strings"
)

// TypeDef is a named group of file name globs.
type TypeDef struct {
	Name  string
	Globs []string
}

var defaultTypes = []TypeDef{
	{"c", []string{"*.[chH]", "*.[chH].in", "*.cats"}},
	{"cpp", []string{"*.[ChH]", "*.cc", "*.[ch]pp", "*.[ch]xx", "*.hh", "*.inl"}},
	{"css", []string{"*.css", "*.scss"}},
	{"csv", []string{"*.csv"}},
	{"docker", []string{"*Dockerfile*"}},
	{"go", []string{"*.go"}},
	{"h", []string{"*.h", "*.hpp"}},
	{"html", []string{"*.htm", "*.html", "*.ejs"}},
	{"java", []string{"*.java", "*.jsp", "*.jspx", "*.properties"}},
	{"js", []string{"*.js", "*.jsx", "*.vue", "*.cjs", "*.mjs"}},
	{"json", []string{"*.json", "composer.lock"}},
	{"make", []string{"[Gg][Nn][Uu]makefile", "[Mm]akefile", "*.mk", "*.mak"}},
	{"markdown", []string{"*.markdown", "*.md", "*.mdown", "*.mkdn"}},
	{"md", []string{"*.markdown", "*.md", "*.mdown", "*.mkdn"}},
	{"proto", []string{"*.proto"}},
	{"py", []string{"*.py", "*.pyi"}},
	{"rb", []string{"Gemfile", "*.gemspec", ".irbrc", "Rakefile", "*.rb"}},
	{"rust", []string{"*.rs"}},
	{"sh", []string{"*.bash", "*.sh", "*.zsh", ".bashrc", ".zshrc", ".profile"}},
	{"sql", []string{"*.sql", "*.psql"}},
	{"toml", []string{"*.toml", "Cargo.lock"}},
	{"ts", []string{"*.ts", "*.tsx", "*.cts", "*.mts"}},
	{"txt", []string{"*.txt"}},
	{"xml", []string{"*.xml", "*.xml.dist"}},
	{"yaml", []string{"*.yaml", "*.yml"}},
}

type typeSelection struct {
	name   string
	negate bool
}

// TypesBuilder collects type definitions and the selected/negated type names.
type TypesBuilder struct {
	defs       map[string][]string
	selections []typeSelection
}

// NewTypesBuilder returns an empty builder. Call AddDefaults for the
// built-in definitions.
func NewTypesBuilder() *TypesBuilder {
	return &TypesBuilder{defs: make(map[string][]string)}
}

// AddDefaults registers the built-in type definitions.
func (b *TypesBuilder) AddDefaults() *TypesBuilder {
	for _, d := range defaultTypes {
		b.defs[d.Name] = append(b.defs[d.Name], d.Globs...)
	}
	return b
}

// Add appends glob to the definition of name, creating it if needed.
func (b *TypesBuilder) Add(name, glob string) error {
	if name == "" || name == "all" || strings.ContainsAny(name, ":,") {
		return &TypeError{Name: name, Msg: "invalid type name"}
	}
	if _, err := compileGlob(glob); err != nil {
		return &TypeError{Name: name, Msg: err.Error()}
	}
	if strings.Contains(filepath.ToSlash(glob), "/") {
		return &TypeError{Name: name, Msg: "type globs match file names and cannot contain a path separator"}
	}
	b.defs[name] = append(b.defs[name], glob)
	return nil
}

// Select restricts matching files to the named type. "all" selects every
// defined type.
func (b *TypesBuilder) Select(name string) *TypesBuilder {
	b.selections = append(b.selections, typeSelection{name: name})
	return b
}

// Negate ignores files of the named type. "all" negates every defined type.
func (b *TypesBuilder) Negate(name string) *TypesBuilder {
	b.selections = append(b.selections, typeSelection{name: name, negate: true})
	return b
}

// Definitions returns the known definitions sorted by name.
func (b *TypesBuilder) Definitions() []TypeDef {
	out := make([]TypeDef, 0, len(b.defs))
	for name, globs := range b.defs {
		out = append(out, TypeDef{Name: name, Globs: append([]string(nil), globs...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Build compiles the selections. Selecting or negating an undefined type is
// an error.
func (b *TypesBuilder) Build() (*Types, error) {
	t := &Types{}
	for _, sel := range b.selections {
		names := []string{sel.name}
		if sel.name == "all" {
			names = names[:0]
			for _, d := range b.Definitions() {
				names = append(names, d.Name)
			}
		}
		for _, name := range names {
			globs, ok := b.defs[name]
			if !ok {
				return nil, &TypeError{Name: name, Msg: "unrecognized file type"}
			}
			for _, raw := range globs {
				g, err := compileGlob(raw)
				if err != nil {
					return nil, &TypeError{Name: name, Msg: err.Error()}
				}
				g.basename = true
				t.globs = append(t.globs, typeGlob{compiledGlob: g, name: name, negate: sel.negate})
			}
		}
		if !sel.negate {
			t.selected++
		}
	}
	return t, nil
}

type typeGlob struct {
	compiledGlob
	name   string
	negate bool
}

// Types is a compiled file type matcher. It is safe for concurrent use.
type Types struct {
	globs    []typeGlob
	selected int
}

// Len returns the number of compiled globs.
func (t *Types) Len() int {
	if t == nil {
		return 0
	}
	return len(t.globs)
}

// Matched returns the type verdict for path. Directories are never matched.
// The last matching glob decides; a file matching nothing is ignored when
// at least one type was selected.
func (t *Types) Matched(path string, isDir bool) Match {
	if t == nil || isDir {
		return None
	}
	base := filepath.Base(path)
	for i := len(t.globs) - 1; i >= 0; i-- {
		g := t.globs[i]
		if !g.matches(base, base, false) {
			continue
		}
		if g.negate {
			return Ignore
		}
		return Whitelist
	}
	if t.selected > 0 {
		return Ignore
	}
	return None
}
