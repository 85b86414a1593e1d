package walker

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/dl/gosearch/filter"
)

// ignoreLayer holds the rules of one ignore file, matched relative to the
// directory the file applies to. Negated lines are compiled a second time
// into allow, so a deeper file can whitelist what a shallower one ignores.
type ignoreLayer struct {
	dir    string
	source string
	ignore *ignore.GitIgnore
	allow  *ignore.GitIgnore // nil when the file has no negated lines
}

// loadIgnoreFile compiles the ignore file at path for paths under dir.
// A missing or unreadable file yields no layer.
func loadIgnoreFile(dir, path string) (ignoreLayer, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ignoreLayer{}, false
	}
	lines := strings.Split(string(data), "\n")
	var allowed []string
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		lines[i] = line
		if strings.HasPrefix(line, "!") && len(line) > 1 {
			allowed = append(allowed, line[1:])
		}
	}
	l := ignoreLayer{dir: dir, source: path, ignore: ignore.CompileIgnoreLines(lines...)}
	if len(allowed) > 0 {
		l.allow = ignore.CompileIgnoreLines(allowed...)
	}
	return l, true
}

// verdict reports how this layer treats abs, an absolute path.
func (l ignoreLayer) verdict(abs string, isDir bool) filter.Match {
	rel, ok := relativeTo(l.dir, abs)
	if !ok {
		return filter.None
	}
	if isDir {
		rel += "/"
	}
	if l.ignore.MatchesPath(rel) {
		return filter.Ignore
	}
	if l.allow != nil && l.allow.MatchesPath(rel) {
		return filter.Whitelist
	}
	return filter.None
}

// relativeTo returns path relative to dir when path lies below dir.
func relativeTo(dir, path string) (string, bool) {
	if dir == "/" {
		return strings.TrimPrefix(path, "/"), len(path) > 1
	}
	if len(path) <= len(dir) || !strings.HasPrefix(path, dir) || path[len(dir)] != '/' {
		return "", false
	}
	return path[len(dir)+1:], true
}

// isIgnoredByLayers checks layers from the most specific (last) to the
// least specific; the first layer with an opinion decides.
func isIgnoredByLayers(layers []ignoreLayer, abs string, isDir bool) bool {
	for i := len(layers) - 1; i >= 0; i-- {
		switch layers[i].verdict(abs, isDir) {
		case filter.Ignore:
			return true
		case filter.Whitelist:
			return false
		}
	}
	return false
}

// dirLayers loads the ignore files that live in dir, lowest precedence
// first: .git/info/exclude, .gitignore, .ignore, .rgignore.
func (w *Walker) dirLayers(dir string) []ignoreLayer {
	var names []string
	if w.opts.IgnoreVCS {
		names = append(names, ".git/info/exclude", ".gitignore")
	}
	if w.opts.IgnoreFiles {
		names = append(names, ".ignore", ".rgignore")
	}
	var layers []ignoreLayer
	for _, name := range names {
		if l, ok := loadIgnoreFile(dir, joinPath(dir, name)); ok {
			layers = append(layers, l)
		}
	}
	return layers
}

// childLayers returns parent extended with the layers found in dir. The
// parent slice is never modified, so it can be shared between goroutines.
func (w *Walker) childLayers(parent []ignoreLayer, dir string) []ignoreLayer {
	own := w.dirLayers(dir)
	if len(own) == 0 {
		return parent
	}
	out := make([]ignoreLayer, 0, len(parent)+len(own))
	out = append(out, parent...)
	return append(out, own...)
}

// baseLayers returns the layers that apply to a root before its own ignore
// files: the global git excludes file, then the ignore files of every
// parent directory up to the enclosing repository.
func (w *Walker) baseLayers(absRoot string) []ignoreLayer {
	var layers []ignoreLayer
	repo := findRepoRoot(absRoot)

	if w.opts.IgnoreVCS {
		if path := globalIgnorePath(); path != "" {
			anchor := repo
			if anchor == "" {
				anchor = absRoot
			}
			if l, ok := loadIgnoreFile(anchor, path); ok {
				layers = append(layers, l)
			}
		}
	}

	if !w.opts.IgnoreParent || repo == absRoot || absRoot == filepath.Dir(absRoot) {
		return layers
	}
	var parents []string
	for dir := filepath.Dir(absRoot); ; dir = filepath.Dir(dir) {
		parents = append(parents, dir)
		if dir == repo || dir == filepath.Dir(dir) {
			break
		}
	}
	for i := len(parents) - 1; i >= 0; i-- {
		layers = append(layers, w.dirLayers(parents[i])...)
	}
	return layers
}

// findRepoRoot returns the closest directory at or above dir that holds a
// .git entry, or "" outside of a repository.
func findRepoRoot(dir string) string {
	for {
		if _, err := os.Lstat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// globalIgnorePath returns git's default global excludes file.
func globalIgnorePath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "git", "ignore")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "git", "ignore")
	}
	return ""
}
