// Package walker traverses directory trees with raw getdents64 calls and
// applies the path filters of a search: overrides, hidden files, ignore
// files, file types, maximum depth and maximum file size.
package walker

import (
	"io"
	"path/filepath"
	"slices"
	"strings"
	"unsafe"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"

	"github.com/dl/gosearch/filter"
)

// EntryType classifies a directory entry.
type EntryType uint8

const (
	File EntryType = iota
	Dir
	Symlink // a link that was not followed, or a broken one
	Other   // devices, sockets, pipes
)

func (t EntryType) String() string {
	switch t {
	case File:
		return "file"
	case Dir:
		return "dir"
	case Symlink:
		return "symlink"
	default:
		return "other"
	}
}

// Entry is a path produced by the walker.
type Entry struct {
	Path  string
	Depth int // roots are depth 0
	Type  EntryType
	Size  int64 // 0 unless the entry had to be stat'ed
}

// IsFile reports whether the entry is a regular file.
func (e Entry) IsFile() bool { return e.Type == File }

// Options configures directory traversal behavior.
type Options struct {
	MaxDepth     *int
	MaxFilesize  *int64
	Hidden       bool // include hidden files and directories
	FollowLinks  bool
	IgnoreFiles  bool // .ignore and .rgignore
	IgnoreParent bool // ignore files of parent directories
	IgnoreVCS    bool // .gitignore, .git/info/exclude, global excludes

	// Overrides takes precedence over Globs, which are compiled relative
	// to GlobRoot.
	Overrides *filter.Override
	Globs     []string
	GlobRoot  string

	// Types takes precedence over the selections below.
	Types       *filter.Types
	TypeSelect  []string
	TypeNegate  []string
	TypeDefs    []filter.TypeDef
	TypesLoaded bool // set when TypeDefs already include the defaults

	Logger *log.Logger
}

// Walker walks a fixed set of roots. It is safe to call Walk or Stream
// several times; each call is an independent traversal.
type Walker struct {
	roots     []string
	opts      Options
	overrides *filter.Override
	types     *filter.Types
	logger    *log.Logger
}

// New validates the options and compiles globs and types. Compile errors
// are returned as *filter.GlobError or *filter.TypeError.
func New(roots []string, opts Options) (*Walker, error) {
	w := &Walker{
		roots:     slices.Clone(roots),
		opts:      opts,
		overrides: opts.Overrides,
		types:     opts.Types,
		logger:    opts.Logger,
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}

	if w.overrides == nil && len(opts.Globs) > 0 {
		root := opts.GlobRoot
		if root == "" {
			root = "."
		}
		b := filter.NewOverrideBuilder(root)
		for _, g := range opts.Globs {
			if err := b.Add(g); err != nil {
				return nil, err
			}
		}
		w.overrides = b.Build()
	}

	if w.types == nil && (len(opts.TypeSelect) > 0 || len(opts.TypeNegate) > 0 || len(opts.TypeDefs) > 0) {
		b := filter.NewTypesBuilder()
		if !opts.TypesLoaded {
			b.AddDefaults()
		}
		for _, def := range opts.TypeDefs {
			for _, g := range def.Globs {
				if err := b.Add(def.Name, g); err != nil {
					return nil, err
				}
			}
		}
		for _, name := range opts.TypeSelect {
			b.Select(name)
		}
		for _, name := range opts.TypeNegate {
			b.Negate(name)
		}
		t, err := b.Build()
		if err != nil {
			return nil, err
		}
		if t.Len() > 0 {
			w.types = t
		}
	}
	return w, nil
}

// fileID identifies a directory for symlink loop detection.
type fileID struct {
	dev uint64
	ino uint64
}

// walkItem represents a directory to be traversed.
type walkItem struct {
	path      string
	abs       string
	depth     int
	layers    []ignoreLayer // rules inherited from ancestors
	ancestors []fileID      // only tracked when following links
}

// child is a filtered directory entry. dir is set when the walker must
// descend into it.
type child struct {
	entry Entry
	dir   *walkItem
}

// root stats a root path and returns its entry and, for directories, the
// work item to descend into.
func (w *Walker) root(path string) (child, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return child{}, &WalkError{Path: path, Err: err}
	}
	e := Entry{Path: path, Type: modeType(st.Mode), Size: st.Size}
	if e.Type != Dir {
		return child{entry: e}, nil
	}
	e.Size = 0
	if !w.descend(0) {
		return child{entry: e}, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return child{}, &WalkError{Path: path, Err: err}
	}
	item := &walkItem{path: path, abs: abs, layers: w.baseLayers(abs)}
	return child{entry: e, dir: item}, nil
}

func (w *Walker) descend(depth int) bool {
	return w.opts.MaxDepth == nil || depth < *w.opts.MaxDepth
}

// readDir reads and filters the entries of one directory. The directory fd
// is closed before returning, never held during subtree traversal.
func (w *Walker) readDir(item *walkItem, buf []byte, dirents []dirent, sorted bool) ([]child, []dirent, error) {
	fd, err := openDir(item.path)
	if err != nil {
		return nil, dirents, &WalkError{Path: item.path, Err: err}
	}
	defer unix.Close(fd)

	ancestors := item.ancestors
	if w.opts.FollowLinks {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			return nil, dirents, &WalkError{Path: item.path, Err: err}
		}
		id := fileID{dev: uint64(st.Dev), ino: st.Ino}
		if slices.Contains(ancestors, id) {
			w.logger.Debug("skipping symlink loop", "path", item.path)
			return nil, dirents, nil
		}
		ancestors = append(slices.Clip(ancestors), id)
	}

	layers := w.childLayers(item.layers, item.abs)

	dirents, err = readDirents(fd, buf, dirents)
	if err != nil {
		return nil, dirents, &WalkError{Path: item.path, Err: err}
	}
	if sorted {
		slices.SortFunc(dirents, func(a, b dirent) int { return strings.Compare(a.name, b.name) })
	}

	children := make([]child, 0, len(dirents))
	for _, d := range dirents {
		c, keep, err := w.classify(item, layers, d)
		if err != nil {
			return nil, dirents, err
		}
		if !keep {
			continue
		}
		if c.dir != nil {
			c.dir.ancestors = ancestors
		}
		children = append(children, c)
	}
	return children, dirents, nil
}

// Walk visits every root and every entry below it, depth-first, with the
// entries of each directory sorted by name. Directories are visited before
// their contents. An error from fn stops the walk and is returned as is.
func (w *Walker) Walk(fn func(Entry) error) error {
	buf := make([]byte, 32*1024)
	var dirents []dirent
	var files, dirs int

	var visit func(c child) error
	visit = func(c child) error {
		if c.entry.Type == Dir {
			dirs++
		} else if c.entry.Type == File {
			files++
		}
		if err := fn(c.entry); err != nil {
			return err
		}
		if c.dir == nil {
			return nil
		}
		children, ds, err := w.readDir(c.dir, buf, dirents, true)
		dirents = ds
		if err != nil {
			return err
		}
		for _, cc := range children {
			if err := visit(cc); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range w.roots {
		c, err := w.root(r)
		if err != nil {
			return err
		}
		if err := visit(c); err != nil {
			return err
		}
	}
	w.logger.Debug("walk finished", "files", files, "dirs", dirs)
	return nil
}

// joinPath concatenates a directory and entry name with a single separator.
// Avoids filepath.Join overhead (no Clean, no validation) since we control
// the inputs: dirPath is always a valid directory path, name is a plain filename.
func joinPath(dirPath, name string) string {
	needsSep := len(dirPath) == 0 || dirPath[len(dirPath)-1] != '/'
	n := len(dirPath) + len(name)
	if needsSep {
		n++
	}
	buf := make([]byte, n)
	copy(buf, dirPath)
	i := len(dirPath)
	if needsSep {
		buf[i] = '/'
		i++
	}
	copy(buf[i:], name)
	return unsafe.String(&buf[0], len(buf))
}

func modeType(mode uint32) EntryType {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return File
	case unix.S_IFDIR:
		return Dir
	case unix.S_IFLNK:
		return Symlink
	default:
		return Other
	}
}

// WalkError represents an error during directory traversal.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return "walk " + e.Path + ": " + e.Err.Error()
}

func (e *WalkError) Unwrap() error {
	return e.Err
}
