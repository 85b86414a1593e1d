package walker

import (
	"golang.org/x/sys/unix"

	"github.com/dl/gosearch/filter"
)

// classify resolves the type of one directory entry and runs it through
// the filter chain: override, hidden, ignore files, then file type and
// size for files. An override whitelist skips hidden, ignore and type
// checks; the size limit always applies.
func (w *Walker) classify(parent *walkItem, layers []ignoreLayer, d dirent) (child, bool, error) {
	path := joinPath(parent.path, d.name)
	abs := path
	if parent.abs != parent.path {
		abs = joinPath(parent.abs, d.name)
	}
	e := Entry{Path: path, Depth: parent.depth + 1, Type: direntType(d.dtype)}

	var st unix.Stat_t
	statted := false
	if e.Type == Symlink && w.opts.FollowLinks || d.dtype == unix.DT_UNKNOWN {
		stat := unix.Lstat
		if w.opts.FollowLinks {
			stat = unix.Stat
		}
		if err := stat(path, &st); err != nil {
			if e.Type == Symlink {
				w.logger.Debug("broken symlink", "path", path, "err", err)
			} else {
				return child{}, false, &WalkError{Path: path, Err: err}
			}
		} else {
			e.Type = modeType(st.Mode)
			statted = true
		}
	}
	isDir := e.Type == Dir

	if isDir && isVCSDir(d.name) {
		return child{}, false, nil
	}

	whitelisted := false
	switch w.overrides.Matched(path, isDir) {
	case filter.Ignore:
		return child{}, false, nil
	case filter.Whitelist:
		whitelisted = true
	}

	if !whitelisted {
		if !w.opts.Hidden && isHidden(d.name) {
			return child{}, false, nil
		}
		if len(layers) > 0 && isIgnoredByLayers(layers, abs, isDir) {
			return child{}, false, nil
		}
		if e.Type == File && w.types.Matched(path, false) == filter.Ignore {
			return child{}, false, nil
		}
	}

	if e.Type == File && w.opts.MaxFilesize != nil {
		if !statted {
			stat := unix.Lstat
			if w.opts.FollowLinks {
				stat = unix.Stat
			}
			if err := stat(path, &st); err != nil {
				return child{}, false, &WalkError{Path: path, Err: err}
			}
		}
		if st.Size > *w.opts.MaxFilesize {
			return child{}, false, nil
		}
		e.Size = st.Size
	} else if e.Type == File && statted {
		e.Size = st.Size
	}

	c := child{entry: e}
	if isDir && w.descend(e.Depth) {
		c.dir = &walkItem{path: path, abs: abs, depth: e.Depth, layers: layers}
	}
	return c, true, nil
}

func direntType(dtype uint8) EntryType {
	switch dtype {
	case unix.DT_REG:
		return File
	case unix.DT_DIR:
		return Dir
	case unix.DT_LNK:
		return Symlink
	default:
		return Other
	}
}

// isVCSDir reports directories that are never descended.
func isVCSDir(name string) bool {
	switch name {
	case ".git", ".svn", ".hg":
		return true
	}
	return false
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
