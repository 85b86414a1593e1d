package input

import (
	"io/fs"

	"golang.org/x/sys/unix"

	"github.com/dl/gosearch/internal/config"
)

// ReadResult holds the data read from a file and a cleanup function.
// Data is only valid until Closer is called.
type ReadResult struct {
	Data   []byte
	Closer func() error
}

// noopCloser is a package-level no-op closer to avoid allocating a func literal per file.
func noopCloser() error { return nil }

// Reader reads file content into a byte slice.
type Reader interface {
	Read(path string) (ReadResult, error)
}

// NewReader returns the Reader for a memory-map choice. MmapAuto maps files
// of at least threshold bytes and reads smaller ones into pooled buffers.
func NewReader(choice config.MmapChoice, threshold int64) Reader {
	switch choice {
	case config.MmapAlways:
		return NewMmapReader()
	case config.MmapAuto:
		if threshold <= 0 {
			threshold = config.DefaultMmapThreshold
		}
		return NewAdaptiveReader(threshold)
	default:
		return NewBufferedReader()
	}
}

// openFile opens a file with O_NOATIME, falling back without it.
func openFile(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NOATIME, 0)
	if err != nil {
		fd, err = unix.Open(path, unix.O_RDONLY, 0)
	}
	if err != nil {
		return -1, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	return fd, nil
}

// openSized opens path and returns its descriptor and size. A size of 0 is
// not trusted: procfs and sysfs files report 0 but still have content, so
// callers read those with readStream.
func openSized(path string) (int, int64, error) {
	fd, err := openFile(path)
	if err != nil {
		return -1, 0, err
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return -1, 0, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	if stat.Mode&unix.S_IFMT == unix.S_IFDIR {
		unix.Close(fd)
		return -1, 0, &fs.PathError{Op: "read", Path: path, Err: unix.EISDIR}
	}
	return fd, stat.Size, nil
}
