package output

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Writer writes formatted output to a file descriptor, using writev to
// flush several buffers with one syscall. It is safe for concurrent use;
// each call is written as a unit.
type Writer struct {
	mu sync.Mutex
	fd int
}

// NewWriter creates a Writer for f.
func NewWriter(f *os.File) *Writer {
	return &Writer{fd: int(f.Fd())}
}

// Write writes data in full.
func (w *Writer) Write(data []byte) (int, error) {
	if err := w.WriteBatch([][]byte{data}); err != nil {
		return 0, err
	}
	return len(data), nil
}

// WriteBatch writes every buffer in order.
func (w *Writer) WriteBatch(bufs [][]byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	iovs := make([][]byte, 0, len(bufs))
	for _, b := range bufs {
		if len(b) > 0 {
			iovs = append(iovs, b)
		}
	}
	for len(iovs) > 0 {
		n, err := unix.Writev(w.fd, iovs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		// Drop the fully written buffers and trim a partial one.
		for n > 0 && len(iovs) > 0 {
			if n >= len(iovs[0]) {
				n -= len(iovs[0])
				iovs = iovs[1:]
				continue
			}
			iovs[0] = iovs[0][n:]
			n = 0
		}
	}
	return nil
}
