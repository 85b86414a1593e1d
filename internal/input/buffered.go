package input

import (
	"io/fs"
	"sync"

	"golang.org/x/sys/unix"
)

// bufPool pools read buffers to reduce per-file heap allocations.
// Buffers are stored as *[]byte so the pool can reuse the backing array
// even when the slice grows beyond its original capacity.
var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 64*1024) // 64KB initial capacity
		return &b
	},
}

// maxPooledBuffer keeps very large one-off reads out of the pool.
const maxPooledBuffer = 4 << 20

// BufferedReader reads files using unix.Open with O_NOATIME and unix.Pread.
// Uses sync.Pool to reuse buffers across files, avoiding per-file heap allocation.
type BufferedReader struct{}

// NewBufferedReader creates a new BufferedReader.
func NewBufferedReader() *BufferedReader {
	return &BufferedReader{}
}

func (r *BufferedReader) Read(path string) (ReadResult, error) {
	fd, size, err := openSized(path)
	if err != nil {
		return ReadResult{}, err
	}
	if size == 0 {
		return readStream(fd, path)
	}
	return readBuffered(fd, size, path)
}

// readBuffered reads a file from an already-open fd into a pooled buffer.
// Takes ownership of fd; the caller must not close it.
func readBuffered(fd int, size int64, path string) (ReadResult, error) {
	bp := bufPool.Get().(*[]byte)
	buf := *bp
	if cap(buf) < int(size) {
		buf = make([]byte, size)
	} else {
		buf = buf[:size]
	}
	release := func() error {
		if cap(buf) <= maxPooledBuffer {
			*bp = buf[:0]
			bufPool.Put(bp)
		}
		return nil
	}

	// pread keeps no seek state; the file may shrink while we read it.
	var total int
	for total < int(size) {
		n, err := unix.Pread(fd, buf[total:], int64(total))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			unix.Close(fd)
			release()
			return ReadResult{}, &fs.PathError{Op: "read", Path: path, Err: err}
		}
		if n == 0 {
			break
		}
		total += n
	}
	unix.Close(fd)

	return ReadResult{Data: buf[:total], Closer: release}, nil
}

// streamChunk is the minimum free space kept in the buffer by readStream.
const streamChunk = 4096

// readStream reads fd until EOF for files whose size is unknown up front.
// A file with no content yields a nil Data. Takes ownership of fd.
func readStream(fd int, path string) (ReadResult, error) {
	defer unix.Close(fd)

	bp := bufPool.Get().(*[]byte)
	buf := (*bp)[:0]
	release := func() error {
		if cap(buf) <= maxPooledBuffer {
			*bp = buf[:0]
			bufPool.Put(bp)
		}
		return nil
	}

	for {
		if cap(buf)-len(buf) < streamChunk {
			grown := make([]byte, len(buf), 2*cap(buf)+streamChunk)
			copy(grown, buf)
			buf = grown
		}
		n, err := unix.Read(fd, buf[len(buf):cap(buf)])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			release()
			return ReadResult{}, &fs.PathError{Op: "read", Path: path, Err: err}
		}
		if n == 0 {
			break
		}
		buf = buf[:len(buf)+n]
	}

	if len(buf) == 0 {
		release()
		return ReadResult{Closer: noopCloser}, nil
	}
	return ReadResult{Data: buf, Closer: release}, nil
}
