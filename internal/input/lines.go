package input

import (
	"bufio"
	"errors"
	"io"
)

// ErrHeapLimit is returned when a single line does not fit in the
// configured heap limit.
var ErrHeapLimit = errors.New("line exceeds heap limit")

const lineReaderBufSize = 64 * 1024

// LineReader splits an io.Reader into lines without loading the whole
// stream into memory. Lines are returned without their terminator.
type LineReader struct {
	r     *bufio.Reader
	limit int64 // 0 means unlimited
	buf   []byte
	line  uint64
}

// NewLineReader creates a LineReader. A positive limit caps the number of
// bytes a single line may hold.
func NewLineReader(r io.Reader, limit int64) *LineReader {
	size := lineReaderBufSize
	if limit > 0 && limit < int64(size) {
		size = max(int(limit)+1, 16)
	}
	return &LineReader{
		r:     bufio.NewReaderSize(r, size),
		limit: limit,
	}
}

// Next returns the next line and its 1-based number. The returned slice is
// only valid until the following call. At the end of input Next returns
// io.EOF; a final line without a terminator is returned first.
func (lr *LineReader) Next() ([]byte, uint64, error) {
	lr.buf = lr.buf[:0]
	for {
		chunk, err := lr.r.ReadSlice('\n')
		lr.buf = append(lr.buf, chunk...)
		if lr.limit > 0 && int64(len(lr.buf)) > lr.limit+1 {
			return nil, 0, ErrHeapLimit
		}
		switch {
		case err == nil:
			line := lr.buf[:len(lr.buf)-1]
			if lr.limit > 0 && int64(len(line)) > lr.limit {
				return nil, 0, ErrHeapLimit
			}
			lr.line++
			return line, lr.line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF:
			if len(lr.buf) == 0 {
				return nil, 0, io.EOF
			}
			if lr.limit > 0 && int64(len(lr.buf)) > lr.limit {
				return nil, 0, ErrHeapLimit
			}
			lr.line++
			return lr.buf, lr.line, nil
		default:
			return nil, 0, err
		}
	}
}
