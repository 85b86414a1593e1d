package searcher

import "bytes"

// lineCursor tracks position while scanning forward through data for line boundaries.
// Offsets must be processed in sorted (ascending) order.
// For nearby advances, walks line-by-line. For large gaps, jumps directly
// to the target position using backward/forward scans + newline counting.
type lineCursor struct {
	data      []byte
	lineNum   uint64 // 1-based line number at lineStart
	lineStart int    // byte offset of current line start
	lineEnd   int    // byte offset of current line end (position of \n, or len(data))
}

// newlineByte avoids allocating []byte{'\n'} on every call to bytes.Count.
var newlineByte = []byte{'\n'}

// newLineCursor initializes a cursor at the beginning of data.
func newLineCursor(data []byte) lineCursor {
	end := len(data)
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		end = i
	}
	return lineCursor{
		data:    data,
		lineNum: 1,
		lineEnd: end,
	}
}

// seek advances the cursor to the line containing pos and returns the line
// bounds and number. pos must be >= the pos from the previous call.
func (c *lineCursor) seek(pos int) (start, end int, lineNum uint64) {
	if pos <= c.lineEnd {
		return c.lineStart, c.lineEnd, c.lineNum
	}

	// Within ~256 bytes, walking is cheaper than Count + LastIndexByte.
	if pos-c.lineEnd <= 256 {
		for pos > c.lineEnd && c.lineEnd < len(c.data) {
			c.lineStart = c.lineEnd + 1
			c.lineNum++
			if i := bytes.IndexByte(c.data[c.lineStart:], '\n'); i >= 0 {
				c.lineEnd = c.lineStart + i
			} else {
				c.lineEnd = len(c.data)
			}
		}
		return c.lineStart, c.lineEnd, c.lineNum
	}

	// Large gap: count the skipped newlines, then find the bounds of the
	// line around pos.
	gapStart := c.lineEnd
	c.lineNum += uint64(bytes.Count(c.data[gapStart:pos], newlineByte))
	c.lineStart = gapStart + bytes.LastIndexByte(c.data[gapStart:pos], '\n') + 1
	c.lineEnd = len(c.data)
	if i := bytes.IndexByte(c.data[pos:], '\n'); i >= 0 {
		c.lineEnd = pos + i
	}
	return c.lineStart, c.lineEnd, c.lineNum
}
