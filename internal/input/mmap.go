package input

import (
	"golang.org/x/sys/unix"
)

// MmapReader reads files by memory-mapping them with aggressive Linux kernel hints.
type MmapReader struct{}

// NewMmapReader creates a new MmapReader.
func NewMmapReader() *MmapReader {
	return &MmapReader{}
}

// readMmap memory-maps an already-opened fd of known size. Files that cannot
// be mapped (pipes, some virtual filesystems) are read into a buffer instead.
func readMmap(fd int, size int64, path string) (ReadResult, error) {
	unix.Fadvise(fd, 0, size, unix.FADV_SEQUENTIAL)

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE|unix.MAP_POPULATE)
	if err != nil {
		return readBuffered(fd, size, path)
	}
	unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return ReadResult{
		Data: data,
		Closer: func() error {
			unix.Madvise(data, unix.MADV_DONTNEED)
			err := unix.Munmap(data)
			unix.Close(fd)
			return err
		},
	}, nil
}

func (r *MmapReader) Read(path string) (ReadResult, error) {
	fd, size, err := openSized(path)
	if err != nil {
		return ReadResult{}, err
	}
	if size == 0 {
		return readStream(fd, path)
	}
	return readMmap(fd, size, path)
}

// NewAdaptiveReader returns a Reader that opens the file once, stats it via
// fstat, then selects between buffered and mmap based on size.
func NewAdaptiveReader(mmapThreshold int64) Reader {
	return &adaptiveReader{
		threshold: mmapThreshold,
	}
}

type adaptiveReader struct {
	threshold int64
}

func (r *adaptiveReader) Read(path string) (ReadResult, error) {
	fd, size, err := openSized(path)
	if err != nil {
		return ReadResult{}, err
	}
	if size == 0 {
		return readStream(fd, path)
	}
	if size >= r.threshold {
		return readMmap(fd, size, path)
	}
	return readBuffered(fd, size, path)
}
