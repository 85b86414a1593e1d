package walker

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux dirent64 structure layout:
//
//	struct linux_dirent64 {
//	    ino64_t        d_ino;    /* 64-bit inode number */
//	    off64_t        d_off;    /* 64-bit offset to next structure */
//	    unsigned short d_reclen; /* Size of this dirent */
//	    unsigned char  d_type;   /* File type */
//	    char           d_name[]; /* Filename (null-terminated) */
//	};
const direntHeaderLen = 19

// dirent is a parsed Linux directory entry.
type dirent struct {
	name  string
	dtype uint8
}

// parseDirents parses raw getdents64 output, appending to dst.
// buf must contain the raw bytes returned by unix.Getdents.
func parseDirents(buf []byte, n int, dst []dirent) []dirent {
	for offset := 0; offset+direntHeaderLen <= n; {
		reclen := int(*(*uint16)(unsafe.Pointer(&buf[offset+16])))
		if reclen == 0 {
			break
		}
		dtype := buf[offset+18]

		nameEnd := min(offset+reclen, n)
		nameBytes := buf[offset+direntHeaderLen : nameEnd]
		nameLen := 0
		for nameLen < len(nameBytes) && nameBytes[nameLen] != 0 {
			nameLen++
		}
		name := string(nameBytes[:nameLen])

		if name != "." && name != ".." {
			dst = append(dst, dirent{name: name, dtype: dtype})
		}
		offset += reclen
	}
	return dst
}

// readDirents reads every entry of the open directory fd into dst[:0].
func readDirents(fd int, buf []byte, dst []dirent) ([]dirent, error) {
	dst = dst[:0]
	for {
		n, err := unix.Getdents(fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return dst, err
		}
		if n <= 0 {
			return dst, nil
		}
		dst = parseDirents(buf, n, dst)
	}
}

// openDir opens a directory with O_NOATIME, falling back without it.
func openDir(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC|unix.O_NOATIME, 0)
	if err != nil {
		fd, err = unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	}
	return fd, err
}
