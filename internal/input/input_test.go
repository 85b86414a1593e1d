package input

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/dl/gosearch/internal/config"
)

func allReaders() map[string]Reader {
	return map[string]Reader{
		"buffered":       NewBufferedReader(),
		"mmap":           NewMmapReader(),
		"adaptive/small": NewAdaptiveReader(1 << 20),
		"adaptive/large": NewAdaptiveReader(1),
	}
}

func TestReaders_Content(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"lines":     []byte("hello world\nline two\n"),
		"no-eol":    []byte("last line without newline"),
		"nul":       []byte("text\x00binary\n"),
		"two-pages": bytes.Repeat([]byte("abcdefghij\n"), 1000),
		"2mb":       bytes.Repeat([]byte("x"), 2<<20),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for rname, r := range allReaders() {
		for fname, want := range files {
			t.Run(rname+"/"+fname, func(t *testing.T) {
				result, err := r.Read(filepath.Join(dir, fname))
				if err != nil {
					t.Fatalf("Read() error: %v", err)
				}
				if !bytes.Equal(result.Data, want) {
					t.Errorf("data length = %d, want %d", len(result.Data), len(want))
				}
				if err := result.Closer(); err != nil {
					t.Errorf("Closer() error: %v", err)
				}
			})
		}
	}
}

func TestReaders_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	for name, r := range allReaders() {
		t.Run(name, func(t *testing.T) {
			result, err := r.Read(path)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if result.Data != nil {
				t.Errorf("data = %v, want nil for empty file", result.Data)
			}
			if result.Closer == nil {
				t.Fatal("Closer is nil")
			}
			result.Closer()
		})
	}
}

// Files under /proc report a size of 0 but still have content.
func TestReaders_ZeroSizeSpecialFile(t *testing.T) {
	const path = "/proc/self/status"
	info, err := os.Stat(path)
	if err != nil {
		t.Skipf("%s not available: %v", path, err)
	}
	if info.Size() != 0 {
		t.Skipf("%s reports size %d, want 0", path, info.Size())
	}
	for name, r := range allReaders() {
		t.Run(name, func(t *testing.T) {
			result, err := r.Read(path)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			defer result.Closer()
			if !bytes.HasPrefix(result.Data, []byte("Name:")) {
				t.Errorf("data = %q, want prefix %q", result.Data, "Name:")
			}
		})
	}
}

// Buffers returned to the pool must not leak into the next read.
func TestBufferedReader_ReusesPool(t *testing.T) {
	dir := t.TempDir()
	long := filepath.Join(dir, "long")
	short := filepath.Join(dir, "short")
	os.WriteFile(long, []byte("a much longer first file\n"), 0o644)
	os.WriteFile(short, []byte("tiny\n"), 0o644)

	r := NewBufferedReader()
	for _, path := range []string{long, short, long} {
		want, _ := os.ReadFile(path)
		result, err := r.Read(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(result.Data, want) {
			t.Errorf("Read(%s) = %q, want %q", filepath.Base(path), result.Data, want)
		}
		result.Closer()
	}
}

func TestNewReader_Choice(t *testing.T) {
	tests := []struct {
		choice config.MmapChoice
		want   string
	}{
		{config.MmapNever, "*input.BufferedReader"},
		{config.MmapAlways, "*input.MmapReader"},
		{config.MmapAuto, "*input.adaptiveReader"},
	}
	for _, tt := range tests {
		got := fmt.Sprintf("%T", NewReader(tt.choice, 0))
		if got != tt.want {
			t.Errorf("NewReader(%v) = %s, want %s", tt.choice, got, tt.want)
		}
	}
	if r := NewReader(config.MmapAuto, 0).(*adaptiveReader); r.threshold != config.DefaultMmapThreshold {
		t.Errorf("default threshold = %d, want %d", r.threshold, config.DefaultMmapThreshold)
	}
}

func TestReaders_Errors(t *testing.T) {
	dir := t.TempDir()
	for name, r := range allReaders() {
		t.Run(name, func(t *testing.T) {
			_, err := r.Read(filepath.Join(dir, "missing.txt"))
			var pe *fs.PathError
			if !errors.As(err, &pe) || pe.Op != "open" {
				t.Errorf("Read(missing) error = %v, want *fs.PathError with op open", err)
			}
			if !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("Read(missing) error = %v, want fs.ErrNotExist", err)
			}

			if _, err := r.Read(dir); err == nil {
				t.Error("Read(directory) returned no error")
			}
		})
	}
}

func BenchmarkReaders(b *testing.B) {
	for _, lines := range []int{10000, 500000} {
		path := filepath.Join(b.TempDir(), "bench.txt")
		content := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), lines)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			b.Fatal(err)
		}
		for _, name := range []string{"buffered", "mmap"} {
			r := allReaders()[name]
			b.Run(fmt.Sprintf("%s/%dKB", name, len(content)>>10), func(b *testing.B) {
				b.SetBytes(int64(len(content)))
				for b.Loop() {
					result, err := r.Read(path)
					if err != nil {
						b.Fatal(err)
					}
					result.Closer()
				}
			})
		}
	}
}
