package searcher

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dl/gosearch/internal/config"
	"github.com/dl/gosearch/internal/matcher"
)

// recordSink renders every event as "kind:line:text".
type recordSink struct {
	events   []string
	stopAt   int // stop after this many events; 0 means never
	finished int
}

func (r *recordSink) add(ev string) bool {
	r.events = append(r.events, ev)
	return r.stopAt == 0 || len(r.events) < r.stopAt
}

func (r *recordSink) Matched(line []byte, num uint64) bool {
	return r.add(fmt.Sprintf("match:%d:%s", num, line))
}

func (r *recordSink) Context(kind ContextKind, line []byte, num uint64) bool {
	return r.add(fmt.Sprintf("%s:%d:%s", kind, num, line))
}

func (r *recordSink) Finish() { r.finished++ }

func mustMatcher(t *testing.T, pattern string) matcher.Matcher {
	t.Helper()
	m, err := matcher.New(pattern, matcher.Options{CaseMode: config.CaseSensitive})
	if err != nil {
		t.Fatalf("matcher.New(%q): %v", pattern, err)
	}
	return m
}

func TestSearcher_Context(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		opts    Options
		input   string
		want    []string
	}{
		{
			name:    "matches only",
			pattern: "foo",
			input:   "foo\nbar\nfoo bar\n",
			want:    []string{"match:1:foo", "match:3:foo bar"},
		},
		{
			name:    "before and after",
			pattern: "match",
			opts:    Options{Before: 1, After: 1},
			input:   "zero\nmatch\nthree\nfour\n",
			want:    []string{"before:1:zero", "match:2:match", "after:3:three"},
		},
		{
			name:    "before ring keeps the nearest lines",
			pattern: "x",
			opts:    Options{Before: 2},
			input:   "a\nb\nc\nd\nx\n",
			want:    []string{"before:3:c", "before:4:d", "match:5:x"},
		},
		{
			name:    "overlapping windows emit each line once",
			pattern: "m",
			opts:    Options{Before: 2, After: 2},
			input:   "a\nm1\nb\nm2\nc\nd\ne\n",
			want: []string{
				"before:1:a", "match:2:m1", "after:3:b", "match:4:m2",
				"after:5:c", "after:6:d",
			},
		},
		{
			name:    "after lines are not reused as before",
			pattern: "m",
			opts:    Options{Before: 1, After: 1},
			input:   "m1\na\nm2\n",
			want:    []string{"match:1:m1", "after:2:a", "match:3:m2"},
		},
		{
			name:    "no trailing newline",
			pattern: "end",
			input:   "start\nend",
			want:    []string{"match:2:end"},
		},
		{
			name:    "no matches means no context",
			pattern: "zzz",
			opts:    Options{Before: 3, After: 3},
			input:   "a\nb\n",
		},
		{
			name:    "empty input",
			pattern: "a",
			input:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.LineNumbers = true
			m := mustMatcher(t, tt.pattern)

			check := func(src string, run func(*Searcher, Sink) error) {
				sink := &recordSink{}
				if err := run(New(tt.opts, nil), sink); err != nil {
					t.Fatalf("%s: error: %v", src, err)
				}
				if diff := cmp.Diff(tt.want, sink.events); diff != "" {
					t.Errorf("%s: events mismatch (-want +got):\n%s", src, diff)
				}
				if sink.finished != 1 {
					t.Errorf("%s: Finish called %d times, want 1", src, sink.finished)
				}
			}
			check("slice", func(s *Searcher, sink Sink) error {
				return s.SearchSlice(m, []byte(tt.input), sink)
			})
			check("reader", func(s *Searcher, sink Sink) error {
				return s.SearchReader(m, strings.NewReader(tt.input), sink)
			})
		})
	}
}

func TestSearcher_LineNumbersDisabled(t *testing.T) {
	sink := &recordSink{}
	s := New(Options{After: 1}, nil)
	if err := s.SearchSlice(mustMatcher(t, "a"), []byte("a\nb\n"), sink); err != nil {
		t.Fatal(err)
	}
	want := []string{"match:0:a", "after:0:b"}
	if diff := cmp.Diff(want, sink.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestSearcher_StopEarly(t *testing.T) {
	sink := &recordSink{stopAt: 2}
	s := New(Options{LineNumbers: true}, nil)
	if err := s.SearchSlice(mustMatcher(t, "x"), []byte("x1\nx2\nx3\nx4\n"), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.events) != 2 {
		t.Errorf("got %d events, want 2", len(sink.events))
	}
	if sink.finished != 1 {
		t.Errorf("Finish called %d times, want 1", sink.finished)
	}
}

func TestSearcher_BinaryDetection(t *testing.T) {
	data := []byte("match one\nmatch\x00two\nmatch three\n")
	m := mustMatcher(t, "match")

	t.Run("buffer quits before any event", func(t *testing.T) {
		sink := &recordSink{}
		New(Options{BinaryDetection: true, LineNumbers: true}, nil).SearchSlice(m, data, sink)
		if len(sink.events) != 0 {
			t.Errorf("events = %v, want none", sink.events)
		}
		if sink.finished != 1 {
			t.Errorf("Finish called %d times, want 1", sink.finished)
		}
	})

	t.Run("stream quits at the first NUL line", func(t *testing.T) {
		sink := &recordSink{}
		err := New(Options{BinaryDetection: true, LineNumbers: true}, nil).SearchReader(m, bytes.NewReader(data), sink)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"match:1:match one"}, sink.events); diff != "" {
			t.Errorf("events mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		sink := &recordSink{}
		New(Options{LineNumbers: true}, nil).SearchSlice(m, data, sink)
		if len(sink.events) != 3 {
			t.Errorf("got %d events, want 3", len(sink.events))
		}
	})
}

func TestSearcher_SearchPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	content := strings.Repeat("filler line\n", 500) + "needle here\n" + strings.Repeat("more filler\n", 500)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	m := mustMatcher(t, "needle")

	for _, choice := range []config.MmapChoice{config.MmapNever, config.MmapAuto, config.MmapAlways} {
		t.Run(fmt.Sprint(choice), func(t *testing.T) {
			sink := &recordSink{}
			s := New(Options{LineNumbers: true, MemoryMap: choice, MmapThreshold: 1024}, nil)
			if err := s.SearchPath(m, path, sink); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{"match:501:needle here"}, sink.events); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearcher_SearchPathProcFile(t *testing.T) {
	const path = "/proc/self/status"
	if _, err := os.Stat(path); err != nil {
		t.Skipf("%s not available: %v", path, err)
	}
	m := mustMatcher(t, "^Name:")

	for _, choice := range []config.MmapChoice{config.MmapNever, config.MmapAuto, config.MmapAlways} {
		t.Run(fmt.Sprint(choice), func(t *testing.T) {
			sink := &recordSink{}
			s := New(Options{LineNumbers: true, MemoryMap: choice}, nil)
			if err := s.SearchPath(m, path, sink); err != nil {
				t.Fatal(err)
			}
			if len(sink.events) != 1 || !strings.HasPrefix(sink.events[0], "match:1:Name:") {
				t.Errorf("events = %q, want one match on line 1", sink.events)
			}
		})
	}
}

func TestSearcher_SearchPathMissing(t *testing.T) {
	s := New(Options{}, nil)
	err := s.SearchPath(mustMatcher(t, "x"), filepath.Join(t.TempDir(), "missing"), &recordSink{})
	var pe *fs.PathError
	if !errors.As(err, &pe) {
		t.Errorf("error = %v, want *fs.PathError", err)
	}
}

func TestSearcher_HeapLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.txt")
	if err := os.WriteFile(path, []byte("short\n"+strings.Repeat("x", 4096)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := mustMatcher(t, "x")

	s := New(Options{HeapLimit: 1024}, nil)
	if err := s.SearchPath(m, path, &recordSink{}); !errors.Is(err, ErrHeapLimit) {
		t.Errorf("SearchPath error = %v, want ErrHeapLimit", err)
	}

	// Memory maps bypass the heap.
	s = New(Options{HeapLimit: 1024, MemoryMap: config.MmapAlways}, nil)
	if err := s.SearchPath(m, path, &recordSink{}); err != nil {
		t.Errorf("SearchPath with mmap error = %v, want nil", err)
	}
}

func TestLineCursor_Seek(t *testing.T) {
	data := []byte("aa\nbb\n" + strings.Repeat("z\n", 300) + "target\nlast")
	cur := newLineCursor(data)

	tests := []struct {
		pos      int
		wantLine string
		wantNum  uint64
	}{
		{0, "aa", 1},
		{2, "aa", 1},
		{3, "bb", 2},
		{bytes.Index(data, []byte("target")) + 2, "target", 303},
		{len(data) - 1, "last", 304},
	}
	for _, tt := range tests {
		start, end, num := cur.seek(tt.pos)
		if got := string(data[start:end]); got != tt.wantLine || num != tt.wantNum {
			t.Errorf("seek(%d) = %q line %d, want %q line %d", tt.pos, got, num, tt.wantLine, tt.wantNum)
		}
	}
}
