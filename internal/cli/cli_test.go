package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func fixture(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt":     "foo one\nbar\nfoo two\n",
		"b.txt":     "nothing\n",
		"sub/c.txt": "foo\nfoo\nfoo\n",
		"sub/d.go":  "package foo\n",
	})
	return root
}

func baseConfig(pattern string, paths ...string) Config {
	return Config{
		Pattern:     pattern,
		Paths:       paths,
		SmartCase:   true,
		MaxCount:    -1,
		MaxDepth:    -1,
		LineNumbers: true,
		Color:       ColorNever,
		Workers:     1,
	}
}

// runCLI runs cfg with stdout captured in a file.
func runCLI(t *testing.T, cfg Config, stdin io.Reader) (string, int) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdout")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	code := run(cfg, env{stdin: stdin, stdout: out, logger: log.New(io.Discard)})
	out.Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data), code
}

func TestRun_Text(t *testing.T) {
	root := fixture(t)
	p := func(rel string) string { return filepath.Join(root, rel) }

	got, code := runCLI(t, baseConfig("foo", root), nil)
	want := p("a.txt") + ":1:foo one\n" +
		p("a.txt") + ":3:foo two\n" +
		p("sub/c.txt") + ":1:foo\n" +
		p("sub/c.txt") + ":2:foo\n" +
		p("sub/c.txt") + ":3:foo\n" +
		p("sub/d.go") + ":1:package foo\n"
	if code != ExitMatch {
		t.Errorf("code = %d, want %d", code, ExitMatch)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_SingleFile(t *testing.T) {
	root := fixture(t)
	cfg := baseConfig("foo", filepath.Join(root, "a.txt"))
	cfg.Column = true
	got, _ := runCLI(t, cfg, nil)
	if want := "1:1:foo one\n3:1:foo two\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	cfg.LineNumbers = false
	cfg.Column = false
	got, _ = runCLI(t, cfg, nil)
	if want := "foo one\nfoo two\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRun_NoMatch(t *testing.T) {
	root := fixture(t)
	for _, mod := range []func(*Config){
		func(*Config) {},
		func(c *Config) { c.CountOnly = true },
		func(c *Config) { c.FileNamesOnly = true },
	} {
		cfg := baseConfig("zzz", root)
		mod(&cfg)
		got, code := runCLI(t, cfg, nil)
		if code != ExitNoMatch || got != "" {
			t.Errorf("got (%q, %d), want no output and exit %d", got, code, ExitNoMatch)
		}
	}
}

func TestRun_MaxCountZero(t *testing.T) {
	root := fixture(t)
	cfg := baseConfig("foo", root)
	cfg.MaxCount = 0
	cfg.Context = 2
	got, code := runCLI(t, cfg, nil)
	if code != ExitNoMatch || got != "" {
		t.Errorf("got (%q, %d)", got, code)
	}
}

func TestRun_Count(t *testing.T) {
	root := fixture(t)
	cfg := baseConfig("foo", root)
	cfg.CountOnly = true
	got, _ := runCLI(t, cfg, nil)
	want := filepath.Join(root, "a.txt") + ":2\n" +
		filepath.Join(root, "sub/c.txt") + ":3\n" +
		filepath.Join(root, "sub/d.go") + ":1\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_FileLists(t *testing.T) {
	root := fixture(t)
	p := func(rel string) string { return filepath.Join(root, rel) + "\n" }

	cfg := baseConfig("foo", root)
	cfg.FileNamesOnly = true
	cfg.Workers = 4
	got, code := runCLI(t, cfg, nil)
	if want := p("a.txt") + p("sub/c.txt") + p("sub/d.go"); got != want || code != ExitMatch {
		t.Errorf("-l: got (%q, %d), want %q", got, code, want)
	}

	cfg = baseConfig("", root)
	cfg.ListFiles = true
	got, _ = runCLI(t, cfg, nil)
	if want := p("a.txt") + p("b.txt") + p("sub/c.txt") + p("sub/d.go"); got != want {
		t.Errorf("--files: got %q, want %q", got, want)
	}
}

func TestRun_Parallel(t *testing.T) {
	root := fixture(t)
	seq, _ := runCLI(t, baseConfig("foo", root), nil)
	cfg := baseConfig("foo", root)
	cfg.Workers = 4
	par, code := runCLI(t, cfg, nil)
	if code != ExitMatch {
		t.Fatalf("code = %d", code)
	}
	a := strings.Split(strings.TrimSpace(seq), "\n")
	b := strings.Split(strings.TrimSpace(par), "\n")
	slices.Sort(a)
	slices.Sort(b)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("parallel output differs as a set (-seq +par):\n%s", diff)
	}
}

func TestRun_Stdin(t *testing.T) {
	got, code := runCLI(t, baseConfig("foo"), strings.NewReader("x\nfoo\n"))
	if got != "2:foo\n" || code != ExitMatch {
		t.Errorf("got (%q, %d)", got, code)
	}

	cfg := baseConfig("foo")
	cfg.FileNamesOnly = true
	got, _ = runCLI(t, cfg, strings.NewReader("foo\nfoo\n"))
	if got != stdinName+"\n" {
		t.Errorf("-l on stdin: got %q", got)
	}
}

func TestRun_ContextBreaks(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"f.txt": "a\nfoo\nb\nc\nd\nfoo\ne\n"})
	cfg := baseConfig("foo", filepath.Join(root, "f.txt"))
	cfg.Context = 1
	got, _ := runCLI(t, cfg, nil)
	want := "1-a\n2:foo\n3-b\n--\n5-d\n6:foo\n7-e\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_JSON(t *testing.T) {
	root := fixture(t)
	cfg := baseConfig("foo", filepath.Join(root, "a.txt"))
	cfg.JSONOutput = true
	got, _ := runCLI(t, cfg, nil)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d records, want 2: %q", len(lines), got)
	}
	var jm map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &jm); err != nil {
		t.Fatal(err)
	}
	if jm["type"] != "match" || jm["text"] != "foo two" || jm["line_number"].(float64) != 3 {
		t.Errorf("got %v", jm)
	}
}

func TestRun_TypeList(t *testing.T) {
	cfg := baseConfig("")
	cfg.TypeList = true
	cfg.TypeAdd = []string{"foo:*.foo"}
	got, code := runCLI(t, cfg, nil)
	if code != ExitMatch {
		t.Fatalf("code = %d", code)
	}
	for _, want := range []string{"go: *.go\n", "foo: *.foo\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("type list missing %q", want)
		}
	}
}

func TestRun_Errors(t *testing.T) {
	root := fixture(t)
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"bad regex", func(c *Config) { c.Pattern = "(" }},
		{"fixed and pcre", func(c *Config) { c.Fixed, c.PCRE = true, true }},
		{"bad glob", func(c *Config) { c.Globs = []string{"a[b"} }},
		{"unknown type", func(c *Config) { c.Types = []string{"nosuchtype"} }},
		{"missing path", func(c *Config) { c.Paths = []string{filepath.Join(root, "missing")} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig("foo", root)
			tt.mod(&cfg)
			if _, code := runCLI(t, cfg, nil); code != ExitError {
				t.Errorf("code = %d, want %d", code, ExitError)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mod     func(*Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"no pattern", func(c *Config) { c.Pattern = "" }, true},
		{"no pattern with --files", func(c *Config) { c.Pattern, c.ListFiles = "", true }, false},
		{"negative context", func(c *Config) { c.ContextAfter = -1 }, true},
		{"count and list", func(c *Config) { c.CountOnly, c.FileNamesOnly = true, true }, true},
		{"bad mmap", func(c *Config) { c.Mmap = "sometimes" }, true},
		{"bad size", func(c *Config) { c.MaxFilesize = "10Q" }, true},
		{"bad type-add", func(c *Config) { c.TypeAdd = []string{"nocolon"} }, true},
		{"negative threads", func(c *Config) { c.Workers = -2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig("foo")
			tt.mod(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"100", 100},
		{"2K", 2 << 10},
		{"3m", 3 << 20},
		{"1G", 1 << 30},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseSize(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"K", "-1", "1.5M"} {
		if _, err := parseSize(bad); err == nil {
			t.Errorf("parseSize(%q) succeeded", bad)
		}
	}
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"auto": ColorAuto, "always": ColorAlways, "never": ColorNever} {
		got, err := ParseColorMode(in)
		if err != nil || got != want {
			t.Errorf("ParseColorMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseColorMode("rainbow"); err == nil {
		t.Error("expected error")
	}
}

func TestLoadConfigArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "# defaults\n--hidden\n\n--max-depth 3\n--glob=!*.min.js\n-i\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOSEARCH_CONFIG_PATH", path)
	got := LoadConfigArgs()
	want := []string{"--hidden", "--max-depth", "3", "--glob=!*.min.js", "-i"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}

	t.Setenv("GOSEARCH_CONFIG_PATH", filepath.Join(t.TempDir(), "missing"))
	if got := LoadConfigArgs(); got != nil {
		t.Errorf("missing file: got %v", got)
	}
}
