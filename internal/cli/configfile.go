package cli

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// configPath returns the config file location: GOSEARCH_CONFIG_PATH, or
// ~/.gosearch.
func configPath() string {
	if path := os.Getenv("GOSEARCH_CONFIG_PATH"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gosearch")
}

// LoadConfigArgs reads the gosearch config file and returns its arguments,
// to be placed before the command line ones. A missing file yields nil.
func LoadConfigArgs() []string {
	path := configPath()
	if path == "" {
		return nil
	}
	args, err := readConfigArgs(path)
	if err != nil {
		return nil
	}
	return args
}

// readConfigArgs parses one argument per line. Blank lines and lines
// starting with # are skipped. A line "--flag value" is split at the first
// space so both spellings of a flag work.
func readConfigArgs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var args []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if flag, value, ok := strings.Cut(line, " "); ok && strings.HasPrefix(flag, "--") && !strings.Contains(flag, "=") {
			args = append(args, flag, strings.TrimSpace(value))
			continue
		}
		args = append(args, line)
	}
	return args, scanner.Err()
}
