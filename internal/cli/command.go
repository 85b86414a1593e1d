package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewCommand creates the root command. The exit code of the run is stored
// in *code.
func NewCommand(code *int) *cobra.Command {
	return newCommand(code, Run)
}

func newCommand(code *int, run func(Config) int) *cobra.Command {
	var (
		cfg   Config
		color string
		noNum bool
	)
	cmd := &cobra.Command{
		Use:   "gosearch [flags] PATTERN [PATH...]",
		Short: "Recursively search files for a regex pattern",
		Long: `gosearch searches the files below each PATH for lines matching PATTERN.

Hidden files and files matched by .gitignore, .ignore and .rgignore are
skipped unless asked for. With no PATH the current directory is searched,
or standard input when it is not a terminal.

Extra arguments are read from GOSEARCH_CONFIG_PATH or ~/.gosearch, one
per line, before the command line ones.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.ListFiles || cfg.TypeList {
				cfg.Paths = args
			} else {
				if len(args) == 0 {
					*code = ExitError
					return errors.New("no pattern specified")
				}
				cfg.Pattern, cfg.Paths = args[0], args[1:]
			}
			mode, err := ParseColorMode(color)
			if err != nil {
				*code = ExitError
				return err
			}
			cfg.Color = mode
			cfg.LineNumbers = !noNum
			*code = run(cfg)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.BoolVarP(&cfg.IgnoreCase, "ignore-case", "i", false, "Search case insensitively")
	fl.BoolVarP(&cfg.CaseSensitive, "case-sensitive", "s", false, "Search case sensitively")
	fl.BoolVarP(&cfg.SmartCase, "smart-case", "S", true, "Ignore case unless the pattern has an uppercase letter")
	fl.BoolVarP(&cfg.Fixed, "fixed-strings", "F", false, "Treat the pattern as a literal string")
	fl.BoolVarP(&cfg.Word, "word-regexp", "w", false, "Only match whole words")
	fl.BoolVarP(&cfg.LineRegexp, "line-regexp", "x", false, "Only match whole lines")
	fl.BoolVarP(&cfg.PCRE, "pcre2", "P", false, "Use the PCRE2 regex engine")

	fl.IntVarP(&cfg.ContextAfter, "after-context", "A", 0, "Show NUM lines after each match")
	fl.IntVarP(&cfg.ContextBefore, "before-context", "B", 0, "Show NUM lines before each match")
	fl.IntVarP(&cfg.Context, "context", "C", 0, "Show NUM lines before and after each match")
	fl.IntVarP(&cfg.MaxCount, "max-count", "m", -1, "Stop each file after NUM matching lines")

	fl.BoolVarP(&cfg.CountOnly, "count", "c", false, "Print the number of matching lines per file")
	fl.BoolVarP(&cfg.FileNamesOnly, "files-with-matches", "l", false, "Print only the names of files with a match")
	fl.BoolVar(&cfg.ListFiles, "files", false, "Print the files that would be searched")
	fl.BoolVar(&cfg.TypeList, "type-list", false, "Show all known file types")

	fl.BoolVar(&cfg.Hidden, "hidden", false, "Search hidden files and directories")
	fl.BoolVarP(&cfg.FollowSymlinks, "follow", "L", false, "Follow symbolic links")
	fl.BoolVar(&cfg.NoIgnore, "no-ignore", false, "Don't respect ignore files")
	fl.BoolVar(&cfg.NoIgnoreParent, "no-ignore-parent", false, "Don't read ignore files in parent directories")
	fl.BoolVar(&cfg.NoIgnoreVCS, "no-ignore-vcs", false, "Don't respect .gitignore and .git/info/exclude")
	fl.IntVar(&cfg.MaxDepth, "max-depth", -1, "Descend at most NUM directories")
	fl.StringVar(&cfg.MaxFilesize, "max-filesize", "", "Skip files larger than SIZE (K, M and G suffixes allowed)")
	fl.StringArrayVarP(&cfg.Globs, "glob", "g", nil, "Include or, with a leading !, exclude files matching GLOB")
	fl.StringArrayVarP(&cfg.Types, "type", "t", nil, "Only search files of TYPE")
	fl.StringArrayVarP(&cfg.TypeNot, "type-not", "T", nil, "Don't search files of TYPE")
	fl.StringArrayVar(&cfg.TypeAdd, "type-add", nil, "Add a file type as name:glob")

	fl.BoolVarP(&cfg.Text, "text", "a", false, "Search binary files as if they were text")
	fl.BoolVarP(&noNum, "no-line-number", "N", false, "Don't show line numbers")
	fl.BoolVar(&cfg.Column, "column", false, "Show the column of the first match")
	fl.BoolVar(&cfg.JSONOutput, "json", false, "Print results as JSON Lines")
	fl.StringVar(&color, "color", "auto", "When to use color: auto, always or never")
	fl.IntVarP(&cfg.Workers, "threads", "j", 0, "Number of search threads (0 means one per CPU)")
	fl.StringVar(&cfg.Mmap, "mmap", "never", "Memory map files: never, auto or always")
	fl.BoolVar(&cfg.Debug, "debug", false, "Log debug messages to stderr")

	return cmd
}

// Execute parses args and runs the search, returning the exit code.
func Execute(args []string) int {
	code := ExitMatch
	cmd := NewCommand(&code)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("gosearch:", err)
		return ExitError
	}
	return code
}
