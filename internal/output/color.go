package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/sys/unix"
)

// Styles holds the lipgloss styles for output formatting.
type Styles struct {
	Filename  lipgloss.Style
	LineNum   lipgloss.Style
	Separator lipgloss.Style
	Match     lipgloss.Style
	Context   lipgloss.Style
}

// NewStyles creates the default color styles for renderer r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Filename:  r.NewStyle().Foreground(lipgloss.Color("5")),            // magenta
		LineNum:   r.NewStyle().Foreground(lipgloss.Color("2")),            // green
		Separator: r.NewStyle().Foreground(lipgloss.Color("6")),            // cyan
		Match:     r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true), // bold red
		Context:   r.NewStyle(),
	}
}

// NewRenderer returns a renderer for w. With force set, ANSI colors are
// emitted even when w is not a terminal.
func NewRenderer(w io.Writer, force bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if force {
		r.SetColorProfile(termenv.ANSI)
	}
	return r
}

// IsTerminal checks if the given file descriptor is a terminal using ioctl.
func IsTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	return err == nil
}
