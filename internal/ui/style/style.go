// Package style provides the colours, icons, and terminal profile shared by the
// logger and the build report.
package style

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette.
var (
	Amber = lipgloss.Color("#D97706")
	Slate = lipgloss.Color("#667085")
	Green = lipgloss.Color("#22A06B")
	Red   = lipgloss.Color("#D93025")
	Gold  = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Skip    = "-"
	Fresh   = "="
	Arrow   = "→"
)

// Profile returns the colour profile for terminal output.
// NO_COLOR forces plain text; otherwise the terminal's capabilities are detected.
func Profile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// NewOutput creates a termenv.Output writing to w with the shared profile.
func NewOutput(w io.Writer) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w, termenv.WithProfile(Profile()), termenv.WithTTY(true))
}

// Foreground converts a palette colour for use with termenv.
func Foreground(c lipgloss.Color) termenv.Color {
	return termenv.RGBColor(string(c))
}
