package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI sets the lipgloss color profile from the environment.
// NO_COLOR disables styling; CLICOLOR_FORCE=1 or COLORTERM=truecolor force
// full color, which keeps output styled when piped or run under CI.
// Call it at the start of main, before any theme is rendered.
func InitializeTUI() {
	switch {
	case os.Getenv("NO_COLOR") != "":
		lipgloss.SetColorProfile(termenv.Ascii)
	case os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
