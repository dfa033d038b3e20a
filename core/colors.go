package core

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used in access log lines
type ColorScheme struct {
	Method      *color.Color
	StatusOK    *color.Color
	StatusWarn  *color.Color
	StatusError *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	scheme := &ColorScheme{
		Method:      color.New(color.FgBlue, color.Bold),
		StatusOK:    color.New(color.FgGreen, color.Bold),
		StatusWarn:  color.New(color.FgYellow, color.Bold),
		StatusError: color.New(color.FgRed, color.Bold),
	}
	// color.NoColor only reflects stdout; the access log goes to stderr
	scheme.Method.EnableColor()
	scheme.StatusOK.EnableColor()
	scheme.StatusWarn.EnableColor()
	scheme.StatusError.EnableColor()
	return scheme
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	scheme.Method.DisableColor()
	scheme.StatusOK.DisableColor()
	scheme.StatusWarn.DisableColor()
	scheme.StatusError.DisableColor()

	return scheme
}

// ForStatus picks the color for an HTTP status code
func (s *ColorScheme) ForStatus(code int) *color.Color {
	switch {
	case code >= 500:
		return s.StatusError
	case code >= 400:
		return s.StatusWarn
	default:
		return s.StatusOK
	}
}

// StderrIsTerminal reports whether access log lines reach a terminal.
func StderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
