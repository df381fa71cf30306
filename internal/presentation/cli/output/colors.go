package output

import (
	"os"
	"sync"
)

// Color is an ANSI SGR escape sequence.
type Color string

const (
	ColorReset  Color = "\033[0m"
	ColorBold   Color = "\033[1m"
	ColorDim    Color = "\033[2m"
	ColorRed    Color = "\033[31m"
	ColorGreen  Color = "\033[32m"
	ColorYellow Color = "\033[33m"
	ColorCyan   Color = "\033[36m"
)

// Colorize wraps text in color when styling is on.
func (f *Formatter) Colorize(text string, color Color) string {
	if !f.ColorEnabled() {
		return text
	}
	return string(color) + text + string(ColorReset)
}

// Bold returns text in bold.
func (f *Formatter) Bold(text string) string {
	return f.Colorize(text, ColorBold)
}

// Dim returns text dimmed.
func (f *Formatter) Dim(text string) string {
	return f.Colorize(text, ColorDim)
}

var (
	colorOnce    sync.Once
	colorSupport bool
)

// IsColorSupported determines if color output should be enabled.
// It checks NO_COLOR, FORCE_COLOR and whether stdout is a terminal.
func IsColorSupported() bool {
	colorOnce.Do(func() {
		colorSupport = DetectColorSupport(os.LookupEnv, os.Stdout)
	})
	return colorSupport
}

// DetectColorSupport decides color support from the environment resolved by
// lookup and the file output is written to.
func DetectColorSupport(lookup func(string) (string, bool), out *os.File) bool {
	// See https://no-color.org/
	if _, exists := lookup("NO_COLOR"); exists {
		return false
	}
	if _, exists := lookup("FORCE_COLOR"); exists {
		return true
	}

	if out == nil {
		return false
	}
	stat, err := out.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice == 0 {
		return false
	}

	term, _ := lookup("TERM")
	return term != "" && term != "dumb"
}
