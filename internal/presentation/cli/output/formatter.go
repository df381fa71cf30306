// Package output writes command results for people (text, tables, progress)
// and for programs (JSON). A Formatter is safe for concurrent use.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Format selects how commands print their results.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat resolves the --output flag. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatTable, FormatJSON:
		return f, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", s)
	}
}

// Formatter writes to one destination in one format.
type Formatter struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	color  bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithWriter sets the destination. The default is stdout.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) { f.w = w }
}

// WithFormat sets the output format. The default is text.
func WithFormat(format Format) Option {
	return func(f *Formatter) { f.format = format }
}

// WithColor turns ANSI styling on or off. It is on by default.
func WithColor(enabled bool) Option {
	return func(f *Formatter) { f.color = enabled }
}

// NewFormatter creates a Formatter.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{w: os.Stdout, format: FormatText, color: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format returns the output format.
func (f *Formatter) Format() Format {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.format
}

// Writer returns the destination.
func (f *Formatter) Writer() io.Writer {
	return f.w
}

// ColorEnabled reports whether output is styled.
func (f *Formatter) ColorEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.color
}

// Println formats a line and writes it.
func (f *Formatter) Println(format string, args ...any) error {
	line := fmt.Sprintf(format, args...) + "\n"
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := io.WriteString(f.w, line)
	return err
}

// Info writes an unstyled line.
func (f *Formatter) Info(format string, args ...any) error {
	return f.Println(format, args...)
}

// Success writes a green line marked ✓.
func (f *Formatter) Success(format string, args ...any) error {
	return f.status("✓", ColorGreen, format, args)
}

// Error writes a red line marked ✗.
func (f *Formatter) Error(format string, args ...any) error {
	return f.status("✗", ColorRed, format, args)
}

// Warning writes a yellow line marked ⚠.
func (f *Formatter) Warning(format string, args ...any) error {
	return f.status("⚠", ColorYellow, format, args)
}

func (f *Formatter) status(mark string, color Color, format string, args []any) error {
	return f.Println("%s", f.Colorize(mark+" "+fmt.Sprintf(format, args...), color))
}

// Header writes msg in bold, underlined to its width.
func (f *Formatter) Header(msg string) error {
	return f.Println("%s\n%s", f.Bold(msg), strings.Repeat("─", displayWidth(msg)))
}

// Item writes an indented "key: value" line.
func (f *Formatter) Item(key, value string) error {
	return f.Println("  %s: %s", f.Dim(key), value)
}

// JSON writes v as indented JSON.
func (f *Formatter) JSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
