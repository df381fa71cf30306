package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

const (
	barWidth = 30
	barFull  = "█"
	barEmpty = "░"
)

// ProgressBar redraws one terminal line as work completes. It is safe for
// concurrent use.
type ProgressBar struct {
	mu      sync.Mutex
	w       io.Writer
	color   bool
	total   int
	done    int
	message string
}

// ProgressBarOption configures a ProgressBar.
type ProgressBarOption func(*ProgressBar)

// WithProgressBarWriter sets where the bar is drawn. The default is stderr.
func WithProgressBarWriter(w io.Writer) ProgressBarOption {
	return func(p *ProgressBar) { p.w = w }
}

// WithProgressBarColor turns the green fill on or off.
func WithProgressBarColor(enabled bool) ProgressBarOption {
	return func(p *ProgressBar) { p.color = enabled }
}

// NewProgressBar creates a bar over total steps showing message.
func NewProgressBar(total int, message string, opts ...ProgressBarOption) *ProgressBar {
	p := &ProgressBar{w: os.Stderr, color: true, total: total, message: message}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Increment completes one step, never past total, and shows message when it
// is not empty.
func (p *ProgressBar) Increment(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(p.done+1, p.total)
	if message != "" {
		p.message = message
	}
	p.draw()
}

// Complete fills the bar and ends its line.
func (p *ProgressBar) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = p.total
	p.draw()
	_, _ = io.WriteString(p.w, "\n")
}

// draw requires p.mu. A bar without steps draws nothing.
func (p *ProgressBar) draw() {
	if p.total <= 0 {
		return
	}
	filled := p.done * barWidth / p.total
	bar := strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, barWidth-filled)
	if p.color {
		bar = string(ColorGreen) + bar + string(ColorReset)
	}
	_, _ = fmt.Fprintf(p.w, "\r[%s] %d/%d %s\033[K", bar, p.done, p.total, p.message)
}
