package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Frame is one screen: the wrapped text and, when available, the file of the
// illustration to show behind it.
type Frame struct {
	// Mode is the engine mode that produced the frame, e.g. "choice".
	Mode string
	// Lines are the wrapped text lines; empty strings separate paragraphs.
	Lines []string
	// ImagePath is empty when the screen has no illustration or it could not
	// be produced.
	ImagePath string
}

// Text joins the frame lines with newlines.
func (f Frame) Text() string {
	return strings.Join(f.Lines, "\n")
}

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// TerminalOption configures a [Terminal].
type TerminalOption func(*Terminal)

// WithClearScreen makes the terminal clear itself before each frame.
func WithClearScreen(clear bool) TerminalOption {
	return func(t *Terminal) { t.clear = clear }
}

// Terminal renders frames as plain text. It is safe for concurrent use.
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	clear bool
}

// NewTerminal returns a [Terminal] writing to w.
func NewTerminal(w io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{w: w}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Render writes f to the terminal. The illustration, if any, is shown as its
// file path since a text terminal cannot display it.
func (t *Terminal) Render(_ context.Context, f Frame) error {
	var b strings.Builder
	if t.clear {
		b.WriteString(clearScreen)
	} else {
		b.WriteString("\n")
	}
	if f.ImagePath != "" {
		fmt.Fprintf(&b, "[picture: %s]\n\n", f.ImagePath)
	}
	for _, l := range f.Lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		return fmt.Errorf("render: write frame: %w", err)
	}
	return nil
}
