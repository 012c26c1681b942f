package input

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/MrWong99/storytrail/internal/narrative"
)

// Terminal reads one event per line from a reader such as os.Stdin. End of
// input is reported as [narrative.EventWindowClose].
type Terminal struct {
	parser *Parser
	lines  chan string
	once   sync.Once
	r      io.Reader

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewTerminal returns a [Terminal] reading from r. Reading starts with the
// first call to Next.
func NewTerminal(r io.Reader, parser *Parser) *Terminal {
	if parser == nil {
		parser = NewParser()
	}
	return &Terminal{
		parser:  parser,
		lines:   make(chan string),
		r:       r,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Close stops the reader goroutine. A read already blocked on r cannot be
// interrupted; the goroutine exits once that read returns.
func (t *Terminal) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

func (t *Terminal) read() {
	defer close(t.stopped)
	defer close(t.lines)
	sc := bufio.NewScanner(t.r)
	for sc.Scan() {
		select {
		case t.lines <- sc.Text():
		case <-t.done:
			return
		}
	}
	if err := sc.Err(); err != nil {
		slog.Warn("input: read failed, closing", "err", err)
	}
}

// Next blocks until a recognised line arrives, input ends, or ctx is done.
// Blank lines are skipped.
func (t *Terminal) Next(ctx context.Context) (narrative.Event, error) {
	t.once.Do(func() { go t.read() })
	for {
		select {
		case line, ok := <-t.lines:
			if !ok {
				return narrative.EventWindowClose, nil
			}
			if ev, ok := t.parser.Parse(line); ok {
				return ev, nil
			}
		case <-t.done:
			return narrative.EventWindowClose, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}
