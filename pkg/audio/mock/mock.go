// Package mock provides a test double for the audio.Player interface.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/storytrail/pkg/audio"
)

// Player is a mock implementation of audio.Player.
type Player struct {
	mu sync.Mutex

	// Err, if non-nil, is returned from Play.
	Err error

	// Block, if non-nil, makes Play wait until it is closed or ctx is done.
	Block chan struct{}

	// Played records every path passed to Play in order.
	Played []string

	// Interrupted counts Play calls that ended through ctx cancellation.
	Interrupted int

	// started receives one value per Play call when non-nil.
	started chan string
}

// Started returns a channel that receives the path of every subsequent Play
// call. The channel is buffered; tests should drain it.
func (p *Player) Started() <-chan string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started == nil {
		p.started = make(chan string, 64)
	}
	return p.started
}

// Play records the call and returns Err, optionally blocking on Block.
func (p *Player) Play(ctx context.Context, path string) error {
	p.mu.Lock()
	p.Played = append(p.Played, path)
	block, err, started := p.Block, p.Err, p.started
	p.mu.Unlock()

	if started != nil {
		started <- path
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			p.mu.Lock()
			p.Interrupted++
			p.mu.Unlock()
			return ctx.Err()
		}
	}
	return err
}

// Paths returns a copy of all played paths. Thread-safe.
func (p *Player) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Played))
	copy(out, p.Played)
	return out
}

// InterruptedCount returns the number of interrupted Play calls. Thread-safe.
func (p *Player) InterruptedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Interrupted
}

// Ensure Player implements audio.Player at compile time.
var _ audio.Player = (*Player)(nil)
