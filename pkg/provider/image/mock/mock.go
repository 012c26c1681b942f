// Package mock provides a test double for the image.Provider interface.
//
// Example:
//
//	p := &mock.Provider{Result: &image.Image{Data: []byte("png"), Format: "png"}}
//	img, _ := p.Generate(ctx, "a whale")
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/storytrail/pkg/provider/image"
)

// GenerateCall records a single invocation of Generate.
type GenerateCall struct {
	Ctx    context.Context
	Prompt string
}

// Provider is a mock implementation of image.Provider.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Generate when Err is nil. When Result is nil a
	// small PNG-tagged payload containing the prompt is returned instead.
	Result *image.Image

	// Err, if non-nil, is returned from Generate.
	Err error

	// Block, if non-nil, makes Generate wait until it is closed or ctx is done.
	Block chan struct{}

	// GenerateCalls records every call to Generate in order.
	GenerateCalls []GenerateCall
}

// Generate records the call and returns Result or Err.
func (p *Provider) Generate(ctx context.Context, prompt string) (*image.Image, error) {
	p.mu.Lock()
	p.GenerateCalls = append(p.GenerateCalls, GenerateCall{Ctx: ctx, Prompt: prompt})
	block := p.Block
	res, err := p.Result, p.Err
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &image.Image{Data: []byte("png:" + prompt), Format: "png"}, nil
	}
	return res, nil
}

// CallCount returns the number of Generate calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.GenerateCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateCalls = nil
}

// Ensure Provider implements image.Provider at compile time.
var _ image.Provider = (*Provider)(nil)
