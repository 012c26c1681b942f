// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to return controlled audio clips and to verify which texts and
// voices were sent to the TTS backend.
//
// Example:
//
//	p := &mock.Provider{Result: &tts.Audio{Data: []byte("mp3"), Format: "mp3"}}
//	clip, _ := p.Synthesize(ctx, "hello", tts.Voice{ID: "alloy"})
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/storytrail/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
	// Voice is the Voice passed to Synthesize.
	Voice tts.Voice
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// Result is returned by Synthesize when Err is nil. When nil, a clip with
	// Format "mp3" whose data is the text itself is returned.
	Result *tts.Audio

	// Err, if non-nil, is returned as the error from Synthesize.
	Err error

	// --- Call records ---

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns Result or Err.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.Voice) (*tts.Audio, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, Voice: voice})
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Result != nil {
		return p.Result, nil
	}
	return &tts.Audio{Data: []byte(text), Format: "mp3"}, nil
}

// Texts returns the texts of all recorded calls. Thread-safe.
func (p *Provider) Texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.SynthesizeCalls))
	for i, c := range p.SynthesizeCalls {
		out[i] = c.Text
	}
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
