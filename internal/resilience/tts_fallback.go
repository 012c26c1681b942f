package resilience

import (
	"context"

	"github.com/MrWong99/storytrail/pkg/provider/tts"
)

// TTSFallback implements [tts.Provider] with failover across several speech
// backends.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

// Compile-time interface assertion.
var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred
// backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional TTS provider.
func (f *TTSFallback) AddFallback(name string, p tts.Provider) {
	f.group.AddFallback(name, p)
}

// Group exposes the underlying group for health reporting.
func (f *TTSFallback) Group() *FallbackGroup[tts.Provider] {
	return f.group
}

// Synthesize converts text with the first healthy provider. Clip formats may
// differ between providers; callers must honour the returned Format.
func (f *TTSFallback) Synthesize(ctx context.Context, text string, voice tts.Voice) (*tts.Audio, error) {
	return ExecuteWithResult(ctx, f.group, func(p tts.Provider) (*tts.Audio, error) {
		return p.Synthesize(ctx, text, voice)
	})
}
