// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (OpenAI speech, ElevenLabs,
// or a local Coqui server) and turns one complete narration text into an
// encoded audio clip that an audio player can load from disk. Narration texts
// are short, so providers synthesise whole utterances rather than streams;
// caching by content fingerprint happens one layer up, in internal/narration.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Voice selects how a text is spoken. Zero fields mean provider defaults.
type Voice struct {
	// ID is the provider-specific voice identifier (e.g. "alloy" for OpenAI,
	// a voice UUID for ElevenLabs, a speaker name for Coqui).
	ID string

	// Language is a BCP-47 language tag such as "en".
	Language string

	// Speed adjusts the speaking rate; 1.0 is normal. 0 means default.
	Speed float64
}

// Audio is a synthesised clip.
type Audio struct {
	// Data holds the encoded audio bytes.
	Data []byte

	// Format is the file extension of the encoding without a dot
	// (e.g. "mp3", "wav").
	Format string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize converts text into a single audio clip spoken with voice.
	//
	// Returns an error if text is empty, the backend cannot be reached, the
	// requested voice is unknown, or ctx is cancelled.
	Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error)
}
