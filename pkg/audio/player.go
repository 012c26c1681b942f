// Package audio defines the playback abstraction used for narration.
//
// A [Player] plays one encoded audio file at a time. Implementations wrap a
// concrete backend (an external command, a sound library, a voice channel)
// and are expected to stop promptly when their context is cancelled, so that
// a new narration can interrupt the previous one.
package audio

import "context"

// Player plays audio clips stored on disk.
//
// Implementations must be safe for concurrent use, although the narrator only
// ever runs one Play call at a time.
type Player interface {
	// Play plays the clip at path and blocks until playback finishes or ctx
	// is cancelled. It returns ctx.Err() when interrupted.
	Play(ctx context.Context, path string) error
}
