// Package narration speaks screen texts aloud.
//
// A [Narrator] synthesises each text once, stores the clip in a sound
// directory under the MD5 fingerprint of the text, and plays it in the
// background. Starting a new narration or calling [Narrator.Stop] interrupts
// whatever is currently playing, so a child pressing a key never has to wait
// for the previous sentence to finish.
package narration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/storytrail/internal/atomicfile"
	"github.com/MrWong99/storytrail/internal/observe"
	"github.com/MrWong99/storytrail/pkg/audio"
	"github.com/MrWong99/storytrail/pkg/provider/tts"
	"github.com/MrWong99/storytrail/pkg/story"
)

// ErrClosed is returned by [Narrator.Prepare] after [Narrator.Close].
var ErrClosed = errors.New("narration: narrator closed")

// Option configures a [Narrator].
type Option func(*Narrator)

// WithVoice selects the voice passed to the TTS provider.
func WithVoice(v tts.Voice) Option {
	return func(n *Narrator) { n.voice = v }
}

// WithMetrics records synthesis latency, cache hits and failures on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(n *Narrator) { n.metrics = m }
}

// WithProviderName sets the provider label used in metrics. Default: "tts".
func WithProviderName(name string) Option {
	return func(n *Narrator) { n.providerName = name }
}

// WithSynthesisTimeout bounds a single TTS request. Default: 30s.
func WithSynthesisTimeout(d time.Duration) Option {
	return func(n *Narrator) { n.timeout = d }
}

// Narrator plays one narration at a time. It is safe for concurrent use.
type Narrator struct {
	dir          string
	provider     tts.Provider
	player       audio.Player
	voice        tts.Voice
	metrics      *observe.Metrics
	providerName string
	timeout      time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// New creates the sound directory if necessary and returns a [Narrator].
// A nil player caches clips without playing them.
func New(dir string, provider tts.Provider, player audio.Player, opts ...Option) (*Narrator, error) {
	if provider == nil {
		return nil, errors.New("narration: tts provider must not be nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("narration: create dir: %w", err)
	}
	n := &Narrator{
		dir:          dir,
		provider:     provider,
		player:       player,
		providerName: "tts",
		timeout:      30 * time.Second,
	}
	for _, o := range opts {
		o(n)
	}
	return n, nil
}

// ClipPath returns the cached clip for text, if any.
func (n *Narrator) ClipPath(text string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(n.dir, story.Fingerprint(text)+".*"))
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		if !strings.HasPrefix(filepath.Base(m), ".") {
			return m, true
		}
	}
	return "", false
}

// Prepare returns the clip for text, synthesising and caching it first when
// needed. It blocks until the clip is on disk.
func (n *Narrator) Prepare(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("narration: empty text")
	}
	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return "", ErrClosed
	}

	if path, ok := n.ClipPath(text); ok {
		n.recordLookup(ctx, true)
		return path, nil
	}
	n.recordLookup(ctx, false)

	ctx, span := observe.StartGeneration(ctx, "tts", n.providerName, story.Fingerprint(text))
	defer span.End()
	span.SetAttributes(attribute.Int("text_len", len(text)))

	sctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	start := time.Now()
	clip, err := n.provider.Synthesize(sctx, text, n.voice)
	elapsed := time.Since(start)
	if n.metrics != nil {
		n.metrics.TTSDuration.Record(ctx, elapsed.Seconds())
	}
	if err == nil && (clip == nil || len(clip.Data) == 0) {
		err = errors.New("empty clip returned")
	}
	if err != nil {
		observe.FailSpan(span, err)
		if ctx.Err() == nil {
			n.recordRequest(ctx, "error")
		}
		return "", fmt.Errorf("narration: synthesize: %w", err)
	}
	n.recordRequest(ctx, "ok")

	format := clip.Format
	if format == "" {
		format = "mp3"
	}
	path := filepath.Join(n.dir, story.Fingerprint(text)+"."+format)
	if err := atomicfile.Write(path, clip.Data); err != nil {
		return "", fmt.Errorf("narration: store clip: %w", err)
	}
	observe.Logger(ctx).Debug("narration clip stored", "path", path, "duration", elapsed)
	return path, nil
}

// Narrate interrupts the current narration and starts speaking text in the
// background. It returns immediately; failures are logged and counted, never
// surfaced, because a silent screen is still a playable screen.
func (n *Narrator) Narrate(ctx context.Context, text string) {
	n.mu.Lock()
	prevCancel, prevDone := n.cancel, n.done
	n.cancel, n.done = nil, nil
	if n.closed || strings.TrimSpace(text) == "" {
		n.mu.Unlock()
		stop(prevCancel, prevDone)
		return
	}
	pctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	n.cancel, n.done = cancel, done
	n.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}
	go func() {
		defer close(done)
		defer cancel()
		// Never overlap two clips.
		if prevDone != nil {
			<-prevDone
		}
		n.speak(pctx, text)
	}()
}

func (n *Narrator) speak(ctx context.Context, text string) {
	log := observe.Logger(ctx)
	path, err := n.Prepare(ctx, text)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("narration unavailable", "err", err)
		}
		return
	}
	if n.player == nil {
		return
	}
	if err := n.player.Play(ctx, path); err != nil && ctx.Err() == nil {
		log.Warn("narration playback failed", "path", path, "err", err)
		if n.metrics != nil {
			n.metrics.RecordProviderError(ctx, "player", "audio")
		}
	}
}

// Stop interrupts the current narration and waits for it to wind down.
func (n *Narrator) Stop() {
	n.mu.Lock()
	cancel, done := n.cancel, n.done
	n.cancel, n.done = nil, nil
	n.mu.Unlock()
	stop(cancel, done)
}

func stop(cancel context.CancelFunc, done <-chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the current narration finishes on its own or ctx ends.
func (n *Narrator) Wait(ctx context.Context) error {
	n.mu.Lock()
	done := n.done
	n.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops playback and rejects further narrations.
func (n *Narrator) Close() error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.Stop()
	return nil
}

func (n *Narrator) recordLookup(ctx context.Context, hit bool) {
	if n.metrics != nil {
		n.metrics.RecordCacheLookup(ctx, "sound", hit)
	}
}

func (n *Narrator) recordRequest(ctx context.Context, status string) {
	if n.metrics == nil {
		return
	}
	n.metrics.RecordProviderRequest(ctx, n.providerName, "tts", status)
	if status != "ok" {
		n.metrics.RecordProviderError(ctx, n.providerName, "tts")
	}
}
