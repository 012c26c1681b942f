package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/storytrail/pkg/provider/image"
	"github.com/MrWong99/storytrail/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by the Create methods when no factory
// is registered under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// ImageFactory builds an image provider from its config entry.
type ImageFactory func(ProviderEntry) (image.Provider, error)

// TTSFactory builds a TTS provider from its config entry.
type TTSFactory func(ProviderEntry) (tts.Provider, error)

// Registry maps provider names to factories. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	image map[string]ImageFactory
	tts   map[string]TTSFactory
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		image: make(map[string]ImageFactory),
		tts:   make(map[string]TTSFactory),
	}
}

// RegisterImage registers an image provider factory, replacing any previous
// one with the same name.
func (r *Registry) RegisterImage(name string, f ImageFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.image[name] = f
}

// RegisterTTS registers a TTS provider factory, replacing any previous one
// with the same name.
func (r *Registry) RegisterTTS(name string, f TTSFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = f
}

// CreateImage builds the provider registered under entry.Name. Fallbacks in
// entry are ignored; see [Registry.ImageChain].
func (r *Registry) CreateImage(entry ProviderEntry) (image.Provider, error) {
	r.mu.RLock()
	f, ok := r.image[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: image/%q", ErrProviderNotRegistered, entry.Name)
	}
	return f(entry)
}

// CreateTTS builds the provider registered under entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	r.mu.RLock()
	f, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, entry.Name)
	}
	return f(entry)
}

// Named pairs a provider with the name it was configured under.
type Named[T any] struct {
	Name     string
	Provider T
}

// ImageChain builds the primary provider and every fallback of entry, in the
// order they should be tried.
func (r *Registry) ImageChain(entry ProviderEntry) ([]Named[image.Provider], error) {
	return buildChain(entry, r.CreateImage)
}

// TTSChain builds the primary provider and every fallback of entry.
func (r *Registry) TTSChain(entry ProviderEntry) ([]Named[tts.Provider], error) {
	return buildChain(entry, r.CreateTTS)
}

func buildChain[T any](entry ProviderEntry, create func(ProviderEntry) (T, error)) ([]Named[T], error) {
	entries := append([]ProviderEntry{entry}, entry.Fallbacks...)
	out := make([]Named[T], 0, len(entries))
	for _, e := range entries {
		p, err := create(e)
		if err != nil {
			return nil, fmt.Errorf("config: create %q: %w", e.Name, err)
		}
		out = append(out, Named[T]{Name: e.Name, Provider: p})
	}
	return out, nil
}
