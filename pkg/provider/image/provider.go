// Package image defines the Provider interface for illustration generators.
//
// An image provider turns a textual scene description into encoded image
// bytes (e.g. PNG). Providers do not cache: content-keyed caching and
// deduplication live one layer up, in internal/imagecache.
//
// Implementations must be safe for concurrent use.
package image

import "context"

// Image is a generated illustration.
type Image struct {
	// Data holds the encoded image bytes.
	Data []byte

	// Format is the file extension of the encoding without a dot (e.g. "png").
	Format string

	// RevisedPrompt is the prompt the backend actually used, if it reports one.
	RevisedPrompt string
}

// Provider is the abstraction over any illustration backend.
type Provider interface {
	// Generate produces one illustration for prompt. The prompt is passed
	// verbatim; callers apply any styling template before calling.
	//
	// Returns an error if the backend rejects the request, the network call
	// fails, or ctx is cancelled.
	Generate(ctx context.Context, prompt string) (*Image, error)
}
