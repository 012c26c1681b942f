package resilience

import (
	"context"

	"github.com/MrWong99/storytrail/pkg/provider/image"
)

// ImageFallback implements [image.Provider] with failover across several
// illustration backends.
type ImageFallback struct {
	group *FallbackGroup[image.Provider]
}

// Compile-time interface assertion.
var _ image.Provider = (*ImageFallback)(nil)

// NewImageFallback creates an [ImageFallback] with primary as the preferred
// backend.
func NewImageFallback(primary image.Provider, primaryName string, cfg FallbackConfig) *ImageFallback {
	return &ImageFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional image provider.
func (f *ImageFallback) AddFallback(name string, p image.Provider) {
	f.group.AddFallback(name, p)
}

// Group exposes the underlying group for health reporting.
func (f *ImageFallback) Group() *FallbackGroup[image.Provider] {
	return f.group
}

// Generate asks the first healthy provider for an illustration.
func (f *ImageFallback) Generate(ctx context.Context, prompt string) (*image.Image, error) {
	return ExecuteWithResult(ctx, f.group, func(p image.Provider) (*image.Image, error) {
		return p.Generate(ctx, prompt)
	})
}
