// Package imagecache keeps one illustration per beat prompt on disk.
//
// Files are named after the content key of the prompt ([story.KeyFor]), so
// asking for the same prompt twice never calls the generator twice, neither
// across runs (the file already exists) nor concurrently (requests for one
// key share a single in-flight generation).
package imagecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/MrWong99/storytrail/internal/atomicfile"
	"github.com/MrWong99/storytrail/internal/observe"
	"github.com/MrWong99/storytrail/pkg/provider/image"
	"github.com/MrWong99/storytrail/pkg/story"
)

// ErrNoImage is returned when no illustration could be produced for a prompt.
var ErrNoImage = errors.New("imagecache: no image")

// DefaultChildAge is the age used in the styling template.
const DefaultChildAge = 3

// fileExt is the extension of every cached file. The openai provider always
// returns PNG; other formats are stored under the same name and left to the
// renderer to sniff.
const fileExt = ".png"

// DefaultGenerationTimeout bounds one provider call when no
// [WithGenerationTimeout] is given.
const DefaultGenerationTimeout = 2 * time.Minute

// Option configures a [Cache].
type Option func(*Cache)

// WithChildAge sets the age mentioned in the styling template.
func WithChildAge(age int) Option {
	return func(c *Cache) { c.childAge = age }
}

// WithGenerationTimeout bounds a single image request. It applies even when
// every caller waiting on that request has given up. Default: 2m.
func WithGenerationTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics records generation latency, cache hits and failures on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithProviderName sets the provider label used in metrics. Default: "image".
func WithProviderName(name string) Option {
	return func(c *Cache) { c.providerName = name }
}

// Cache is a content-keyed, on-disk illustration store. It is safe for
// concurrent use.
type Cache struct {
	dir          string
	gen          image.Provider
	childAge     int
	providerName string
	timeout      time.Duration
	metrics      *observe.Metrics
	flight       singleflight.Group
}

// New creates the cache directory if necessary and returns a [Cache]
// generating missing illustrations with gen.
func New(dir string, gen image.Provider, opts ...Option) (*Cache, error) {
	if gen == nil {
		return nil, errors.New("imagecache: generator must not be nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagecache: create dir: %w", err)
	}
	c := &Cache{
		dir:          dir,
		gen:          gen,
		childAge:     DefaultChildAge,
		providerName: "image",
		timeout:      DefaultGenerationTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// StyledPrompt wraps a beat prompt in the child-friendly illustration brief.
func StyledPrompt(prompt string, childAge int) string {
	return "Please make a cute image suitable for " + strconv.Itoa(childAge) +
		" year old kids, with no writing, based on: " + prompt
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns the file an illustration for key is stored at. The file may
// not exist yet.
func (c *Cache) Path(key story.ImageKey) string {
	return filepath.Join(c.dir, string(key)+fileExt)
}

// Has reports whether an illustration for key is on disk.
func (c *Cache) Has(key story.ImageKey) bool {
	_, err := os.Stat(c.Path(key))
	return err == nil
}

// EnsureImage makes sure an illustration for prompt exists and returns its
// key. A prompt that is already cached returns immediately.
func (c *Cache) EnsureImage(ctx context.Context, prompt string) (story.ImageKey, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrNoImage)
	}
	key := story.KeyFor(prompt)
	if c.Has(key) {
		c.recordLookup(ctx, true)
		return key, nil
	}
	c.recordLookup(ctx, false)

	ch := c.flight.DoChan(string(key), func() (any, error) {
		// Detached so one caller giving up does not fail the others sharing
		// this generation; the timeout still frees the key.
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return nil, c.generate(gctx, key, prompt)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return key, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Cache) generate(ctx context.Context, key story.ImageKey, prompt string) error {
	if c.Has(key) {
		return nil
	}
	ctx, span := observe.StartGeneration(ctx, "image", c.providerName, string(key))
	defer span.End()

	log := observe.Logger(ctx).With("key", key)
	log.Info("generating illustration", "prompt", prompt)

	start := time.Now()
	img, err := c.gen.Generate(ctx, StyledPrompt(prompt, c.childAge))
	elapsed := time.Since(start)

	if c.metrics != nil {
		c.metrics.ImageDuration.Record(ctx, elapsed.Seconds())
	}
	if err == nil && (img == nil || len(img.Data) == 0) {
		err = errors.New("empty image returned")
	}
	if err != nil {
		observe.FailSpan(span, err)
		c.recordRequest(ctx, "error")
		log.Warn("illustration failed", "err", err, "duration", elapsed)
		return fmt.Errorf("%w: %w", ErrNoImage, err)
	}
	c.recordRequest(ctx, "ok")
	if img.RevisedPrompt != "" {
		log.Debug("prompt revised by provider", "revised_prompt", img.RevisedPrompt)
	}

	if err := atomicfile.Write(c.Path(key), img.Data); err != nil {
		log.Error("store illustration", "err", err)
		return fmt.Errorf("imagecache: store %s: %w", key, err)
	}
	log.Info("illustration stored", "duration", elapsed, "bytes", len(img.Data))
	return nil
}

// Stats summarises a [Cache.Pregenerate] run.
type Stats struct {
	Generated int
	Skipped   int
	Failed    int
}

// Pregenerate ensures an illustration for every prompt using at most workers
// concurrent generations. Prompts already on disk are skipped. Individual
// failures are counted rather than returned; the error is non-nil only when
// ctx ends the run early.
func (c *Cache) Pregenerate(ctx context.Context, prompts []string, workers int) (Stats, error) {
	if workers <= 0 {
		workers = 1
	}
	seen := make(map[story.ImageKey]bool, len(prompts))
	var todo []string
	var stats Stats
	for _, p := range prompts {
		key := story.KeyFor(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		if c.Has(key) {
			slog.Info("skipping illustration, already exists", "file", c.Path(key))
			stats.Skipped++
			continue
		}
		todo = append(todo, p)
	}

	results := make([]error, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range todo {
		g.Go(func() error {
			_, err := c.EnsureImage(gctx, p)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			results[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("imagecache: pregenerate: %w", err)
	}
	for _, err := range results {
		if err != nil {
			stats.Failed++
		} else {
			stats.Generated++
		}
	}
	return stats, nil
}

func (c *Cache) recordLookup(ctx context.Context, hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(ctx, "image", hit)
	}
}

func (c *Cache) recordRequest(ctx context.Context, status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordProviderRequest(ctx, c.providerName, "image", status)
	if status != "ok" {
		c.metrics.RecordProviderError(ctx, c.providerName, "image")
	}
}
