// Package observe provides the observability primitives shared by the game
// driver, the asset caches and the ops HTTP server: OpenTelemetry metrics,
// tracing helpers, trace-aware logging and an HTTP middleware.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed for
// Prometheus scraping via [InitProvider]. Tests should build their own
// [Metrics] with [NewMetrics] and a manual reader instead of using
// [DefaultMetrics].
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all storytrail metrics.
const meterName = "github.com/MrWong99/storytrail"

// Metrics holds the OpenTelemetry instruments of the application.
type Metrics struct {
	// ImageDuration tracks illustration generation latency.
	ImageDuration metric.Float64Histogram

	// TTSDuration tracks narration synthesis latency.
	TTSDuration metric.Float64Histogram

	// ProviderRequests counts provider calls. Attributes: provider, kind, status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider failures. Attributes: provider, kind.
	ProviderErrors metric.Int64Counter

	// CacheLookups counts asset cache lookups. Attributes: kind, result (hit|miss).
	CacheLookups metric.Int64Counter

	// Transitions counts engine transitions. Attributes: event, mode.
	Transitions metric.Int64Counter

	// Restarts counts wrong answers that sent the player back to the start.
	Restarts metric.Int64Counter

	// ActivePlays tracks the number of running play-throughs.
	ActivePlays metric.Int64UpDownCounter

	// HTTPRequestDuration tracks ops endpoint latency. Attributes: method, path.
	HTTPRequestDuration metric.Float64Histogram
}

// generationBuckets are histogram boundaries in seconds. Image models
// routinely take tens of seconds, speech a few hundred milliseconds.
var generationBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80,
}

// NewMetrics creates all instruments on the given [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ImageDuration, err = m.Float64Histogram("storytrail.image.duration",
		metric.WithDescription("Latency of illustration generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(generationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("storytrail.tts.duration",
		metric.WithDescription("Latency of narration synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(generationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("storytrail.provider.requests",
		metric.WithDescription("Provider requests by provider, kind and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("storytrail.provider.errors",
		metric.WithDescription("Provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.CacheLookups, err = m.Int64Counter("storytrail.cache.lookups",
		metric.WithDescription("Asset cache lookups by kind and result."),
	); err != nil {
		return nil, err
	}
	if met.Transitions, err = m.Int64Counter("storytrail.transitions",
		metric.WithDescription("Narrative transitions by event and resulting mode."),
	); err != nil {
		return nil, err
	}
	if met.Restarts, err = m.Int64Counter("storytrail.restarts",
		metric.WithDescription("Wrong answers that reset the play-through."),
	); err != nil {
		return nil, err
	}
	if met.ActivePlays, err = m.Int64UpDownCounter("storytrail.active_plays",
		metric.WithDescription("Number of running play-throughs."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("storytrail.http.request.duration",
		metric.WithDescription("Ops HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], created on first use
// from [otel.GetMeterProvider].
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is shorthand for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest counts one provider call.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		Attr("provider", provider), Attr("kind", kind), Attr("status", status),
	))
}

// RecordProviderError counts one provider failure.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
		Attr("provider", provider), Attr("kind", kind),
	))
}

// RecordCacheLookup counts a cache hit or miss for the given asset kind.
func (m *Metrics) RecordCacheLookup(ctx context.Context, kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(
		Attr("kind", kind), Attr("result", result),
	))
}

// RecordTransition counts one engine step.
func (m *Metrics) RecordTransition(ctx context.Context, event, mode string) {
	m.Transitions.Add(ctx, 1, metric.WithAttributes(
		Attr("event", event), Attr("mode", mode),
	))
}
