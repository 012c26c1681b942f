package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrWong99/storytrail"

// Span attribute keys shared by the asset caches.
const (
	KeyAssetKind = attribute.Key("storytrail.asset.kind")
	KeyAssetKey  = attribute.Key("storytrail.asset.key")
	KeyProvider  = attribute.Key("storytrail.provider")
)

// Tracer returns the storytrail tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span. The caller must end it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// StartGeneration starts a client span around one provider call that
// produces an asset ("image" or "tts") stored under key.
func StartGeneration(ctx context.Context, kind, provider, key string) (context.Context, trace.Span) {
	return StartSpan(ctx, kind+".generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			KeyAssetKind.String(kind),
			KeyAssetKey.String(key),
			KeyProvider.String(provider),
		),
	)
}

// FailSpan marks span as failed with err. A nil err leaves it untouched.
func FailSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the trace ID of the active span in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger, tagged with trace_id and span_id when
// ctx carries a span so cache log lines can be matched to traces.
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
