package obstrace

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ExtractFromHeaders parses W3C traceparent/tracestate (and any baggage)
// from an inbound request's headers and returns a context carrying the
// extracted span, suitable for parenting the request's own span.
func ExtractFromHeaders(ctx context.Context, h http.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(h))
}

// TraceID returns the recording span's trace id, or "" if ctx carries no
// recording span.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// SpanID returns the recording span's span id, or "" if ctx carries no
// recording span.
func SpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
