// Package obstrace initializes the OpenTelemetry SDK shared by
// cmd/toolserver and cmd/scheduler: an OTLP HTTP exporter, a resource
// describing the running binary, and the W3C trace-context + baggage
// propagators every inbound and outbound call relies on.
package obstrace

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Config describes how to stand up the tracer provider.
type Config struct {
	ServiceName   string
	Version       string
	OTLPEndpoint  string
	Enabled       bool
	SamplingRatio float64
	Environment   string
}

// Provider wraps the SDK's tracer provider for lifecycle management.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// FromEnv reads OTEL_SDK_DISABLED, OTEL_EXPORTER_OTLP_ENDPOINT,
// OTEL_SERVICE_NAME, OTEL_SAMPLING_RATIO, and OTEL_ENVIRONMENT, then
// initializes the provider. A nil return (with nil error) means tracing is
// disabled; callers should treat every Provider method as a no-op in that
// case.
func FromEnv(serviceName, version string) (*Provider, error) {
	cfg := Config{
		ServiceName: serviceName,
		Version:     version,
		Enabled:     os.Getenv("OTEL_SDK_DISABLED") != "true",
	}

	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if cfg.OTLPEndpoint == "" {
		cfg.OTLPEndpoint = "http://localhost:4318"
	}
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		cfg.ServiceName = name
	}
	cfg.SamplingRatio = 1.0
	if ratio := os.Getenv("OTEL_SAMPLING_RATIO"); ratio != "" {
		if parsed, err := strconv.ParseFloat(ratio, 64); err == nil {
			cfg.SamplingRatio = parsed
		}
	}
	cfg.Environment = os.Getenv("OTEL_ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if !cfg.Enabled {
		return nil, nil
	}
	return New(cfg)
}

// New builds a Provider from an explicit Config.
func New(cfg Config) (*Provider, error) {
	ctx := context.Background()

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(
		otlptracehttp.WithEndpoint(stripProtocol(cfg.OTLPEndpoint)),
		otlptracehttp.WithInsecure(),
	))
	if err != nil {
		return nil, fmt.Errorf("obstrace: create exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
		resource.WithProcess(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("obstrace: build resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRatio >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SamplingRatio <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRatio)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{tp: tp}, nil
}

// Shutdown flushes any buffered spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(shutdownCtx)
}

func stripProtocol(endpoint string) string {
	switch {
	case len(endpoint) > 7 && endpoint[:7] == "http://":
		return endpoint[7:]
	case len(endpoint) > 8 && endpoint[:8] == "https://":
		return endpoint[8:]
	default:
		return endpoint
	}
}
