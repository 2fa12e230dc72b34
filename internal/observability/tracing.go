// Package observability provides OpenTelemetry tracing for kbchat.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
	"github.com/0xcro3dile/kbchat/internal/domain/ports"
)

// TracerName is the name used for the kbchat tracer.
const TracerName = "github.com/0xcro3dile/kbchat"

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g. "localhost:4317").
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "kbchat",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Shutdown flushes and stops the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// RecordError marks the span as failed.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type tracedEmbedder struct {
	next     ports.Embedder
	provider string
}

// TraceEmbedder wraps an embedder so every call produces a kbchat.embed span.
func TraceEmbedder(next ports.Embedder, provider string) ports.Embedder {
	return &tracedEmbedder{next: next, provider: provider}
}

func (e *tracedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "kbchat.embed",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("embedding.provider", e.provider),
			attribute.Int("embedding.input_length", len(text)),
		),
	)
	defer span.End()

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("embedding.dimensions", len(vec)))
	return vec, nil
}

type tracedGenerator struct {
	next     ports.Generator
	provider string
	model    string
}

// TraceGenerator wraps a generator so every call produces a kbchat.generate span.
func TraceGenerator(next ports.Generator, provider, model string) ports.Generator {
	return &tracedGenerator{next: next, provider: provider, model: model}
}

func (g *tracedGenerator) Generate(ctx context.Context, req entities.GenerationRequest) (*entities.GenerationResponse, error) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "kbchat.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", g.provider),
			attribute.String("llm.model", g.model),
			attribute.Int("llm.messages", len(req.Messages)),
		),
	)
	defer span.End()

	resp, err := g.next.Generate(ctx, req)
	if err != nil {
		RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("llm.choices", len(resp.Choices)))
	return resp, nil
}
