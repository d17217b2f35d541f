// Package observability wires OpenTelemetry tracing for applications using
// the rest client: an OTLP/HTTP exporter, a tracer provider and W3C trace
// context propagation.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/avalab/restcore/pkg/config"
	"github.com/avalab/restcore/pkg/logger"
)

// Tracing owns the tracer provider lifecycle.
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	log      logger.Logger
}

// Setup creates the tracer provider from configuration and installs it as
// the global provider together with W3C propagation. Config keys:
// service.name, service.version, otel.endpoint (OTLP/HTTP, default
// localhost:4318).
func Setup(log logger.Logger, cfg *config.Config) (*Tracing, error) {
	serviceName := cfg.GetStringD("service.name", "restcore")
	serviceVersion := cfg.GetStringD("service.version", "dev")
	endpoint := cfg.GetStringD("otel.endpoint", "localhost:4318")

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracing{
		provider: tp,
		tracer:   tp.Tracer(serviceName, trace.WithInstrumentationVersion(serviceVersion)),
		log:      log,
	}, nil
}

// Tracer returns the configured tracer.
func (t *Tracing) Tracer() trace.Tracer { return t.tracer }

// StartSpan creates a new span.
func (t *Tracing) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes and stops the tracer provider.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down tracer provider: %w", err)
	}
	return nil
}
