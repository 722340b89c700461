// Package telemetry wires the pipeline's spans and counters to
// OpenTelemetry. Every pipeline stage is no-op-safe: a nil or unconfigured
// provider never panics a caller, it just skips emission.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Provider owns the tracer/meter and their exporters for one process.
type Provider struct {
	tracer trace.Tracer
	meter  metric.Meter

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider

	shutdownOnce sync.Once
}

const instrumentationName = "brain/cognition-orchestrator"

// Init configures OpenTelemetry for the service. When otlpEndpoint is
// empty, spans are written to stdout (developer mode); otherwise they are
// exported via OTLP/gRPC to the given collector endpoint.
func Init(serviceName, otlpEndpoint string) (*Provider, error) {
	if serviceName == "" {
		serviceName = "brain"
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	var spanProcessor sdktrace.TracerProviderOption
	if otlpEndpoint == "" {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
		}
		spanProcessor = sdktrace.WithBatcher(exp)
	} else {
		exp, err := otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(otlpEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("telemetry: otlp exporter: %w", err)
		}
		spanProcessor = sdktrace.WithBatcher(exp)
	}

	tp := sdktrace.NewTracerProvider(spanProcessor, sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return &Provider{
		tracer: tp.Tracer(instrumentationName),
		meter:  mp.Meter(instrumentationName),
		tp:     tp,
		mp:     mp,
	}, nil
}

// NoOp returns a Provider whose spans and metrics are discarded. Safe for
// tests and for any binary that does not configure telemetry.
func NoOp() *Provider {
	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()
	return &Provider{tracer: tp.Tracer(instrumentationName), meter: mp.Meter(instrumentationName), tp: tp, mp: mp}
}

// Shutdown flushes and stops the exporters. Safe to call multiple times.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var err error
	p.shutdownOnce.Do(func() {
		if p.tp != nil {
			if e := p.tp.Shutdown(ctx); e != nil {
				err = e
			}
		}
		if p.mp != nil {
			if e := p.mp.Shutdown(ctx); e != nil {
				err = e
			}
		}
	})
	return err
}

// StartSpan starts a named span for one pipeline stage and returns the
// derived context plus an End function to defer.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	if p == nil || p.tracer == nil {
		return ctx, func() {}
	}
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, func() { span.End() }
}
