// Package telemetry wires OpenTelemetry tracing around the router.
package telemetry

import (
	"context"
	"fmt"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"
)

// ServiceName identifies the API in traces.
const ServiceName = "port-plaisance-api"

// InitTracer initializes the OpenTelemetry tracer provider
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
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

	return tp, nil
}

// Setup starts tracing when enabled and an endpoint is configured. It
// returns a nil provider (and no error) when tracing stays off.
func Setup(ctx context.Context, enabled bool, endpoint string, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	if !enabled {
		return nil, nil
	}
	if endpoint == "" {
		logger.Warn("otel_enabled_but_endpoint_not_configured")
		return nil, nil
	}
	tp, err := InitTracer(ctx, ServiceName, endpoint)
	if err != nil {
		return nil, err
	}
	logger.Info("otel_tracer_initialized", zap.String("endpoint", endpoint))
	return tp, nil
}

// Instrument registers tracing on r when tp is non-nil. Call it before the
// request pipeline is assembled so spans cover every stage.
func Instrument(r *mux.Router, tp *sdktrace.TracerProvider) {
	if tp != nil {
		r.Use(otelmux.Middleware(ServiceName, otelmux.WithTracerProvider(tp)))
	}
}

// Shutdown gracefully shuts down the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
