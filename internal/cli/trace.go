package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/roach88/packtrack/internal/config"
	"github.com/roach88/packtrack/internal/ir"
)

// setupTelemetry installs global tracer and meter providers for the exporter
// and returns a shutdown func that flushes both. With no exporter the global
// no-op providers are left in place.
func setupTelemetry(exporter string, w io.Writer) (func(context.Context) error, error) {
	switch exporter {
	case config.TraceNone, "":
		return func(context.Context) error { return nil }, nil
	case config.TraceStdout:
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", exporter)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "packtrack"),
		attribute.String("service.version", ir.EngineVersion),
	)

	spanExp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	metricExp, err := stdoutmetric.New(stdoutmetric.WithWriter(w), stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
