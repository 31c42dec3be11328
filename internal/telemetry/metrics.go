// Package telemetry installs the OpenTelemetry meter and tracer providers
// used by the query service instruments.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const serviceName = "vitalis-monitor"

// Exporter names accepted in the metrics and tracing config sections.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Options configures Setup.
type Options struct {
	Exporter       string
	Interval       time.Duration
	TraceExporter  string
	ServiceVersion string

	// Writer receives stdout exporter output; nil means os.Stdout.
	Writer io.Writer
}

// Setup installs global meter and tracer providers for the selected
// exporters and returns a shutdown function that flushes both. With
// ExporterNone the corresponding global no-op provider is left in place.
func Setup(opts Options) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	metrics, err := enabled(opts.Exporter)
	if err != nil {
		return noop, err
	}
	traces, err := enabled(opts.TraceExporter)
	if err != nil {
		return noop, err
	}
	if !metrics && !traces {
		return noop, nil
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("failed to create telemetry resource: %w", err)
	}

	var shutdowns []func(context.Context) error

	if metrics {
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return noop, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
		var readerOpts []sdkmetric.PeriodicReaderOption
		if opts.Interval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(opts.Interval))
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	if traces {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return noop, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	return func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}, nil
}

func enabled(exporter string) (bool, error) {
	switch exporter {
	case "", ExporterNone:
		return false, nil
	case ExporterStdout:
		return true, nil
	default:
		return false, fmt.Errorf("unknown exporter type: %s", exporter)
	}
}
