// Package telemetry installs the global OpenTelemetry providers that the
// solver's spans and instruments report to.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

var ErrUnknownExporter = errors.New("unknown exporter")

// Config selects exporters. Trace exporters: "none", "stdout". Metric
// exporters: "none", "stdout", "prometheus".
type Config struct {
	ServiceName    string
	ServiceVersion string
	TraceExporter  string
	MetricExporter string
	Writer         io.Writer // stdout exporters; nil means os.Stderr
}

// Telemetry owns the installed providers.
type Telemetry struct {
	shutdownFuncs  []func(context.Context) error
	metricsHandler http.Handler
}

// Init installs the configured providers as the otel globals. Call it
// once at startup and Shutdown before exit to flush pending spans.
func Init(cfg Config) (*Telemetry, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	t := &Telemetry{}

	switch cfg.TraceExporter {
	case "", "none":
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		tp := trace.NewTracerProvider(
			trace.WithSyncer(exporter),
			trace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		t.shutdownFuncs = append(t.shutdownFuncs, tp.Shutdown)
	default:
		return nil, fmt.Errorf("%w: trace %q", ErrUnknownExporter, cfg.TraceExporter)
	}

	var reader metric.Reader
	switch cfg.MetricExporter {
	case "", "none":
	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w), stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		reader = metric.NewPeriodicReader(exporter)
	case "prometheus":
		reg := prometheus.NewRegistry()
		exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		reader = exporter
		t.metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	default:
		return nil, fmt.Errorf("%w: metric %q", ErrUnknownExporter, cfg.MetricExporter)
	}
	if reader != nil {
		mp := metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(reader),
		)
		otel.SetMeterProvider(mp)
		t.shutdownFuncs = append(t.shutdownFuncs, mp.Shutdown)
	}

	return t, nil
}

// MetricsHandler serves the Prometheus scrape endpoint, or nil when the
// prometheus exporter is not configured.
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.metricsHandler
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdownFuncs {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
