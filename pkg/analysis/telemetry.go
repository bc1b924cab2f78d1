package analysis

import (
	"context"
	"sync"

	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/DrCloy/web-spice-sub001/pkg/analysis"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)
)

var (
	solvesTotal      metric.Int64Counter
	newtonIterations metric.Int64Histogram
	sweepPoints      metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		solvesTotal, err = meter.Int64Counter(
			"spice_solves_total",
			metric.WithDescription("Operating-point solves by strategy and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		newtonIterations, err = meter.Int64Histogram(
			"spice_newton_iterations",
			metric.WithDescription("Iterations needed by converged solves"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		sweepPoints, err = meter.Int64Counter(
			"spice_sweep_points_total",
			metric.WithDescription("DC sweep points solved"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := simerr.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}

func recordSolve(ctx context.Context, strategy Strategy, iterations int, err error) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("strategy", strategy.String()),
		attribute.String("outcome", outcome(err)),
	)
	solvesTotal.Add(ctx, 1, attrs)
	if err == nil {
		newtonIterations.Record(ctx, int64(iterations),
			metric.WithAttributes(attribute.String("strategy", strategy.String())))
	}
}

func recordSweepPoints(ctx context.Context, n int) {
	if initMetrics() != nil {
		return
	}
	sweepPoints.Add(ctx, int64(n))
}

func startSolveSpan(ctx context.Context, circuitID string, unknowns int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "OperatingPoint.Solve",
		trace.WithAttributes(
			attribute.String("circuit.id", circuitID),
			attribute.Int("circuit.unknowns", unknowns),
		),
	)
}

func startSweepSpan(ctx context.Context, points int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "DCSweep.Execute",
		trace.WithAttributes(attribute.Int("sweep.points", points)),
	)
}
