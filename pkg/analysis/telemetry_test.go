package analysis

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	metricReader *sdkmetric.ManualReader
	spanRecorder *tracetest.SpanRecorder
)

func TestMain(m *testing.M) {
	metricReader = sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	otel.SetMeterProvider(mp)

	spanRecorder = tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	otel.SetTracerProvider(tp)

	code := m.Run()

	_ = mp.Shutdown(context.Background())
	_ = tp.Shutdown(context.Background())
	os.Exit(code)
}

func solveCount(t *testing.T, strategy, outcome string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, metricReader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "spice_solves_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				s, _ := dp.Attributes.Value(attribute.Key("strategy"))
				o, _ := dp.Attributes.Value(attribute.Key("outcome"))
				if s.AsString() == strategy && o.AsString() == outcome {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func TestSolveMetrics(t *testing.T) {
	okBefore := solveCount(t, "direct", "ok")
	failBefore := solveCount(t, "direct", "SINGULAR_MATRIX")

	_, err := Solve(divider(t, 10, 1e3))
	require.NoError(t, err)
	_, err = Solve(island(t))
	require.Error(t, err)

	assert.Equal(t, okBefore+1, solveCount(t, "direct", "ok"))
	assert.Equal(t, failBefore+1, solveCount(t, "direct", "SINGULAR_MATRIX"))
}

func TestSolveSpan(t *testing.T) {
	_, err := Solve(divider(t, 10, 1e3))
	require.NoError(t, err)

	var names []string
	for _, s := range spanRecorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "OperatingPoint.Solve")
}
