package analysis

import (
	"context"
	"testing"

	"github.com/DrCloy/web-spice-sub001/pkg/device"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepPoints(t *testing.T) {
	tests := []struct {
		name  string
		sweep Sweep
		want  []float64
	}{
		{"ascending", Sweep{"V1", 0, 1, 0.25}, []float64{0, 0.25, 0.5, 0.75, 1}},
		{"descending", Sweep{"V1", 1, 0, -0.5}, []float64{1, 0.5, 0}},
		{"single", Sweep{"V1", 2, 2, 1}, []float64{2}},
		{"stop not on grid", Sweep{"V1", 0, 1, 0.4}, []float64{0, 0.4, 0.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sweep.Points()
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}

	pts, err := Sweep{"V1", 0, 1, 0.1}.Points()
	require.NoError(t, err)
	assert.Len(t, pts, 11)
}

func TestSweepPointsRejects(t *testing.T) {
	for _, sw := range []Sweep{
		{"V1", 0, 1, 0},
		{"V1", 0, 1, -0.1},
		{"V1", 1, 0, 0.1},
		{"V1", 0, 1, 1e-9},
	} {
		_, err := sw.Points()
		assert.Equal(t, simerr.InvalidParameter, simerr.CodeOf(err), "%+v", sw)
	}
}

func TestDCSweepSingleSource(t *testing.T) {
	dc := NewDCSweep([]Sweep{{Source: "V1", Start: 0, Stop: 10, Step: 1}}, WithWorkers(3))
	require.NoError(t, dc.Setup(divider(t, 10, 1e3)))
	require.NoError(t, dc.Execute(context.Background()))

	points := dc.Points()
	require.Len(t, points, 11)
	for i, p := range points {
		assert.Equal(t, []float64{float64(i)}, p.Values)
		assert.InDelta(t, float64(i)/2, p.Result.NodeVoltages["mid"], 1e-9)
	}

	results := dc.GetResults()
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, results["SWEEP1"])
	assert.Len(t, results["V(mid)"], 11)
	assert.InDelta(t, 2.5, results["V(mid)"][5], 1e-9)
}

func TestDCSweepNested(t *testing.T) {
	sweeps := []Sweep{
		{Source: "V1", Start: 0, Stop: 2, Step: 1},
		{Source: "I1", Start: 0, Stop: 1e-3, Step: 1e-3},
	}
	dc := NewDCSweep(sweeps)
	require.NoError(t, dc.Setup(bridge(t, 1, 1)))
	require.NoError(t, dc.Execute(context.Background()))

	var got [][]float64
	for _, p := range dc.Points() {
		got = append(got, p.Values)
	}
	assert.Equal(t, [][]float64{{0, 0}, {0, 1e-3}, {1, 0}, {1, 1e-3}, {2, 0}, {2, 1e-3}}, got)

	// V1 = 0, I1 = 0 leaves every node at 0 V.
	for _, v := range dc.Points()[0].Result.NodeVoltages {
		assert.Zero(t, v)
	}
	assert.Equal(t, 1e-3, dc.Points()[5].Result.ComponentCurrents["I1"])
	assert.Len(t, dc.GetResults()["SWEEP2"], 6)
}

func TestDCSweepSetupErrors(t *testing.T) {
	ckt := divider(t, 10, 1e3)
	tests := []struct {
		name   string
		sweeps []Sweep
	}{
		{"none", nil},
		{"unknown source", []Sweep{{Source: "V9", Start: 0, Stop: 1, Step: 1}}},
		{"not a source", []Sweep{{Source: "R1", Start: 1, Stop: 2, Step: 1}}},
		{"twice", []Sweep{{Source: "V1", Start: 0, Stop: 1, Step: 1}, {Source: "V1", Start: 0, Stop: 1, Step: 1}}},
		{"bad step", []Sweep{{Source: "V1", Start: 0, Stop: 1, Step: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDCSweep(tt.sweeps).Setup(ckt)
			assert.Equal(t, simerr.InvalidParameter, simerr.CodeOf(err))
		})
	}

	assert.Error(t, NewDCSweep(nil).Execute(context.Background()))
}

func TestDCSweepGridLimit(t *testing.T) {
	ckt := bridge(t, 1, 1)
	grid := func(n1, n2 float64) []Sweep {
		return []Sweep{
			{Source: "V1", Start: 0, Stop: n1 - 1, Step: 1},
			{Source: "I1", Start: 0, Stop: n2 - 1, Step: 1},
		}
	}

	for _, sweeps := range [][]Sweep{grid(100000, 100000), grid(1000, 1001)} {
		err := NewDCSweep(sweeps).Setup(ckt)
		require.Error(t, err)
		assert.Equal(t, simerr.InvalidParameter, simerr.CodeOf(err))
	}

	assert.NoError(t, NewDCSweep(grid(100000, 1)).Setup(ckt))
}

func TestDCSweepFailingPoint(t *testing.T) {
	ckt := build(t,
		must(t)(device.NewVoltageSource("V1", "", "a", "0", 1)),
		must(t)(device.NewResistor("R1", "", "a", "0", 1e3)),
		must(t)(device.NewResistor("R2", "", "x", "y", 1e3)),
		must(t)(device.NewGround("gnd", "", "0")),
	)
	dc := NewDCSweep([]Sweep{{Source: "V1", Start: 0, Stop: 5, Step: 1}}, WithWorkers(4))
	require.NoError(t, dc.Setup(ckt))

	err := dc.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, simerr.SingularMatrix, simerr.CodeOf(err))
	assert.Contains(t, err.Error(), "sweep point V1=0:")
	assert.Nil(t, dc.Points())
}

func TestDCSweepCanceled(t *testing.T) {
	dc := NewDCSweep([]Sweep{{Source: "V1", Start: 0, Stop: 10, Step: 1}})
	require.NoError(t, dc.Setup(divider(t, 10, 1e3)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, dc.Execute(ctx), context.Canceled)
}
