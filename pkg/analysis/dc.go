package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/DrCloy/web-spice-sub001/pkg/circuit"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const maxSweepPoints = 1_000_000

// Sweep steps one independent source from Start to Stop inclusive.
type Sweep struct {
	Source string  `yaml:"source" json:"source"`
	Start  float64 `yaml:"start" json:"start"`
	Stop   float64 `yaml:"stop" json:"stop"`
	Step   float64 `yaml:"step" json:"step"`
}

// Points returns start + i*step for i = 0..floor((stop-start)/step).
func (s Sweep) Points() ([]float64, error) {
	for _, v := range []float64{s.Start, s.Stop, s.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, simerr.New(simerr.InvalidParameter, "sweep bounds must be finite").WithComponent(s.Source)
		}
	}
	if s.Step == 0 {
		return nil, simerr.New(simerr.InvalidParameter, "sweep step is zero").WithComponent(s.Source)
	}
	span := s.Stop - s.Start
	if span != 0 && math.Signbit(span) != math.Signbit(s.Step) {
		return nil, simerr.New(simerr.InvalidParameter, "step %g does not move from %g toward %g",
			s.Step, s.Start, s.Stop).WithComponent(s.Source)
	}

	n := math.Floor(span/s.Step + 1e-9)
	if n+1 > maxSweepPoints {
		return nil, simerr.New(simerr.InvalidParameter, "sweep has %.0f points, limit is %d", n+1, maxSweepPoints).
			WithComponent(s.Source)
	}
	points := make([]float64, int(n)+1)
	for i := range points {
		points[i] = s.Start + float64(i)*s.Step
	}
	return points, nil
}

// SweepPoint holds one solved grid point; Values has one entry per sweep in
// sweep order.
type SweepPoint struct {
	Values []float64 `json:"values" yaml:"values"`
	Result *Result   `json:"result" yaml:"result"`
}

// DCSweep solves the operating point over the cartesian grid of its sweeps,
// the first sweep outermost. Points are solved concurrently and reported in
// grid order.
type DCSweep struct {
	BaseAnalysis
	sweeps []Sweep
	grid   [][]float64
	points []SweepPoint
}

func NewDCSweep(sweeps []Sweep, opts ...Option) *DCSweep {
	return &DCSweep{
		BaseAnalysis: newBaseAnalysis(opts),
		sweeps:       append([]Sweep(nil), sweeps...),
	}
}

func (dc *DCSweep) Sweeps() []Sweep {
	return append([]Sweep(nil), dc.sweeps...)
}

func (dc *DCSweep) Setup(ckt *circuit.Circuit) error {
	if err := dc.BaseAnalysis.Setup(ckt); err != nil {
		return err
	}
	if len(dc.sweeps) == 0 {
		return simerr.New(simerr.InvalidParameter, "no sweep sources")
	}

	seen := make(map[string]bool, len(dc.sweeps))
	values := make([][]float64, len(dc.sweeps))
	for i, sw := range dc.sweeps {
		comp, ok := ckt.Component(sw.Source)
		if !ok {
			return simerr.New(simerr.InvalidParameter, "sweep source not found").WithComponent(sw.Source)
		}
		if !comp.Kind().IsSource() {
			return simerr.New(simerr.InvalidParameter, "cannot sweep a %s", comp.Kind()).WithComponent(sw.Source)
		}
		if seen[sw.Source] {
			return simerr.New(simerr.InvalidParameter, "source swept twice").WithComponent(sw.Source)
		}
		seen[sw.Source] = true

		pts, err := sw.Points()
		if err != nil {
			return err
		}
		values[i] = pts
	}

	total := 1
	for _, vs := range values {
		if len(vs) > maxSweepPoints/total {
			return simerr.New(simerr.InvalidParameter, "sweep grid exceeds %d points", maxSweepPoints)
		}
		total *= len(vs)
	}

	dc.grid = cartesian(values)
	dc.points = nil
	return nil
}

func cartesian(values [][]float64) [][]float64 {
	grid := [][]float64{{}}
	for _, vs := range values {
		next := make([][]float64, 0, len(grid)*len(vs))
		for _, prefix := range grid {
			for _, v := range vs {
				p := make([]float64, len(prefix)+1)
				copy(p, prefix)
				p[len(prefix)] = v
				next = append(next, p)
			}
		}
		grid = next
	}
	return grid
}

func (dc *DCSweep) Execute(ctx context.Context) error {
	if dc.Circuit == nil || dc.grid == nil {
		return simerr.New(simerr.InvalidParameter, "sweep not set up")
	}

	ctx, span := startSweepSpan(ctx, len(dc.grid))
	defer span.End()

	op := &OperatingPoint{BaseAnalysis: BaseAnalysis{cfg: dc.cfg}}
	results := make([]*Result, len(dc.grid))
	errs := make([]error, len(dc.grid))

	workers := dc.cfg.workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, point := range dc.grid {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := dc.solvePoint(gctx, op, point)
			if err != nil {
				errs[i] = err
				return err
			}
			results[i] = res
			return nil
		})
	}
	waitErr := g.Wait()

	// lowest failing index wins so the reported point is deterministic
	for _, err := range errs {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	if waitErr != nil {
		return waitErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dc.points = make([]SweepPoint, len(dc.grid))
	for i, point := range dc.grid {
		for k, v := range point {
			dc.storeValue(fmt.Sprintf("SWEEP%d", k+1), v)
		}
		dc.storeResult(results[i])
		dc.points[i] = SweepPoint{Values: point, Result: results[i]}
	}
	recordSweepPoints(ctx, len(dc.grid))

	dc.cfg.logger.Debug("dc sweep finished", "circuit", dc.Circuit.ID(), "points", len(dc.grid))
	return nil
}

func (dc *DCSweep) solvePoint(ctx context.Context, op *OperatingPoint, point []float64) (*Result, error) {
	ckt := dc.Circuit
	for k, sw := range dc.sweeps {
		var err error
		ckt, err = ckt.WithSourceValue(sw.Source, point[k])
		if err != nil {
			return nil, fmt.Errorf("sweep point %s: %w", dc.describe(point), err)
		}
	}
	res, err := op.Solve(ctx, ckt)
	if err != nil {
		return nil, fmt.Errorf("sweep point %s: %w", dc.describe(point), err)
	}
	return res, nil
}

func (dc *DCSweep) describe(point []float64) string {
	parts := make([]string, len(point))
	for k, v := range point {
		parts[k] = fmt.Sprintf("%s=%g", dc.sweeps[k].Source, v)
	}
	return strings.Join(parts, ", ")
}

// Points returns the solved grid of the last Execute.
func (dc *DCSweep) Points() []SweepPoint {
	return dc.points
}
