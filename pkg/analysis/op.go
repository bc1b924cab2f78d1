package analysis

import (
	"context"
	"errors"

	"github.com/DrCloy/web-spice-sub001/pkg/circuit"
	"github.com/DrCloy/web-spice-sub001/pkg/matrix"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type OperatingPoint struct {
	BaseAnalysis
	last *Result
}

func NewOP(opts ...Option) *OperatingPoint {
	return &OperatingPoint{BaseAnalysis: newBaseAnalysis(opts)}
}

// Solve computes the operating point of ckt. Any number of solves may run
// concurrently on the same OperatingPoint and circuit.
func Solve(ckt *circuit.Circuit) (*Result, error) {
	return NewOP().Solve(context.Background(), ckt)
}

func (op *OperatingPoint) Execute(ctx context.Context) error {
	if op.Circuit == nil {
		return simerr.New(simerr.InvalidParameter, "circuit not set")
	}
	res, err := op.Solve(ctx, op.Circuit)
	if err != nil {
		return err
	}
	op.last = res
	op.storeResult(res)
	return nil
}

// Result returns the operating point computed by the last Execute.
func (op *OperatingPoint) Result() *Result {
	return op.last
}

func (op *OperatingPoint) Solve(ctx context.Context, ckt *circuit.Circuit) (*Result, error) {
	if ckt == nil {
		return nil, simerr.New(simerr.InvalidParameter, "nil circuit")
	}
	cfg := op.cfg
	log := cfg.logger.With("circuit", ckt.ID())

	ctx, span := startSolveSpan(ctx, ckt.ID(), ckt.NumUnknowns())
	defer span.End()

	strategy := cfg.strategy
	if strategy == StrategyAuto {
		strategy = StrategyNewton
		if ckt.Linear() {
			strategy = StrategyDirect
		}
	}
	span.SetAttributes(attribute.String("solve.strategy", strategy.String()))

	res, err := op.solve(ckt, strategy)
	iterations := 0
	if res != nil {
		iterations = res.Iterations
	}
	recordSolve(ctx, strategy, iterations, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debug("operating point failed", "strategy", strategy.String(), "error", err)
		return nil, err
	}

	log.Debug("operating point solved",
		"strategy", res.Strategy,
		"iterations", res.Iterations,
		"residual_norm", res.ResidualNorm,
	)
	return res, nil
}

func (op *OperatingPoint) solve(ckt *circuit.Circuit, strategy Strategy) (*Result, error) {
	cfg := op.cfg
	if cfg.checkFloating {
		if err := circuit.CheckConnectivity(ckt); err != nil {
			return nil, err
		}
	}

	asm, err := circuit.Assemble(ckt)
	if err != nil {
		return nil, err
	}

	solver := cfg.backend.Solver()
	var nr *NewtonResult
	switch strategy {
	case StrategyDirect:
		nr, err = solveDirect(asm, solver)
	case StrategyNewton:
		opts := cfg.newton
		if opts.Solver == nil {
			opts.Solver = solver
		}
		if opts.Logger == nil {
			opts.Logger = cfg.logger
		}
		nr, err = Newton(circuit.NewSystem(asm), matrix.NewVector(asm.Size()), opts)
		err = circuitSingular(err)
	default:
		return nil, simerr.New(simerr.InvalidParameter, "unsupported strategy %s", strategy)
	}
	if err != nil {
		return nil, singularContext(err, asm)
	}

	return newResult(ckt, asm, nr.Solution, strategy, nr), nil
}

// solveDirect reports what one undamped Newton step from x = 0 would.
func solveDirect(asm *circuit.Assembly, solver matrix.LinearSolver) (*NewtonResult, error) {
	x, err := solver.Solve(asm.A, asm.B)
	if err != nil {
		return nil, err
	}
	return &NewtonResult{
		Solution:     x,
		Iterations:   1,
		Converged:    true,
		ResidualNorm: matrix.NormInf(matrix.Sub(asm.A.MulVec(x), asm.B)),
		UpdateNorm:   matrix.NormInf(x),
	}, nil
}

// circuitSingular reports a singular Jacobian of a circuit system as
// SINGULAR_MATRIX. The Jacobian is the constant MNA matrix, so the circuit
// itself has no unique solution.
func circuitSingular(err error) error {
	e, ok := simerr.As(err)
	if !ok || e.Code != simerr.ConvergenceFailed || !errors.Is(err, simerr.ErrSingularMatrix) {
		return err
	}
	if inner, ok := simerr.As(e.Err); ok {
		return inner
	}
	return err
}

// singularContext names the unknown whose pivot column failed.
func singularContext(err error, asm *circuit.Assembly) error {
	var pe *matrix.PivotError
	if !errors.As(err, &pe) {
		return err
	}
	e, ok := simerr.As(err)
	if !ok || e.NodeID != "" || e.ComponentID != "" {
		return err
	}
	switch col := pe.Column; {
	case col < len(asm.Nodes):
		return e.WithNode(asm.Nodes[col])
	case col < asm.Size():
		return e.WithComponent(asm.Branches[col-len(asm.Nodes)])
	}
	return err
}
