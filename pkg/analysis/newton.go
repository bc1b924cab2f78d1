package analysis

import (
	"errors"
	"log/slog"
	"math"

	"github.com/DrCloy/web-spice-sub001/pkg/matrix"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
)

// NonlinearSystem is F(x) = 0 together with its Jacobian. Residual and
// Jacobian must return values of length/size Size().
type NonlinearSystem interface {
	Size() int
	Residual(x matrix.Vector) matrix.Vector
	Jacobian(x matrix.Vector) *matrix.Dense
}

type NewtonOptions struct {
	MaxIterations int     `yaml:"maxIterations" json:"maxIterations"`
	AbsTol        float64 `yaml:"absTol" json:"absTol"`
	RelTol        float64 `yaml:"relTol" json:"relTol"`
	Damping       float64 `yaml:"damping" json:"damping"`

	Solver matrix.LinearSolver `yaml:"-" json:"-"` // nil: DenseLU
	Logger *slog.Logger        `yaml:"-" json:"-"` // nil: slog.Default()
}

func DefaultNewtonOptions() NewtonOptions {
	return NewtonOptions{
		MaxIterations: 100,
		AbsTol:        1e-12,
		RelTol:        1e-3,
		Damping:       1.0,
	}
}

func (o NewtonOptions) Validate() error {
	if o.MaxIterations <= 0 {
		return simerr.New(simerr.InvalidParameter, "maxIterations must be positive, got %d", o.MaxIterations)
	}
	if !(o.AbsTol >= 0) || math.IsInf(o.AbsTol, 0) {
		return simerr.New(simerr.InvalidParameter, "absTol must be finite and >= 0, got %g", o.AbsTol)
	}
	if !(o.RelTol >= 0) || math.IsInf(o.RelTol, 0) {
		return simerr.New(simerr.InvalidParameter, "relTol must be finite and >= 0, got %g", o.RelTol)
	}
	if !(o.Damping > 0 && o.Damping <= 1) {
		return simerr.New(simerr.InvalidParameter, "damping must be in (0,1], got %g", o.Damping)
	}
	return nil
}

type NewtonResult struct {
	Solution     matrix.Vector
	Iterations   int
	Converged    bool
	ResidualNorm float64
	UpdateNorm   float64
}

// Newton solves sys(x) = 0 from guess by damped Newton-Raphson. The guess is
// not modified. An iteration converges only when every damped step satisfies
// |step_i| < AbsTol + RelTol*|x_i| and the new residual norm is below AbsTol.
func Newton(sys NonlinearSystem, guess matrix.Vector, opts NewtonOptions) (*NewtonResult, error) {
	if sys == nil {
		return nil, simerr.New(simerr.InvalidParameter, "nil system")
	}
	if guess == nil {
		return nil, simerr.New(simerr.InvalidParameter, "nil initial guess")
	}
	if n := sys.Size(); len(guess) != n {
		return nil, simerr.New(simerr.InvalidParameter, "initial guess has length %d, system size is %d", len(guess), n)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	solver := opts.Solver
	if solver == nil {
		solver = matrix.DenseLU{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	x := guess.Clone()
	f := sys.Residual(x)
	resNorm := matrix.NormInf(f)
	if resNorm < opts.AbsTol {
		return &NewtonResult{Solution: x, Converged: true, ResidualNorm: resNorm}, nil
	}

	var updateNorm float64
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		j := sys.Jacobian(x)
		delta, err := solver.Solve(j, matrix.Negate(f))
		if err != nil {
			if errors.Is(err, simerr.ErrSingularMatrix) {
				return nil, simerr.Wrap(simerr.ConvergenceFailed, err, "singular Jacobian at iteration %d", iter)
			}
			return nil, err
		}

		updateNorm = 0
		small := true
		for i := range x {
			step := opts.Damping * delta[i]
			a := math.Abs(step)
			if a > updateNorm {
				updateNorm = a
			}
			if !(a < opts.AbsTol+opts.RelTol*math.Abs(x[i])) {
				small = false
			}
			x[i] += step
		}

		// reused as the next iteration's residual
		f = sys.Residual(x)
		resNorm = matrix.NormInf(f)

		logger.Debug("newton iteration",
			"iteration", iter,
			"residual_norm", resNorm,
			"update_norm", updateNorm,
		)

		if small && resNorm < opts.AbsTol {
			return &NewtonResult{
				Solution:     x,
				Iterations:   iter,
				Converged:    true,
				ResidualNorm: resNorm,
				UpdateNorm:   updateNorm,
			}, nil
		}
	}

	return nil, simerr.New(simerr.ConvergenceFailed,
		"no convergence after %d iterations (residual norm %.3e, update norm %.3e)",
		opts.MaxIterations, resNorm, updateNorm)
}
