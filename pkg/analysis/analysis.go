// Package analysis solves assembled circuits: a direct LU solve for linear
// netlists, damped Newton-Raphson for general nonlinear systems, and DC
// sweeps built on repeated operating-point solves.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DrCloy/web-spice-sub001/pkg/circuit"
	"github.com/DrCloy/web-spice-sub001/pkg/matrix"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
)

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute(ctx context.Context) error
	GetResults() map[string][]float64
}

type Strategy int

const (
	StrategyAuto Strategy = iota
	StrategyDirect
	StrategyNewton
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyDirect:
		return "direct"
	case StrategyNewton:
		return "newton"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return StrategyAuto, nil
	case "direct", "lu":
		return StrategyDirect, nil
	case "newton", "nr":
		return StrategyNewton, nil
	}
	return 0, simerr.New(simerr.InvalidParameter, "unknown strategy %q", s)
}

// Backend selects the linear solver used for every LU solve.
type Backend int

const (
	BackendDense Backend = iota
	BackendSparse
)

func (b Backend) String() string {
	switch b {
	case BackendDense:
		return "dense"
	case BackendSparse:
		return "sparse"
	}
	return fmt.Sprintf("Backend(%d)", int(b))
}

func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dense":
		return BackendDense, nil
	case "sparse":
		return BackendSparse, nil
	}
	return 0, simerr.New(simerr.InvalidParameter, "unknown backend %q", s)
}

func (b Backend) Solver() matrix.LinearSolver {
	if b == BackendSparse {
		return matrix.SparseLU{}
	}
	return matrix.DenseLU{}
}

type settings struct {
	strategy      Strategy
	backend       Backend
	newton        NewtonOptions
	checkFloating bool
	workers       int
	logger        *slog.Logger
}

func defaultSettings() settings {
	return settings{
		strategy: StrategyAuto,
		backend:  BackendDense,
		newton:   DefaultNewtonOptions(),
		workers:  4,
		logger:   slog.Default(),
	}
}

type Option func(*settings)

// WithStrategy selects how Solve runs. Both strategies report a singular
// circuit as SINGULAR_MATRIX.
func WithStrategy(s Strategy) Option {
	return func(c *settings) { c.strategy = s }
}

func WithBackend(b Backend) Option {
	return func(c *settings) { c.backend = b }
}

// WithNewtonOptions replaces the iteration limits and tolerances used by
// StrategyNewton. Solver and Logger left nil follow the backend and logger
// options.
func WithNewtonOptions(o NewtonOptions) Option {
	return func(c *settings) { c.newton = o }
}

// WithFloatingNodeCheck runs an explicit connectivity check before assembly
// so floating nodes fail with FLOATING_NODE instead of SINGULAR_MATRIX.
func WithFloatingNodeCheck(on bool) Option {
	return func(c *settings) { c.checkFloating = on }
}

// WithWorkers bounds the number of sweep points solved concurrently.
func WithWorkers(n int) Option {
	return func(c *settings) { c.workers = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *settings) {
		if l != nil {
			c.logger = l
		}
	}
}

type BaseAnalysis struct {
	Circuit *circuit.Circuit
	results map[string][]float64 // key: V(node) or I(component), one value per solved point
	cfg     settings
}

func newBaseAnalysis(opts []Option) BaseAnalysis {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return BaseAnalysis{results: make(map[string][]float64), cfg: cfg}
}

func (a *BaseAnalysis) Setup(ckt *circuit.Circuit) error {
	if ckt == nil {
		return simerr.New(simerr.InvalidParameter, "nil circuit")
	}
	a.Circuit = ckt
	a.results = make(map[string][]float64)
	return nil
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}

func (a *BaseAnalysis) storeResult(res *Result) {
	for name, value := range res.Flatten() {
		a.results[name] = append(a.results[name], value)
	}
}

func (a *BaseAnalysis) storeValue(name string, value float64) {
	a.results[name] = append(a.results[name], value)
}
