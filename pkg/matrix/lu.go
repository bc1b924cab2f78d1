package matrix

import (
	"fmt"
	"math"

	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
)

// PivotTolerance scales the largest entry of A into the singularity
// threshold: a pivot column whose best candidate is at or below
// PivotTolerance*max|A_ij| is treated as singular.
const PivotTolerance = 1e-13

// PivotError reports the elimination step at which factorization stopped.
// It is the cause of the SINGULAR_MATRIX error returned by Factorize.
type PivotError struct {
	Column    int
	Pivot     float64
	Threshold float64
}

func (e *PivotError) Error() string {
	return fmt.Sprintf("pivot %.3g in column %d is at or below %.3g", e.Pivot, e.Column, e.Threshold)
}

// LinearSolver solves a square system A·x = b without modifying A or b.
type LinearSolver interface {
	Solve(a *Dense, b Vector) (Vector, error)
}

// LU holds a factorization P·A = L·U. L (unit diagonal) is stored below the
// diagonal of lu and U on and above it.
type LU struct {
	n    int
	lu   *Dense
	perm []int
}

// Factorize computes the LU factorization of a with partial pivoting. At
// each step the candidate of largest magnitude at or below the diagonal is
// chosen; ties keep the first row. a is not modified.
func Factorize(a *Dense) (*LU, error) {
	if !a.IsSquare() {
		return nil, simerr.New(simerr.InvalidParameter, "matrix is %dx%d, want square", a.Rows(), a.Cols())
	}

	n := a.Rows()
	f := &LU{n: n, lu: a.Clone(), perm: make([]int, n)}
	for i := range f.perm {
		f.perm[i] = i
	}
	if n == 0 {
		return f, nil
	}

	threshold := PivotTolerance * a.MaxAbs()
	d := f.lu.data
	for k := 0; k < n; k++ {
		p, best := k, math.Abs(d[k*n+k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(d[i*n+k]); v > best {
				p, best = i, v
			}
		}
		if best <= threshold || math.IsNaN(best) {
			return nil, simerr.Wrap(simerr.SingularMatrix,
				&PivotError{Column: k, Pivot: best, Threshold: threshold}, "matrix is singular")
		}

		if p != k {
			rk, rp := d[k*n:(k+1)*n], d[p*n:(p+1)*n]
			for j := range rk {
				rk[j], rp[j] = rp[j], rk[j]
			}
			f.perm[k], f.perm[p] = f.perm[p], f.perm[k]
		}

		pivot := d[k*n+k]
		for i := k + 1; i < n; i++ {
			factor := d[i*n+k] / pivot
			d[i*n+k] = factor
			if factor == 0 {
				continue
			}
			for j := k + 1; j < n; j++ {
				d[i*n+j] -= factor * d[k*n+j]
			}
		}
	}
	return f, nil
}

func (f *LU) Size() int { return f.n }

// Solve returns x with A·x = b using the stored factors.
func (f *LU) Solve(b Vector) (Vector, error) {
	if len(b) != f.n {
		return nil, simerr.New(simerr.InvalidParameter, "right-hand side has length %d, want %d", len(b), f.n)
	}

	n, d := f.n, f.lu.data
	y := make(Vector, n)
	for i := 0; i < n; i++ {
		sum := b[f.perm[i]]
		for j := 0; j < i; j++ {
			sum -= d[i*n+j] * y[j]
		}
		y[i] = sum
	}

	x := make(Vector, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= d[i*n+j] * x[j]
		}
		x[i] = sum / d[i*n+i]
	}
	return x, nil
}

// DenseLU is the default LinearSolver.
type DenseLU struct{}

func (DenseLU) Solve(a *Dense, b Vector) (Vector, error) {
	if a.Rows() != len(b) {
		return nil, simerr.New(simerr.InvalidParameter, "right-hand side has length %d, want %d", len(b), a.Rows())
	}
	f, err := Factorize(a)
	if err != nil {
		return nil, err
	}
	return f.Solve(b)
}

// SolveLU factors a and solves A·x = b in one call.
func SolveLU(a *Dense, b Vector) (Vector, error) {
	return DenseLU{}.Solve(a, b)
}
