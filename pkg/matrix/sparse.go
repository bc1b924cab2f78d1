package matrix

import (
	"math"

	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"github.com/edp1096/sparse"
)

// SparseLU solves through the Sparse 1.3 port. It is interchangeable with
// DenseLU and is useful for larger netlists where most of A is zero.
type SparseLU struct{}

func sparseConfig() *sparse.Configuration {
	return &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}
}

func (SparseLU) Solve(a *Dense, b Vector) (Vector, error) {
	if !a.IsSquare() {
		return nil, simerr.New(simerr.InvalidParameter, "matrix is %dx%d, want square", a.Rows(), a.Cols())
	}
	size := a.Rows()
	if len(b) != size {
		return nil, simerr.New(simerr.InvalidParameter, "right-hand side has length %d, want %d", len(b), size)
	}
	if size == 0 {
		return Vector{}, nil
	}
	if a.MaxAbs() == 0 {
		return nil, simerr.Wrap(simerr.SingularMatrix,
			&PivotError{Column: 0}, "matrix is singular")
	}

	mat, err := sparse.Create(int64(size), sparseConfig())
	if err != nil {
		return nil, simerr.Wrap(simerr.InvalidParameter, err, "creating sparse matrix")
	}
	defer mat.Destroy()

	// 1-based indexing on the sparse side; only nonzero entries are created.
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if v := a.At(i, j); v != 0 {
				mat.GetElement(int64(i+1), int64(j+1)).Real += v
			}
		}
	}
	rhs := make([]float64, size+1)
	copy(rhs[1:], b)

	if err := mat.Factor(); err != nil {
		return nil, simerr.Wrap(simerr.SingularMatrix, err, "matrix factorization failed")
	}
	solution, err := mat.Solve(rhs)
	if err != nil {
		return nil, simerr.Wrap(simerr.SingularMatrix, err, "matrix solve failed")
	}
	if len(solution) < size+1 {
		return nil, simerr.New(simerr.SingularMatrix, "solver returned %d values, want %d", len(solution)-1, size)
	}

	x := make(Vector, size)
	copy(x, solution[1:size+1])
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, simerr.New(simerr.SingularMatrix, "non-finite solution at unknown %d", i)
		}
	}
	return x, nil
}
