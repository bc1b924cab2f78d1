package matrix

import (
	"bytes"
	"errors"
	"testing"

	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveLUThreeByThree(t *testing.T) {
	a := FromRows([][]float64{
		{2, 3, 1},
		{1, 2, 3},
		{3, 1, 2},
	})
	b := Vector{9, 6, 8}

	x, err := SolveLU(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{35.0 / 18, 29.0 / 18, 5.0 / 18}, []float64(x), 1e-12)

	// inputs are untouched
	assert.Equal(t, 2.0, a.At(0, 0))
	assert.Equal(t, Vector{9, 6, 8}, b)
}

func TestSolveLURequiresRowSwap(t *testing.T) {
	a := FromRows([][]float64{
		{0, 1},
		{1, 0},
	})
	x, err := SolveLU(a, Vector{3, 7})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{7, 3}, []float64(x), 1e-15)
}

func TestSolveLUSingular(t *testing.T) {
	tests := []struct {
		name string
		a    *Dense
	}{
		{"dependent rows", FromRows([][]float64{{1, 2}, {2, 4}})},
		{"zero column", FromRows([][]float64{{1, 0}, {3, 0}})},
		{"all zero", NewDense(3, 3)},
		{"below tolerance", FromRows([][]float64{{1, 0}, {0, 1e-14}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SolveLU(tt.a, NewVector(tt.a.Rows()))
			require.Error(t, err)
			assert.True(t, errors.Is(err, simerr.ErrSingularMatrix))

			var pe *PivotError
			require.True(t, errors.As(err, &pe))
			assert.GreaterOrEqual(t, pe.Column, 0)
		})
	}
}

func TestSolveLUShapeErrors(t *testing.T) {
	_, err := SolveLU(NewDense(2, 3), NewVector(2))
	assert.Equal(t, simerr.InvalidParameter, simerr.CodeOf(err))

	_, err = SolveLU(NewDense(2, 2), NewVector(3))
	assert.Equal(t, simerr.InvalidParameter, simerr.CodeOf(err))
}

func TestSolveLUEmpty(t *testing.T) {
	x, err := SolveLU(NewDense(0, 0), Vector{})
	require.NoError(t, err)
	assert.Empty(t, x)
}

func TestFactorizeReuse(t *testing.T) {
	a := FromRows([][]float64{
		{4, -2},
		{1, 1},
	})
	f, err := Factorize(a)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Size())

	for _, b := range []Vector{{2, 3}, {0, 1}, {-4, 0.5}} {
		x, err := f.Solve(b)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64(b), []float64(a.MulVec(x)), 1e-12)
	}
}

func TestSparseAgreesWithDense(t *testing.T) {
	a := FromRows([][]float64{
		{1.0 / 1000, -1.0 / 1000, 1},
		{-1.0 / 1000, 1.0/1000 + 1.0/1000, 0},
		{1, 0, 0},
	})
	b := Vector{0, 0, 5}

	dense, err := DenseLU{}.Solve(a, b)
	require.NoError(t, err)
	sp, err := SparseLU{}.Solve(a, b)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64(dense), []float64(sp), 1e-9)
	assert.InDelta(t, 5.0, dense[0], 1e-12)
	assert.InDelta(t, 2.5, dense[1], 1e-12)
}

func TestSparseStructuralZeros(t *testing.T) {
	// tridiagonal ladder: most entries are never created on the sparse side
	a := FromRows([][]float64{
		{2, -1, 0, 0},
		{-1, 2, -1, 0},
		{0, -1, 2, -1},
		{0, 0, -1, 2},
	})
	b := Vector{1, 0, 0, 1}

	dense, err := DenseLU{}.Solve(a, b)
	require.NoError(t, err)
	sp, err := SparseLU{}.Solve(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64(dense), []float64(sp), 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1}, []float64(sp), 1e-12)

	_, err = SparseLU{}.Solve(FromRows([][]float64{{1, 0}, {0, 0}}), Vector{1, 0})
	assert.True(t, errors.Is(err, simerr.ErrSingularMatrix))
}

func TestSparseRejectsZeroMatrix(t *testing.T) {
	_, err := SparseLU{}.Solve(NewDense(2, 2), NewVector(2))
	assert.True(t, errors.Is(err, simerr.ErrSingularMatrix))
}

func TestSystemStampAndResidual(t *testing.T) {
	s := NewSystem(2)
	s.AddElement(0, 0, 2)
	s.AddElement(1, 1, 4)
	s.AddRHS(0, 2)
	s.AddRHS(1, 8)

	assert.Equal(t, Vector{0, 0}, s.Residual(Vector{1, 2}))
	assert.Equal(t, Vector{-2, -8}, s.Residual(NewVector(2)))

	var buf bytes.Buffer
	s.Fprint(&buf, []string{"V(a)", "V(b)"})
	assert.Contains(t, buf.String(), "Equation 1:  +2*V(a)  = 2")
	assert.Contains(t, buf.String(), "Density = 50.00%")
}

func TestVectorHelpers(t *testing.T) {
	v := Vector{1, -3, 2}
	assert.Equal(t, 3.0, NormInf(v))
	assert.Equal(t, 0.0, NormInf(nil))
	assert.Equal(t, Vector{-1, 3, -2}, Negate(v))
	assert.Equal(t, Vector{0, -4, 1}, Sub(v, Vector{1, 1, 1}))

	c := v.Clone()
	c[0] = 9
	assert.Equal(t, 1.0, v[0])
}

func TestDensePanics(t *testing.T) {
	assert.Panics(t, func() { NewDense(-1, 2) })
	assert.Panics(t, func() { NewDense(2, 2).At(2, 0) })
	assert.Panics(t, func() { NewDense(2, 2).MulVec(Vector{1}) })
}
