package matrix

import (
	"fmt"
	"math"
	"strings"
)

// Dense is a row-major matrix of float64 values.
type Dense struct {
	rows, cols int
	data       []float64
}

// NewDense allocates a zeroed rows×cols matrix. Zero-sized matrices are
// allowed (a circuit may have no unknowns); negative sizes panic.
func NewDense(rows, cols int) *Dense {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("matrix: invalid shape %dx%d", rows, cols))
	}
	return &Dense{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// FromRows builds a matrix from a slice of equal-length rows.
func FromRows(rows [][]float64) *Dense {
	if len(rows) == 0 {
		return NewDense(0, 0)
	}
	m := NewDense(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != m.cols {
			panic(fmt.Sprintf("matrix: row %d has %d columns, want %d", i, len(r), m.cols))
		}
		copy(m.data[i*m.cols:], r)
	}
	return m
}

func (m *Dense) Rows() int { return m.rows }

func (m *Dense) Cols() int { return m.cols }

func (m *Dense) IsSquare() bool { return m.rows == m.cols }

func (m *Dense) index(i, j int) int {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("matrix: index (%d,%d) out of range for %dx%d", i, j, m.rows, m.cols))
	}
	return i*m.cols + j
}

func (m *Dense) At(i, j int) float64 {
	return m.data[m.index(i, j)]
}

func (m *Dense) Set(i, j int, v float64) {
	m.data[m.index(i, j)] = v
}

// Add accumulates v into (i,j).
func (m *Dense) Add(i, j int, v float64) {
	m.data[m.index(i, j)] += v
}

func (m *Dense) Clone() *Dense {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &Dense{rows: m.rows, cols: m.cols, data: data}
}

// MulVec returns m·x. It panics if len(x) != m.Cols().
func (m *Dense) MulVec(x Vector) Vector {
	if len(x) != m.cols {
		panic(fmt.Sprintf("matrix: MulVec length %d, want %d", len(x), m.cols))
	}
	out := make(Vector, m.rows)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		sum := 0.0
		for j, a := range row {
			sum += a * x[j]
		}
		out[i] = sum
	}
	return out
}

// MaxAbs returns the largest entry magnitude, used as the matrix scale for
// the singularity threshold.
func (m *Dense) MaxAbs() float64 {
	scale := 0.0
	for _, v := range m.data {
		if a := math.Abs(v); a > scale {
			scale = a
		}
	}
	return scale
}

func (m *Dense) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%g", m.data[i*m.cols+j])
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
