package matrix

import (
	"fmt"
	"io"
	"math"
)

// Stamper receives component contributions. Indices are zero-based unknown
// indices; callers skip the ground node before stamping.
type Stamper interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
}

// System is a square linear system A·x = B under assembly.
type System struct {
	A *Dense
	B Vector
}

func NewSystem(size int) *System {
	return &System{A: NewDense(size, size), B: NewVector(size)}
}

func (s *System) Size() int { return len(s.B) }

func (s *System) AddElement(i, j int, value float64) {
	s.A.Add(i, j, value)
}

func (s *System) AddRHS(i int, value float64) {
	if i < 0 || i >= len(s.B) {
		panic(fmt.Sprintf("matrix: RHS index %d out of range for size %d", i, len(s.B)))
	}
	s.B[i] += value
}

// Residual returns A·x - B.
func (s *System) Residual(x Vector) Vector {
	return Sub(s.A.MulVec(x), s.B)
}

// Fprint writes the equations row by row followed by a short summary.
// names labels the unknowns; missing labels fall back to x1..xn.
func (s *System) Fprint(w io.Writer, names []string) {
	size := s.Size()
	label := func(j int) string {
		if j < len(names) && names[j] != "" {
			return names[j]
		}
		return fmt.Sprintf("x%d", j+1)
	}

	fmt.Fprintf(w, "Circuit Equations (%dx%d):\n", size, size)
	fmt.Fprintln(w, "Node equations first, followed by branch equations")

	elementCount := 0
	minPivot, maxPivot := math.Inf(1), 0.0
	for i := 0; i < size; i++ {
		fmt.Fprintf(w, "Equation %d:", i+1)
		for j := 0; j < size; j++ {
			v := s.A.At(i, j)
			if v == 0 {
				continue
			}
			elementCount++
			fmt.Fprintf(w, "  %+g*%s", v, label(j))
			if i == j {
				minPivot = math.Min(minPivot, math.Abs(v))
				maxPivot = math.Max(maxPivot, math.Abs(v))
			}
		}
		fmt.Fprintf(w, "  = %g\n", s.B[i])
	}

	if size == 0 {
		return
	}
	if elementCount == 0 || math.IsInf(minPivot, 1) {
		minPivot = 0
	}
	fmt.Fprintf(w, "Largest element magnitude = %g\n", s.A.MaxAbs())
	fmt.Fprintf(w, "Largest diagonal = %g, smallest diagonal = %g\n", maxPivot, minPivot)
	fmt.Fprintf(w, "Density = %.2f%%\n", float64(elementCount)*100/float64(size*size))
}
