package matrix

import "math"

// Vector is a fixed-length buffer of float64 values. Package functions never
// modify their inputs; they return freshly allocated vectors.
type Vector []float64

func NewVector(n int) Vector {
	return make(Vector, n)
}

func (v Vector) Len() int { return len(v) }

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

// Negate returns -v.
func Negate(v Vector) Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

// NormInf returns max |v_i|, or 0 for an empty vector.
func NormInf(v Vector) float64 {
	norm := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > norm {
			norm = a
		}
	}
	return norm
}

// Sub returns a - b. It panics if the lengths differ.
func Sub(a, b Vector) Vector {
	if len(a) != len(b) {
		panic("matrix: Sub length mismatch")
	}
	out := make(Vector, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}
