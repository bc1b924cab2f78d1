package circuit

import "github.com/DrCloy/web-spice-sub001/pkg/matrix"

// LinearSystem is an assembled circuit seen as F(x) = A·x - B with the
// constant Jacobian A.
type LinearSystem struct {
	asm *Assembly
}

func NewSystem(asm *Assembly) *LinearSystem {
	return &LinearSystem{asm: asm}
}

func (s *LinearSystem) Size() int { return s.asm.Size() }

func (s *LinearSystem) Residual(x matrix.Vector) matrix.Vector {
	return matrix.Sub(s.asm.A.MulVec(x), s.asm.B)
}

// Jacobian returns a copy of A so callers may not alter the assembly.
func (s *LinearSystem) Jacobian(matrix.Vector) *matrix.Dense {
	return s.asm.A.Clone()
}
