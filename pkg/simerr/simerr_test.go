package simerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(SingularMatrix, "pivot %g at column %d", 0.0, 2).WithNode("n3").WithComponent("R1")
	assert.Equal(t, "SINGULAR_MATRIX: pivot 0 at column 2 (component=R1, node=n3)", err.Error())
}

func TestWithContextDoesNotMutate(t *testing.T) {
	base := New(InvalidComponent, "bad")
	withID := base.WithComponent("V1")

	assert.Empty(t, base.ComponentID)
	assert.Equal(t, "V1", withID.ComponentID)
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("solve: %w", New(ConvergenceFailed, "singular Jacobian at iteration 3"))

	assert.True(t, errors.Is(err, ErrConvergenceFailed))
	assert.False(t, errors.Is(err, ErrSingularMatrix))
	assert.Equal(t, ConvergenceFailed, CodeOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := New(SingularMatrix, "zero pivot")
	err := Wrap(ConvergenceFailed, cause, "singular Jacobian at iteration %d", 1)

	assert.True(t, errors.Is(err, ErrConvergenceFailed))
	assert.True(t, errors.Is(err, ErrSingularMatrix))
	assert.Equal(t, ConvergenceFailed, CodeOf(err))

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "singular Jacobian at iteration 1", e.Message)
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}
