package dynamics

import (
	"errors"
	"fmt"
)

var (
	// ErrSingularMassMatrix indicates the joint-space inertia could not be factorized.
	ErrSingularMassMatrix = errors.New("dynamics: mass matrix is singular or ill-conditioned")

	// ErrInvalidState indicates NaN or Inf in the input state.
	ErrInvalidState = errors.New("dynamics: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates slices that do not match the tree.
	ErrDimensionMismatch = errors.New("dynamics: dimension mismatch between state and tree")
)

// DynamicsError wraps a per-call failure with the operation that raised it.
// It is recoverable: the engine stays usable for the next tick.
type DynamicsError struct {
	Op      string
	Wrapped error
}

func (e *DynamicsError) Error() string {
	return fmt.Sprintf("dynamics: %s: %v", e.Op, e.Wrapped)
}

func (e *DynamicsError) Unwrap() error {
	return e.Wrapped
}
