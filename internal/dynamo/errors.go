package dynamo

import (
	"errors"
	"fmt"
)

// Numerical failure kinds shared by the solver packages.
var (
	// ErrSpecialFunction indicates an elliptic integral could not be evaluated.
	ErrSpecialFunction = errors.New("dynamo: special function evaluation failed")

	// ErrNumericalInstability indicates a frequency or rate came out non-finite.
	ErrNumericalInstability = errors.New("dynamo: non-finite result (numerical instability)")

	// ErrRootBracketing indicates a root-finding bracket without a sign change.
	ErrRootBracketing = errors.New("dynamo: root not bracketed")

	// ErrSlowConvergence reports a root solver that hit its iteration cap.
	// It is a warning: the best estimate is still returned.
	ErrSlowConvergence = errors.New("dynamo: root solver reached iteration cap")

	// ErrSanity indicates orbit geometry outside the nominal physical domain.
	ErrSanity = errors.New("dynamo: orbit geometry outside physical domain")

	// ErrDomain indicates an input for which the quantity is not defined.
	ErrDomain = errors.New("dynamo: input outside domain")

	// ErrDimensionMismatch indicates mismatched input/output lengths.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrClosed indicates use of a released resource.
	ErrClosed = errors.New("dynamo: use of closed model")
)

// Trajectory errors.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the integration was interrupted.
	ErrContextCanceled = errors.New("dynamo: integration canceled by context")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")
)

// SimulationError wraps an error with integration context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g, state=%v): %v", e.Step, e.Time, []float64(e.State), e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
