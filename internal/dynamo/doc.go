// Package dynamo provides the shared primitives of the inspiral engine.
//
// The package defines the types every other package builds on:
//
//   - [State]: orbital state vector (p, e, x and the three phases)
//   - [System]: interface for ODE right-hand sides (dX/dt = f(X, t))
//   - [Integrator]: numerical stepper interface
//   - [Metric]: trajectory observer producing a scalar summary
//
// and the sentinel errors that classify numerical failures
// ([ErrSpecialFunction], [ErrNumericalInstability], [ErrRootBracketing],
// [ErrSlowConvergence], [ErrDomain], ...). Callers match them with errors.Is.
//
// # Thread Safety
//
// State values are plain slices and must not be shared between goroutines
// while being written. [ParallelFor] hands each goroutine a disjoint index
// range.
package dynamo
