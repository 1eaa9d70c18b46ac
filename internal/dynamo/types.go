package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a first-order ODE dx/dt = f(x, t) whose right-hand side can fail.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) (State, error)
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt, tol float64) (State, float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

// Result is a finished integration. Times are in seconds.
type Result struct {
	States     []State
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	StopReason string
	Errors     []error
}
