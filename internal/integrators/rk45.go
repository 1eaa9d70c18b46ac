package integrators

import (
	"errors"
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
)

// ErrRejected is returned by StepAdaptive when the error estimate exceeds
// the tolerance. The returned dt is the suggested retry step.
var ErrRejected = errors.New("integrators: step rejected")

// Dormand-Prince coefficients (RK45)
var (
	nodes = [7]float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1}

	tableau = [6][]float64{
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
		{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
	}

	// fifth minus embedded fourth order weights
	errWeights = [7]float64{
		35.0/384.0 - 5179.0/57600.0,
		0,
		500.0/1113.0 - 7571.0/16695.0,
		125.0/192.0 - 393.0/640.0,
		-2187.0/6784.0 - -92097.0/339200.0,
		11.0/84.0 - 187.0/2100.0,
		-1.0 / 40.0,
	}
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Step takes one fixed step of size dt, ignoring the error estimate.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	xNew, _, err := r.step(dyn, x, t, dt)
	return xNew, err
}

// StepAdaptive takes one step and proposes the next dt. A step whose scaled
// error exceeds tol returns ErrRejected with the state unchanged.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, error) {
	xNew, errMax, err := r.step(dyn, x, t, dt)
	if err != nil {
		return nil, dt, err
	}

	errRatio := errMax / tol
	switch {
	case errRatio > 1:
		scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		return x, dt * scale, ErrRejected
	case errRatio > 0:
		scale := math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
		return xNew, dt * scale, nil
	default:
		return xNew, dt * r.maxScale, nil
	}
}

func (r *RK45) step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, float64, error) {
	n := len(x)
	var k [7]dynamo.State

	var err error
	if k[0], err = dyn.Derive(x, t); err != nil {
		return nil, 0, err
	}

	xs := make(dynamo.State, n)
	for s, row := range tableau {
		for i := 0; i < n; i++ {
			sum := 0.0
			for j, b := range row {
				sum += b * k[j][i]
			}
			xs[i] = x[i] + dt*sum
		}
		if k[s+1], err = dyn.Derive(xs, t+nodes[s+1]*dt); err != nil {
			return nil, 0, err
		}
	}
	// The last stage is evaluated at the fifth-order solution (FSAL).
	xNew := xs

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := 0.0
		for j, w := range errWeights {
			errEst += w * k[j][i]
		}
		errEst *= dt
		scale := math.Abs(x[i]) + math.Abs(dt*k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return xNew, errMax, nil
}
