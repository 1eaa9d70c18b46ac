// Package trajectory integrates the flux-driven evolution of (p, e, x) and
// the orbital phases from an initial orbit until the inspiral reaches the
// separatrix or the requested duration elapses.
package trajectory

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-kit/log/level"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/flux"
	"github.com/san-kum/inspiral/internal/integrators"
	"github.com/san-kum/inspiral/internal/kerr"
	"github.com/san-kum/inspiral/internal/log"
	"github.com/san-kum/inspiral/internal/telemetry"
)

const (
	// MTSUN_SI is GM_sun/c^3 in seconds.
	MTSUN_SI = 4.925490947641267e-06
	// YRSID_SI is one sidereal year in seconds.
	YRSID_SI = 31558149.763545600
)

// Stop reasons.
const (
	StopSeparatrix = "separatrix"
	StopStalled    = "stalled"
	StopDuration   = "duration"
	StopMaxSteps   = "max_steps"
	StopDomain     = "domain"
	StopCanceled   = "canceled"
)

// Config controls one trajectory. Integration runs in units of the primary
// mass; Years and the reported times are physical.
type Config struct {
	Mass      float64 // primary mass in solar masses
	Epsilon   float64 // mass ratio
	Spin      float64
	Years     float64
	Dt        float64 // initial step, in units of M
	Tolerance float64
	MinDt     float64
	MaxDt     float64
	MaxSteps  int
	Adaptive  bool
	// StopDistance ends the inspiral once p - p_sep falls below it.
	StopDistance float64
}

func DefaultConfig() Config {
	return Config{
		Mass:         1e6,
		Epsilon:      1e-5,
		Spin:         0.9,
		Years:        1,
		Dt:           10,
		Tolerance:    1e-10,
		MinDt:        1e-6,
		MaxDt:        1e6,
		MaxSteps:     1000000,
		Adaptive:     true,
		StopDistance: 0.1,
	}
}

// Seconds converts a time in units of M to seconds.
func (c Config) Seconds(tM float64) float64 {
	return tM * c.Mass * MTSUN_SI
}

func (c Config) durationM() float64 {
	return c.Years * YRSID_SI / (c.Mass * MTSUN_SI)
}

func (c Config) Validate() error {
	switch {
	case c.Mass <= 0:
		return fmt.Errorf("mass must be positive, got %g", c.Mass)
	case c.Epsilon <= 0:
		return fmt.Errorf("epsilon must be positive, got %g", c.Epsilon)
	case c.Years <= 0:
		return fmt.Errorf("duration must be positive, got %g years", c.Years)
	case c.Dt <= 0:
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	case c.Adaptive && c.Tolerance <= 0:
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	case c.MaxSteps <= 0:
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	return nil
}

// Integrator runs inspirals of one flux model.
type Integrator struct {
	model     flux.Model
	stepper   dynamo.Integrator
	cfg       Config
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New(model flux.Model, stepper dynamo.Integrator, cfg Config) *Integrator {
	return &Integrator{
		model:   model,
		stepper: stepper,
		cfg:     cfg,
	}
}

func (in *Integrator) AddMetric(m dynamo.Metric)     { in.metrics = append(in.metrics, m) }
func (in *Integrator) AddObserver(o dynamo.Observer) { in.observers = append(in.observers, o) }

// terminal reports derivative failures that end the inspiral at the last
// good point instead of failing the run.
func terminal(err error) bool {
	return errors.Is(err, dynamo.ErrDomain) || errors.Is(err, dynamo.ErrNumericalInstability)
}

// Run integrates from (p0, e0, x0) with zero initial phases. Times in the
// result are in seconds. The returned error is non-nil only for failures
// that are not a normal end of the inspiral.
func (in *Integrator) Run(ctx context.Context, p0, e0, x0 float64) (*dynamo.Result, error) {
	result := &dynamo.Result{Metrics: make(map[string]float64)}
	err := in.run(ctx, p0, e0, x0, result, func(x dynamo.State, tM float64) bool {
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, in.cfg.Seconds(tM))
		return true
	})
	for _, m := range in.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, err
}

// RunWithCallback integrates like Run without storing the trajectory. The
// callback sees every accepted point, time in seconds, and may stop the run
// by returning false.
func (in *Integrator) RunWithCallback(ctx context.Context, p0, e0, x0 float64, callback func(x dynamo.State, t float64) bool) (*dynamo.Result, error) {
	result := &dynamo.Result{Metrics: make(map[string]float64)}
	err := in.run(ctx, p0, e0, x0, result, func(x dynamo.State, tM float64) bool {
		return callback(x, in.cfg.Seconds(tM))
	})
	for _, m := range in.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, err
}

func (in *Integrator) run(ctx context.Context, p0, e0, x0 float64, result *dynamo.Result, emit func(dynamo.State, float64) bool) error {
	cfg := in.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	sys := flux.NewSystem(in.model, cfg.Epsilon, cfg.Spin)
	steps := telemetry.TrajectorySteps.WithLabelValues(in.model.Name())
	logger := log.With("model", in.model.Name(), "a", cfg.Spin, "epsilon", cfg.Epsilon)

	for _, m := range in.metrics {
		m.Reset()
	}

	x := make(dynamo.State, flux.StateDim)
	x[flux.IdxP], x[flux.IdxE], x[flux.IdxX] = p0, e0, x0
	t, dt := 0.0, cfg.Dt
	tEnd := cfg.durationM()

	_ = level.Info(logger).Log("msg", "inspiral start", "p0", p0, "e0", e0, "x0", x0, "t_end_M", tEnd)

	observe := func() bool {
		for _, m := range in.metrics {
			m.Observe(x, t)
		}
		for _, o := range in.observers {
			o.OnStep(x, t)
		}
		return emit(x, t)
	}
	finish := func(reason string, err error) {
		result.StopReason = reason
		if err != nil {
			result.Errors = append(result.Errors, err)
		}
		_ = level.Info(logger).Log("msg", "inspiral stop", "reason", reason, "steps", result.StepsTaken,
			"t_sec", cfg.Seconds(t), "p", x[flux.IdxP], "e", x[flux.IdxE])
	}
	fail := func(state dynamo.State, err error) error {
		if terminal(err) {
			finish(StopDomain, err)
			return nil
		}
		result.StopReason = "error"
		return &dynamo.SimulationError{Step: result.StepsTaken, Time: cfg.Seconds(t), State: state.Clone(), Wrapped: err}
	}

	gap, err := in.gap(x)
	if err != nil {
		return fail(x, err)
	}
	if !observe() {
		finish(StopCanceled, nil)
		return nil
	}
	if gap < cfg.StopDistance {
		finish(StopSeparatrix, nil)
		return nil
	}

	for result.StepsTaken < cfg.MaxSteps {
		select {
		case <-ctx.Done():
			finish(StopCanceled, nil)
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		r, err := sys.Rates(x)
		if err != nil {
			return fail(x, err)
		}
		if r.Stalled() {
			finish(StopStalled, nil)
			return nil
		}

		if t+dt > tEnd {
			dt = tEnd - t
		}
		newX, taken, next, err := in.step(sys, x, t, dt)
		if err != nil {
			return fail(x, err)
		}
		if !newX.IsValid() {
			finish(StopDomain, fmt.Errorf("%w at t=%g M", dynamo.ErrInvalidState, t))
			return nil
		}
		if newX[flux.IdxE] < 0 {
			newX[flux.IdxE] = 0
		}

		gap, err := in.gap(newX)
		if err != nil {
			return fail(newX, err)
		}
		// Never step across the separatrix: retry shorter, else keep the
		// last point outside it.
		if gap < 0 {
			if cfg.Adaptive && taken/2 >= cfg.MinDt {
				dt = taken / 2
				continue
			}
			finish(StopSeparatrix, nil)
			return nil
		}

		t += taken
		x = newX
		dt = next
		result.StepsTaken++
		steps.Inc()

		if !observe() {
			finish(StopCanceled, nil)
			return nil
		}
		if gap < cfg.StopDistance {
			finish(StopSeparatrix, nil)
			return nil
		}
		if t >= tEnd {
			finish(StopDuration, nil)
			return nil
		}
	}
	finish(StopMaxSteps, nil)
	return nil
}

// step advances one accepted step, retrying rejected or failed adaptive
// steps with smaller dt. It returns the new state, the step taken and the
// proposed next step.
func (in *Integrator) step(sys *flux.System, x dynamo.State, t, dt float64) (dynamo.State, float64, float64, error) {
	cfg := in.cfg
	adaptive, ok := in.stepper.(dynamo.AdaptiveIntegrator)
	if !cfg.Adaptive || !ok {
		newX, err := in.stepper.Step(sys, x, t, dt)
		return newX, dt, dt, err
	}

	for {
		newX, next, err := adaptive.StepAdaptive(sys, x, t, dt, cfg.Tolerance)
		switch {
		case err == nil:
			return newX, dt, math.Min(math.Max(next, cfg.MinDt), cfg.MaxDt), nil
		case errors.Is(err, integrators.ErrRejected):
			dt = next
		case terminal(err):
			// a stage left the physical region
			dt /= 2
		default:
			return nil, dt, dt, err
		}
		if dt < cfg.MinDt {
			if terminal(err) {
				return nil, dt, dt, err
			}
			return nil, dt, dt, fmt.Errorf("%w: dt=%g < %g", dynamo.ErrStepTooSmall, dt, cfg.MinDt)
		}
	}
}

// gap returns p - p_sep for the orbit in x.
func (in *Integrator) gap(x dynamo.State) (float64, error) {
	pSep, err := kerr.Separatrix(in.cfg.Spin, x[flux.IdxE], x[flux.IdxX])
	if err != nil {
		return 0, err
	}
	return x[flux.IdxP] - pSep, nil
}
