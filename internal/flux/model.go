// Package flux implements the radiation-reaction right-hand sides that drive
// an inspiral: d(p, e, x)/dt together with the coordinate frequencies at the
// current orbit.
//
// Every Model owns its interpolant tables. Derivative is safe for concurrent
// use until Close; afterwards it returns dynamo.ErrClosed.
package flux

import (
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/kerr"
	"github.com/san-kum/inspiral/internal/telemetry"
)

// Rates is one evaluation of the orbital evolution equations.
type Rates struct {
	PDot       float64 `json:"pdot"`
	EDot       float64 `json:"edot"`
	XDot       float64 `json:"xdot"`
	OmegaPhi   float64 `json:"omega_phi"`
	OmegaTheta float64 `json:"omega_theta"`
	OmegaR     float64 `json:"omega_r"`
}

// Stalled reports whether the orbit no longer evolves, which is how the
// models signal that p has reached the separatrix.
func (r Rates) Stalled() bool {
	return r.PDot == 0 && r.EDot == 0 && r.XDot == 0
}

// Model evaluates the flux-driven evolution of (p, e, x) at spin a and mass
// ratio epsilon.
type Model interface {
	Name() string
	Derivative(epsilon, a, p, e, x float64) (Rates, error)
	Close() error
}

// Options are shared by all models.
type Options struct {
	// StrictSanity turns geometry outside the physical domain into an error
	// instead of a logged warning.
	StrictSanity bool `yaml:"strict_sanity" mapstructure:"strict_sanity"`

	// SecondarySpin is the dimensionless spin of the small body. When
	// nonzero, models that support it shift Ω_r and Ω_φ by the first-order
	// spin correction scaled by epsilon.
	SecondarySpin float64 `yaml:"secondary_spin" mapstructure:"secondary_spin"`
}

// base carries the bookkeeping shared by the concrete models. Derivative
// holds mu for reading so Close cannot release tables mid-evaluation.
type base struct {
	name   string
	opts   Options
	mu     sync.RWMutex
	closed bool
}

func (b *base) Name() string { return b.name }

// begin runs the checks common to every Derivative call. The caller must
// hold mu for reading.
func (b *base) begin(a, p, e, x float64) error {
	if b.closed {
		return dynamo.ErrClosed
	}
	return kerr.CheckSanity(kerr.Geometry{A: a, P: p, E: e, X: x}, b.opts.StrictSanity)
}

// shutdown marks the model closed and runs release once.
func (b *base) shutdown(release func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	release()
	return nil
}

// done records the outcome of one evaluation.
func (b *base) done(r Rates, err error) (Rates, error) {
	telemetry.FluxEvaluations.WithLabelValues(b.name, telemetry.Outcome(err)).Inc()
	if err != nil {
		return Rates{}, fmt.Errorf("%s: %w", b.name, err)
	}
	return r, nil
}

// applySpin adds the secondary-spin frequency shift to r when enabled.
func (b *base) applySpin(r *Rates, epsilon, a, p, e, x float64) error {
	if b.opts.SecondarySpin == 0 || a == 0 {
		return nil
	}
	s, err := kerr.SpinCorrection(a, p, e, x)
	if err != nil {
		return err
	}
	scale := epsilon * b.opts.SecondarySpin
	r.OmegaR += scale * s.DeltaOmegaR
	r.OmegaPhi += scale * s.DeltaOmegaPhi
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
