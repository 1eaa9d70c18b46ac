// Package metrics summarizes an inspiral while it is integrated. Every metric
// observes the state [p, e, x, Φφ, Φθ, Φr] and the time in units of M.
package metrics

import (
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/flux"
	"github.com/san-kum/inspiral/internal/trajectory"
)

// Cycles counts the orbital cycles accumulated by one phase.
type Cycles struct {
	name    string
	index   int
	phase   float64
	samples int
}

func NewAzimuthalCycles() *Cycles {
	return &Cycles{name: "cycles_phi", index: flux.IdxPhiPhi}
}

func NewPolarCycles() *Cycles {
	return &Cycles{name: "cycles_theta", index: flux.IdxPhiTheta}
}

func NewRadialCycles() *Cycles {
	return &Cycles{name: "cycles_r", index: flux.IdxPhiR}
}

func (c *Cycles) Name() string { return c.name }

func (c *Cycles) Observe(x dynamo.State, t float64) {
	if len(x) <= c.index {
		return
	}
	c.phase = x[c.index]
	c.samples++
}

func (c *Cycles) Value() float64 {
	return math.Abs(c.phase) / (2 * math.Pi)
}

func (c *Cycles) Reset() {
	c.phase = 0
	c.samples = 0
}

// PDrop is the decrease of the semi-latus rectum since the first sample.
type PDrop struct {
	first, last float64
	samples     int
}

func NewPDrop() *PDrop { return &PDrop{} }

func (d *PDrop) Name() string { return "p_drop" }

func (d *PDrop) Observe(x dynamo.State, t float64) {
	if len(x) <= flux.IdxP {
		return
	}
	if d.samples == 0 {
		d.first = x[flux.IdxP]
	}
	d.last = x[flux.IdxP]
	d.samples++
}

func (d *PDrop) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return d.first - d.last
}

func (d *PDrop) Reset() {
	d.first, d.last = 0, 0
	d.samples = 0
}

// FinalEccentricity reports e at the last sample.
type FinalEccentricity struct {
	e float64
}

func NewFinalEccentricity() *FinalEccentricity { return &FinalEccentricity{} }

func (f *FinalEccentricity) Name() string { return "final_e" }

func (f *FinalEccentricity) Observe(x dynamo.State, t float64) {
	if len(x) > flux.IdxE {
		f.e = x[flux.IdxE]
	}
}

func (f *FinalEccentricity) Value() float64 { return f.e }

func (f *FinalEccentricity) Reset() { f.e = 0 }

// Duration reports the elapsed time in years for a primary of the given mass
// in solar masses.
type Duration struct {
	mass float64
	t    float64
}

func NewDuration(mass float64) *Duration {
	return &Duration{mass: mass}
}

func (d *Duration) Name() string { return "duration_years" }

func (d *Duration) Observe(x dynamo.State, t float64) { d.t = t }

func (d *Duration) Value() float64 {
	return d.t * d.mass * trajectory.MTSUN_SI / trajectory.YRSID_SI
}

func (d *Duration) Reset() { d.t = 0 }
