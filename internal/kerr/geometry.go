// Package kerr computes geodesic quantities of bound orbits around a Kerr
// black hole in units G = M = c = 1.
//
// Orbits are parameterized by spin a, semi-latus rectum p, eccentricity e and
// inclination cosine x. Everything is recomputed per call; nothing is cached
// between calls, so all functions are safe for concurrent use.
package kerr

import (
	"fmt"
	"math"
)

// Geometry is one instantaneous point on an inspiral.
type Geometry struct {
	A float64 `json:"a" yaml:"a"`
	P float64 `json:"p" yaml:"p"`
	E float64 `json:"e" yaml:"e"`
	X float64 `json:"x" yaml:"x"`
}

func (g Geometry) String() string {
	return fmt.Sprintf("(a=%g, p=%g, e=%g, x=%g)", g.A, g.P, g.E, g.X)
}

// Constants are the conserved energy, axial angular momentum and Carter constant.
type Constants struct {
	E, L, Q float64
}

// RadialRoots are the turning points of the radial potential, R1 >= R2 >= R3 >= R4.
// R1 and R2 are apoapsis and periapsis.
type RadialRoots struct {
	R1, R2, R3, R4 float64
}

// MinoFrequencies are the fundamental frequencies with respect to Mino time.
type MinoFrequencies struct {
	Gamma        float64
	UpsilonPhi   float64
	UpsilonTheta float64
	UpsilonR     float64
}

func (m MinoFrequencies) finite() bool {
	return finite(m.Gamma) && finite(m.UpsilonPhi) && finite(m.UpsilonTheta) && finite(m.UpsilonR)
}

// Coordinate converts Mino-time frequencies to Boyer-Lindquist coordinate time.
func (m MinoFrequencies) Coordinate() Frequencies {
	return Frequencies{
		OmegaPhi:   m.UpsilonPhi / m.Gamma,
		OmegaTheta: m.UpsilonTheta / m.Gamma,
		OmegaR:     m.UpsilonR / m.Gamma,
	}
}

// Frequencies are coordinate-time fundamental frequencies.
type Frequencies struct {
	OmegaPhi   float64 `json:"omega_phi"`
	OmegaTheta float64 `json:"omega_theta"`
	OmegaR     float64 `json:"omega_r"`
}

// GeometryError attaches the orbit and operation to a numerical failure.
type GeometryError struct {
	Op  string
	Geo Geometry
	Err error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("kerr: %s%v: %v", e.Op, e.Geo, e.Err)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

func wrap(op string, a, p, e, x float64, err error) error {
	return &GeometryError{Op: op, Geo: Geometry{A: a, P: p, E: e, X: x}, Err: err}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// horizons returns the outer and inner horizon radii r±.
func horizons(a float64) (float64, float64) {
	s := math.Sqrt(1 - a*a)
	return 1 + s, 1 - s
}

func delta(r, a float64) float64 {
	return r*r - 2*r + a*a
}
