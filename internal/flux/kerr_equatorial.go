package flux

import (
	"fmt"
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/interp"
	"github.com/san-kum/inspiral/internal/kerr"
	"github.com/san-kum/inspiral/internal/log"
)

// eDotFloor is the eccentricity below which ė is pinned to zero.
const eDotFloor = 1e-6

// KerrEquatorialEccentric evolves eccentric equatorial orbits around a
// spinning black hole. The tables are fits in (a, u, w) with
// u = ln((p - p_sep + 3.95)/4) and w = sqrt(e), multiplying the leading
// post-Newtonian rates regularized at the separatrix.
type KerrEquatorialEccentric struct {
	base
	pdot, edot interp.Interpolant3D
}

// NewKerrEquatorialEccentric builds the model from the ṗ and ė tables.
func NewKerrEquatorialEccentric(pdot, edot interp.Interpolant3D, opts Options) (*KerrEquatorialEccentric, error) {
	if pdot == nil || edot == nil {
		return nil, fmt.Errorf("flux: kerr equatorial model needs both flux tables")
	}
	return &KerrEquatorialEccentric{
		base: base{name: KerrEquatorialEccentricName, opts: opts},
		pdot: pdot,
		edot: edot,
	}, nil
}

// LoadKerrEquatorialEccentric reads the tables from dir.
func LoadKerrEquatorialEccentric(dir string, opts Options) (*KerrEquatorialEccentric, error) {
	t, err := interp.LoadKerrTables(dir)
	if err != nil {
		return nil, fmt.Errorf("flux: %w", err)
	}
	return NewKerrEquatorialEccentric(t.PDot, t.EDot, opts)
}

// Derivative returns zero rates when e < 0 or p is at or inside the
// separatrix.
// x must be ±1.
func (m *KerrEquatorialEccentric) Derivative(epsilon, a, p, e, x float64) (Rates, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.begin(a, p, e, x); err != nil {
		return m.done(Rates{}, err)
	}
	r, err := m.rates(epsilon, a, p, e, x)
	if err == nil && !r.Stalled() {
		err = m.applySpin(&r, epsilon, a, p, e, x)
	}
	return m.done(r, err)
}

func (m *KerrEquatorialEccentric) rates(epsilon, a, p, e, x float64) (Rates, error) {
	if math.Abs(x) != 1 {
		return Rates{}, fmt.Errorf("%w: equatorial model needs x = ±1, got %g", dynamo.ErrDomain, x)
	}
	if e < 0 {
		return Rates{}, nil
	}
	pSep, err := kerr.Separatrix(a, e, x)
	if err != nil {
		return Rates{}, err
	}
	// reg vanishes at the separatrix itself
	if p <= pSep {
		return Rates{}, nil
	}

	f, err := kerr.CoordinateFrequencies(a, p, e, x)
	if err != nil {
		return Rates{}, err
	}

	omegaSep := 1 / (a + math.Pow(pSep/(1+e), 1.5))
	r := math.Pow(math.Abs(f.OmegaPhi)/omegaSep, 2.0/3.0) * (1 + e)
	if math.IsNaN(r) {
		return Rates{}, fmt.Errorf("%w: radial coordinate undefined (Ωφ=%g Ωφ,sep=%g p_sep=%g)",
			dynamo.ErrDomain, f.OmegaPhi, omegaSep, pSep)
	}

	rISCO, err := kerr.Separatrix(a, 0, x)
	if err != nil {
		return Rates{}, err
	}
	u := math.Log((p - pSep + 4 - 0.05) / 4)
	w := math.Sqrt(e)
	e2 := e * e
	reg := (p-rISCO)*(p-rISCO) - (pSep-rISCO)*(pSep-rISCO)
	ecc := math.Pow(1-e2, 1.5)

	log.Debug("msg", "kerr equatorial flux", "a", a, "p", p, "e", e, "p_sep", pSep, "r", r, "u", u)

	out := Rates{
		PDot:       epsilon * m.pdot.Eval(a, u, w) * 8 * ecc * (8 + 7*e2) / (5 * p * reg),
		OmegaPhi:   f.OmegaPhi,
		OmegaTheta: f.OmegaTheta,
		OmegaR:     f.OmegaR,
	}
	if e > eDotFloor {
		out.EDot = epsilon * m.edot.Eval(a, u, w) * ecc * (304 + 121*e2) / (15 * p * p * reg)
	}
	if !finite(out.PDot) || !finite(out.EDot) {
		return Rates{}, fmt.Errorf("%w: ṗ=%g ė=%g at p=%g e=%g", dynamo.ErrNumericalInstability, out.PDot, out.EDot, p, e)
	}
	return out, nil
}

// Close releases the tables.
func (m *KerrEquatorialEccentric) Close() error {
	return m.shutdown(func() { m.pdot, m.edot = nil, nil })
}
