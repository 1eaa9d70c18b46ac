package flux

import (
	"math"

	"github.com/san-kum/inspiral/internal/kerr"
)

// PNLeading is the table-free quadrupole (Peters-Mathews) evolution on top
// of exact geodesic frequencies. It needs no data files and is the fallback
// model when no tables directory is configured.
type PNLeading struct {
	base
}

func NewPNLeading(opts Options) *PNLeading {
	return &PNLeading{base: base{name: PNLeadingName, opts: opts}}
}

// Derivative returns zero rates at or inside the separatrix.
func (m *PNLeading) Derivative(epsilon, a, p, e, x float64) (Rates, error) {
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

func (m *PNLeading) rates(epsilon, a, p, e, x float64) (Rates, error) {
	if e < 0 {
		return Rates{}, nil
	}
	pSep, err := kerr.Separatrix(a, e, x)
	if err != nil {
		return Rates{}, err
	}
	if p <= pSep {
		return Rates{}, nil
	}

	var f kerr.Frequencies
	if a == 0 {
		f, err = kerr.SchwarzschildCoordinateFrequencies(p, e)
		if x < 0 {
			f.OmegaPhi = -f.OmegaPhi
		}
	} else {
		f, err = kerr.CoordinateFrequencies(a, p, e, x)
	}
	if err != nil {
		return Rates{}, err
	}

	e2 := e * e
	ecc := math.Pow(1-e2, 1.5)
	return Rates{
		PDot:       -epsilon * 64.0 / 5.0 * ecc / (p * p * p) * (1 + 7.0/8.0*e2),
		EDot:       -epsilon * 304.0 / 15.0 * e * ecc / (p * p * p * p) * (1 + 121.0/304.0*e2),
		OmegaPhi:   f.OmegaPhi,
		OmegaTheta: f.OmegaTheta,
		OmegaR:     f.OmegaR,
	}, nil
}

func (m *PNLeading) Close() error {
	return m.shutdown(func() {})
}
