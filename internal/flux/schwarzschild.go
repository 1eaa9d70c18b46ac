package flux

import (
	"fmt"
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/interp"
	"github.com/san-kum/inspiral/internal/kerr"
)

// SchwarzschildEccentric evolves eccentric orbits around a non-spinning
// black hole: leading post-Newtonian energy and angular momentum fluxes plus
// tabulated corrections over (ln(p - 2e - 2.1), e), mapped to (ṗ, ė) by the
// Jacobian of the geodesic constants. x does not evolve.
type SchwarzschildEccentric struct {
	base
	edot, ldot interp.Interpolant2D
}

// NewSchwarzschildEccentric builds the model from the two correction tables.
func NewSchwarzschildEccentric(edot, ldot interp.Interpolant2D, opts Options) (*SchwarzschildEccentric, error) {
	if edot == nil || ldot == nil {
		return nil, fmt.Errorf("flux: schwarzschild model needs both flux tables")
	}
	return &SchwarzschildEccentric{
		base: base{name: SchwarzschildEccentricName, opts: opts},
		edot: edot,
		ldot: ldot,
	}, nil
}

// LoadSchwarzschildEccentric reads the flux table from dir.
func LoadSchwarzschildEccentric(dir string, opts Options) (*SchwarzschildEccentric, error) {
	edot, ldot, err := interp.LoadSchwarzschildTable(dir)
	if err != nil {
		return nil, fmt.Errorf("flux: %w", err)
	}
	return NewSchwarzschildEccentric(edot, ldot, opts)
}

// Derivative ignores a. Inside 6 + 2e > p it returns zero rates.
func (m *SchwarzschildEccentric) Derivative(epsilon, a, p, e, x float64) (Rates, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.begin(a, p, e, x); err != nil {
		return m.done(Rates{}, err)
	}
	return m.done(m.rates(epsilon, p, e))
}

func (m *SchwarzschildEccentric) rates(epsilon, p, e float64) (Rates, error) {
	if 6+2*e > p {
		return Rates{}, nil
	}
	f, err := kerr.SchwarzschildCoordinateFrequencies(p, e)
	if err != nil {
		return Rates{}, err
	}

	y1 := math.Log(p - 2*e - 2.1)
	yPN := math.Pow(f.OmegaPhi, 2.0/3.0)
	e2 := e * e

	edotPN := (96 + 292*e2 + 37*e2*e2) / (15 * math.Pow(1-e2, 3.5)) * math.Pow(yPN, 5)
	ldotPN := 4 * (8 + 7*e2) / (5 * (e2 - 1) * (e2 - 1)) * math.Pow(yPN, 3.5)
	enDot := -epsilon * (m.edot.Eval(y1, e)*math.Pow(yPN, 6) + edotPN)
	lDot := -epsilon * (m.ldot.Eval(y1, e)*math.Pow(yPN, 4.5) + ldotPN)

	q := math.Sqrt((4*e2 - (p-2)*(p-2)) / (3 + e2 - p))
	s := math.Sqrt(p - 3 - e2)
	p15 := math.Pow(p, 1.5)
	den := 4*e2 - (p-6)*(p-6)

	r := Rates{
		PDot:       -2 * (enDot*q*(3+e2-p)*p15 + lDot*(p-4)*(p-4)*s) / den,
		OmegaPhi:   f.OmegaPhi,
		OmegaTheta: f.OmegaTheta,
		OmegaR:     f.OmegaR,
	}
	if e > 0 {
		r.EDot = -(enDot*q*p15*(18+2*e2*e2-3*e2*(p-4)-9*p+p*p) +
			(e2-1)*lDot*s*(12+4*e2-8*p+p*p)) / (e * den * p)
	}
	if math.IsNaN(r.PDot) || math.IsNaN(r.EDot) {
		return Rates{}, fmt.Errorf("%w: ṗ=%g ė=%g at p=%g e=%g", dynamo.ErrNumericalInstability, r.PDot, r.EDot, p, e)
	}
	return r, nil
}

// Close releases the tables.
func (m *SchwarzschildEccentric) Close() error {
	return m.shutdown(func() { m.edot, m.ldot = nil, nil })
}
