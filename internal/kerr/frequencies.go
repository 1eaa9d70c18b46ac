package kerr

import (
	"fmt"
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/ellint"
)

// radialEllipticSet holds the elliptic integrals of the radial motion:
// K(kr), E(kr) and Π at the characteristics hr, h+ and h-.
type radialEllipticSet struct {
	K, E, PiR, PiP, PiM float64
}

func radialElliptic(kr, hr, hp, hm float64) (radialEllipticSet, error) {
	var s radialEllipticSet
	var err error
	if s.K, err = ellint.K(kr); err != nil {
		return s, err
	}
	if s.E, err = ellint.E(kr); err != nil {
		return s, err
	}
	if s.PiR, err = ellint.Pi(hr, kr); err != nil {
		return s, err
	}
	if s.PiP, err = ellint.Pi(hp, kr); err != nil {
		return s, err
	}
	if s.PiM, err = ellint.Pi(hm, kr); err != nil {
		return s, err
	}
	return s, nil
}

// radialParameters returns kr, hr, h+ and h- for the given roots.
func radialParameters(a float64, rr RadialRoots) (kr, hr, hp, hm float64) {
	r1, r2, r3, r4 := rr.R1, rr.R2, rr.R3, rr.R4
	rp, rm := horizons(a)
	kr = (r1 - r2) / (r1 - r3) * (r3 - r4) / (r2 - r4)
	hr = (r1 - r2) / (r1 - r3)
	hp = ((r1 - r2) * (r3 - rp)) / ((r1 - r3) * (r2 - rp))
	hm = ((r1 - r2) * (r3 - rm)) / ((r1 - r3) * (r2 - rm))
	return
}

// radialPart returns Υ_r and the radial contributions to Υ_φ and Γ.
func radialPart(a, en, l float64, rr RadialRoots, s radialEllipticSet) (upsR, phiR, gammaR float64) {
	r1, r2, r3, r4 := rr.R1, rr.R2, rr.R3, rr.R4
	rp, rm := horizons(a)

	root := math.Sqrt((1 - en*en) * (r1 - r3) * (r2 - r4))
	upsR = math.Pi * root / (2 * s.K)
	pref := 2 * upsR / (math.Pi * root)

	kp := s.K - (r2-r3)/(r2-rp)*s.PiP
	km := s.K - (r2-r3)/(r2-rm)*s.PiM

	phiR = a * pref / (rp - rm) * ((2*en*rp-a*l)/(r3-rp)*kp - (2*en*rm-a*l)/(r3-rm)*km)

	gammaR = pref * (en/2*((r3*(r1+r2+r3)-r1*r2)*s.K+(r2-r3)*(r1+r2+r3+r4)*s.PiR+(r1-r3)*(r2-r4)*s.E) +
		2*en*(r3*s.K+(r2-r3)*s.PiR) +
		2/(rp-rm)*(((4*en-a*l)*rp-2*a*a*en)/(r3-rp)*kp-((4*en-a*l)*rm-2*a*a*en)/(r3-rm)*km))
	return
}

// MinoFrequenciesGeneric evaluates the Mino-time frequencies of an inclined
// orbit (Fujita & Hikida 2009). Υ_θ is built from |L| and the polar part of
// Υ_φ carries the sign of L, so retrograde orbits keep Υ_θ > 0.
func MinoFrequenciesGeneric(a, p, e, x float64) (MinoFrequencies, error) {
	c, err := ConstantsOfMotion(a, p, e, x)
	if err != nil {
		return MinoFrequencies{}, err
	}
	en, l := c.E, c.L

	rr, err := Roots(a, p, e, x, en, c.Q)
	if err != nil {
		return MinoFrequencies{}, err
	}

	zm := 1 - x*x
	w := en*en - 1
	l2 := l * l
	a2zp := (l2 + a*a*w*(zm-1)) / (w * (zm - 1))
	eps0zp := -(l2 + a*a*w*(zm-1)) / (l2 * (zm - 1))
	// a = 0 makes the inner quotient infinite and kθ = 0.
	kTheta := zm / ((l2 + a*a*w*(zm-1)) / (a * a * w * (zm - 1)))

	kth, err := ellint.K(kTheta)
	if err != nil {
		return MinoFrequencies{}, wrap("MinoFrequencies", a, p, e, x, err)
	}
	eth, err := ellint.E(kTheta)
	if err != nil {
		return MinoFrequencies{}, wrap("MinoFrequencies", a, p, e, x, err)
	}
	pith, err := ellint.Pi(zm, kTheta)
	if err != nil {
		return MinoFrequencies{}, wrap("MinoFrequencies", a, p, e, x, err)
	}

	set, err := radialElliptic(radialParameters(a, rr))
	if err != nil {
		return MinoFrequencies{}, wrap("MinoFrequencies", a, p, e, x, err)
	}
	upsR, phiR, gammaR := radialPart(a, en, l, rr, set)

	absL := math.Abs(l)
	sq := math.Sqrt(eps0zp)
	upsTheta := math.Pi * absL * sq / (2 * kth)
	upsPhi := 2*upsTheta/(math.Pi*sq)*pith*math.Copysign(1, l) + phiR
	gamma := 4*en + 2*a2zp*en*upsTheta/(math.Pi*absL*sq)*(kth-eth) + gammaR

	return MinoFrequencies{Gamma: gamma, UpsilonPhi: upsPhi, UpsilonTheta: upsTheta, UpsilonR: upsR}, nil
}

// EquatorialMinoFrequencies is the |x| = 1 fast path. The polar motion is
// trivial, so only the radial elliptic integrals are needed, and circular
// orbits need none (all characteristics vanish).
func EquatorialMinoFrequencies(a, p, e, x float64) (MinoFrequencies, error) {
	c, err := ConstantsOfMotion(a, p, e, x)
	if err != nil {
		return MinoFrequencies{}, err
	}
	en, l := c.E, c.L

	rr, err := Roots(a, p, e, x, en, 0)
	if err != nil {
		return MinoFrequencies{}, err
	}

	var set radialEllipticSet
	if e == 0 {
		h := math.Pi / 2
		set = radialEllipticSet{K: h, E: h, PiR: h, PiP: h, PiM: h}
	} else {
		set, err = radialElliptic(radialParameters(a, rr))
		if err != nil {
			return MinoFrequencies{}, wrap("EquatorialMinoFrequencies", a, p, e, x, err)
		}
	}
	upsR, phiR, gammaR := radialPart(a, en, l, rr, set)

	return MinoFrequencies{
		Gamma:        4*en + gammaR,
		UpsilonPhi:   l + phiR,
		UpsilonTheta: math.Sqrt(l*l + a*a*(1-en*en)),
		UpsilonR:     upsR,
	}, nil
}

// CoordinateFrequencies returns (Ω_φ, Ω_θ, Ω_r), dispatching to the
// equatorial path when |x| == 1. Any non-finite frequency is fatal to the
// call and reported as dynamo.ErrNumericalInstability.
func CoordinateFrequencies(a, p, e, x float64) (Frequencies, error) {
	var (
		m   MinoFrequencies
		err error
	)
	if math.Abs(x) == 1 {
		m, err = EquatorialMinoFrequencies(a, p, e, x)
	} else {
		m, err = MinoFrequenciesGeneric(a, p, e, x)
	}
	if err != nil {
		return Frequencies{}, err
	}
	if !m.finite() {
		return Frequencies{}, wrap("CoordinateFrequencies", a, p, e, x,
			fmt.Errorf("%w: Γ=%g Υφ=%g Υθ=%g Υr=%g", dynamo.ErrNumericalInstability,
				m.Gamma, m.UpsilonPhi, m.UpsilonTheta, m.UpsilonR))
	}

	f := m.Coordinate()
	if !finite(f.OmegaPhi) || !finite(f.OmegaTheta) || !finite(f.OmegaR) {
		return Frequencies{}, wrap("CoordinateFrequencies", a, p, e, x,
			fmt.Errorf("%w: Ω=%+v", dynamo.ErrNumericalInstability, f))
	}
	return f, nil
}

// SchwarzschildCoordinateFrequencies is the a = 0 closed form (Cutler,
// Kennefick & Poisson 1994). Ω_θ equals Ω_φ.
func SchwarzschildCoordinateFrequencies(p, e float64) (Frequencies, error) {
	k := 4 * e / (p - 6 + 2*e)
	ellE, err := ellint.E(k)
	if err != nil {
		return Frequencies{}, wrap("SchwarzschildCoordinateFrequencies", 0, p, e, 1, err)
	}
	ellK, err := ellint.K(k)
	if err != nil {
		return Frequencies{}, wrap("SchwarzschildCoordinateFrequencies", 0, p, e, 1, err)
	}
	pi1, err := ellint.Pi(16*e/(12+8*e-4*e*e-8*p+p*p), k)
	if err != nil {
		return Frequencies{}, wrap("SchwarzschildCoordinateFrequencies", 0, p, e, 1, err)
	}
	pi2, err := ellint.Pi(2*e*(p-4)/((1+e)*(p-6+2*e)), k)
	if err != nil {
		return Frequencies{}, wrap("SchwarzschildCoordinateFrequencies", 0, p, e, 1, err)
	}

	e2 := e * e
	p4 := p - 4
	inner := (-2*pi2*(6+2*e-p)*(3+e2-p)*p*p)/((e-1)*(1+e)*(1+e)) -
		(ellE*p4*p*p*(-6+2*e+p))/(e2-1) +
		(ellK*p*p*(28+4*e2-12*p+p*p))/(e2-1) +
		(4*p4*p*(2*(1+e)*ellK+pi2*(-6-2*e+p)))/(1+e) +
		2*p4*p4*(ellK*p4+(pi1*p*(-6-2*e+p))/(2+2*e-p))

	omegaPhi := 2 * math.Pow(p, 1.5) / (math.Sqrt((p-2)*(p-2)-4*e2) * (8 + inner/(ellK*p4*p4)))
	omegaR := p * math.Sqrt((p-6+2*e)/((p-2)*(p-2)-4*e2)) * math.Pi / (8*ellK + inner/(p4*p4))

	f := Frequencies{OmegaPhi: omegaPhi, OmegaTheta: omegaPhi, OmegaR: omegaR}
	if !finite(omegaPhi) || !finite(omegaR) {
		return Frequencies{}, wrap("SchwarzschildCoordinateFrequencies", 0, p, e, 1,
			fmt.Errorf("%w: Ω=%+v", dynamo.ErrNumericalInstability, f))
	}
	return f, nil
}
