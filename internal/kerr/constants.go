package kerr

import (
	"fmt"
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
)

// Auxiliary polynomials of the radial/polar potentials at radius r, with
// zm = sqrt(1-x²) the polar turning point.
func fPoly(r, a, zm float64) float64 {
	return r*r*r*r + a*a*(r*(r+2)+zm*zm*delta(r, a))
}

func gPoly(r, a float64) float64 {
	return 2 * a * r
}

func hPoly(r, a, zm float64) float64 {
	return r*(r-2) + zm*zm/(1-zm*zm)*delta(r, a)
}

func dPoly(r, a, zm float64) float64 {
	return (r*r + a*a*zm*zm) * delta(r, a)
}

// Energy returns the orbital energy from the determinant form at
// r1 = p/(1-e) and r2 = p/(1+e).
func Energy(a, p, e, x float64) float64 {
	r1, r2 := p/(1-e), p/(1+e)
	zm := math.Sqrt(1 - x*x)

	d1, d2 := dPoly(r1, a, zm), dPoly(r2, a, zm)
	f1, f2 := fPoly(r1, a, zm), fPoly(r2, a, zm)
	g1, g2 := gPoly(r1, a), gPoly(r2, a)
	h1, h2 := hPoly(r1, a, zm), hPoly(r2, a, zm)

	kappa := d1*h2 - h1*d2
	eps := d1*g2 - g1*d2
	rho := f1*h2 - h1*f2
	eta := f1*g2 - g1*f2
	sigma := g1*h2 - h1*g2

	disc := sigma * (sigma*eps*eps + rho*eps*kappa - eta*kappa*kappa) / (x * x)
	num := kappa*rho + 2*eps*sigma - x*2*math.Sqrt(disc)
	return math.Sqrt(num / (rho*rho + 4*eta*sigma))
}

// AngularMomentum returns L for the given energy, signed like x.
func AngularMomentum(a, p, e, x, en float64) float64 {
	r1 := p / (1 - e)
	zm := math.Sqrt(1 - x*x)
	f1, g1, h1, d1 := fPoly(r1, a, zm), gPoly(r1, a), hPoly(r1, a, zm), dPoly(r1, a, zm)
	return (-en*g1 + x*math.Sqrt((-d1*h1+en*en*(g1*g1+f1*h1))/(x*x))) / h1
}

// CarterConstant returns Q; it vanishes for equatorial orbits.
func CarterConstant(a, x, en, l float64) float64 {
	zm2 := 1 - x*x
	return zm2 * (a*a*(1-en*en) + l*l/(1-zm2))
}

// circularEquatorial handles e = 0, |x| = 1, where the determinant form is 0/0.
func circularEquatorial(a, p, x float64) Constants {
	s := math.Copysign(1, x)
	v := 1 / math.Sqrt(p)
	v2, v3 := v*v, v*v*v
	den := math.Sqrt(1 - 3*v2 + 2*s*a*v3)
	return Constants{
		E: (1 - 2*v2 + s*a*v3) / den,
		L: s * math.Sqrt(p) * (1 - 2*s*a*v3 + a*a*v2*v2) / den,
		Q: 0,
	}
}

// ConstantsOfMotion returns (E, L, Q) for the orbit. Exactly polar orbits
// (x = 0) and geometries inside the separatrix come out non-finite and are
// reported as dynamo.ErrDomain.
func ConstantsOfMotion(a, p, e, x float64) (Constants, error) {
	var c Constants
	if e == 0 && math.Abs(x) == 1 {
		c = circularEquatorial(a, p, x)
	} else {
		c.E = Energy(a, p, e, x)
		c.L = AngularMomentum(a, p, e, x, c.E)
		c.Q = CarterConstant(a, x, c.E, c.L)
	}

	if !finite(c.E) || !finite(c.L) || !finite(c.Q) {
		return Constants{}, wrap("ConstantsOfMotion", a, p, e, x,
			fmt.Errorf("%w: E=%g L=%g Q=%g", dynamo.ErrDomain, c.E, c.L, c.Q))
	}
	return c, nil
}

// Roots returns the radial turning points for the given energy and Carter
// constant. A negative discriminant or E >= 1 gives dynamo.ErrNumericalInstability.
// x enters only through E and Q and is used for error context.
func Roots(a, p, e, x, en, q float64) (RadialRoots, error) {
	r1, r2 := p/(1-e), p/(1+e)
	w := 1 - en*en
	apb := 2/w - (r1 + r2)
	ab := a * a * q / (w * r1 * r2)
	r3 := (apb + math.Sqrt(apb*apb-4*ab)) / 2
	r4 := ab / r3

	rr := RadialRoots{R1: r1, R2: r2, R3: r3, R4: r4}
	if !finite(r3) || !finite(r4) {
		return rr, wrap("Roots", a, p, e, x,
			fmt.Errorf("%w: r3=%g r4=%g", dynamo.ErrNumericalInstability, r3, r4))
	}
	return rr, nil
}
