package kerr

import (
	"errors"
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/roots"
)

const (
	polarHigh = 8.0
	// retroHigh bounds the retrograde full-polynomial bracket.
	retroHigh = 12.0
)

// polarLow is the polar separatrix at a = 1 and e = 0.
var polarLow = 1 + math.Sqrt(3) + math.Sqrt(3+2*math.Sqrt(3))

func solveSeparatrix(op string, f func(float64) float64, lo, hi float64, a, e, x float64) (roots.Result, error) {
	res, err := roots.Brent(f, lo, hi, roots.DefaultOptions())
	if roots.Fatal(err) {
		return res, wrap(op, a, math.NaN(), e, x, err)
	}
	return res, nil
}

// Separatrix returns p_sep(a, e, x), the smallest semi-latus rectum of a
// stable bound orbit.
//
// Schwarzschild and circular equatorial orbits use closed forms. Otherwise the
// polar polynomial is solved first and its root bounds the search on the full
// polynomial: from the equatorial root upwards for prograde orbits, up to 12
// for retrograde ones. When those estimates do not bracket a sign change the
// search is retried on the outer edges of the converged brackets. Prograde equatorial eccentric orbits
// return the equatorial root directly, since the full polynomial shares it.
//
// Slow convergence of any inner solve is logged and counted by the solver and
// the best estimate is returned with a nil error; a bracket without a sign
// change is fatal and wraps dynamo.ErrRootBracketing.
func Separatrix(a, e, x float64) (float64, error) {
	if a == 0 {
		return 6 + 2*e, nil
	}

	if e == 0 && math.Abs(x) == 1 {
		z1 := 1 + math.Cbrt(1-a*a)*(math.Cbrt(1+a)+math.Cbrt(1-a))
		z2 := math.Sqrt(3*a*a + z1*z1)
		sign := 1.0
		if x > 0 {
			sign = -1
		}
		return 3 + z2 + sign*math.Sqrt((3-z1)*(3+z1+2*z2)), nil
	}

	equatorial := func(p float64) float64 { return separatrixEquatorial(p, a, e) }

	if x == 1 {
		res, err := solveSeparatrix("Separatrix", equatorial, 1+e, 6+2*e, a, e, x)
		if err != nil {
			return 0, err
		}
		return res.Root, nil
	}

	polar, err := solveSeparatrix("Separatrix", func(p float64) float64 {
		return separatrixPolar(p, a, e)
	}, polarLow, polarHigh, a, e, x)
	if err != nil {
		return 0, err
	}
	if x == 0 {
		return polar.Root, nil
	}

	// Bracket on the root estimates first. Near a = 0 the full polynomial
	// has two almost coincident roots and a wider bracket encloses both.
	var narrow, wide [2]float64
	if x > 0 {
		eq, err := solveSeparatrix("Separatrix", equatorial, 1+e, 6+2*e, a, e, x)
		if err != nil {
			return 0, err
		}
		narrow = [2]float64{eq.Root, polar.Root}
		wide = [2]float64{eq.Lower, polar.Upper}
	} else {
		narrow = [2]float64{polar.Root, retroHigh}
		wide = [2]float64{polar.Lower, retroHigh}
	}

	full := func(p float64) float64 { return separatrixFull(p, a, e, x) }
	res, err := solveSeparatrix("Separatrix", full, narrow[0], narrow[1], a, e, x)
	if errors.Is(err, dynamo.ErrRootBracketing) {
		res, err = solveSeparatrix("Separatrix", full, wide[0], wide[1], a, e, x)
	}
	if err != nil {
		return 0, err
	}
	return res.Root, nil
}
