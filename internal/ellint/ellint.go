// Package ellint evaluates Legendre elliptic integrals through Carlson's
// symmetric forms.
//
// All functions take the parameter k = m (the squared modulus), the same
// convention as EllipticK[m] and friends in Mathematica. The characteristic n
// of the third kind enters as 1/((1 - n sin²θ) sqrt(1 - k sin²θ)).
//
// Failures never fall back to a default value: every error is an [*Error]
// wrapping [dynamo.ErrSpecialFunction].
package ellint

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/inspiral/internal/dynamo"
	"gonum.org/v1/gonum/mathext"
)

// Error records the failing function and its arguments.
type Error struct {
	Func string
	Args []float64
}

func (e *Error) Error() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = fmt.Sprintf("%g", a)
	}
	return fmt.Sprintf("ellint: %s(%s): %v", e.Func, strings.Join(args, ", "), dynamo.ErrSpecialFunction)
}

func (e *Error) Unwrap() error {
	return dynamo.ErrSpecialFunction
}

func fail(name string, args ...float64) error {
	return &Error{Func: name, Args: args}
}

func validParam(k float64) bool {
	return !math.IsNaN(k) && k >= 0 && k < 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// K returns the complete elliptic integral of the first kind.
func K(k float64) (float64, error) {
	if !validParam(k) {
		return 0, fail("K", k)
	}
	v := mathext.EllipticRF(0, 1-k, 1)
	if !finite(v) {
		return 0, fail("K", k)
	}
	return v, nil
}

// E returns the complete elliptic integral of the second kind.
func E(k float64) (float64, error) {
	if !validParam(k) {
		return 0, fail("E", k)
	}
	y := 1 - k
	v := mathext.EllipticRF(0, y, 1) - k/3*mathext.EllipticRD(0, y, 1)
	if !finite(v) {
		return 0, fail("E", k)
	}
	return v, nil
}

// Pi returns the complete elliptic integral of the third kind Π(n|k).
// n must be below 1; n == 1 is the logarithmic singularity and n > 1 would
// require a principal value.
func Pi(n, k float64) (float64, error) {
	if !validParam(k) || math.IsNaN(n) || n >= 1 {
		return 0, fail("Pi", n, k)
	}
	y := 1 - k
	v := mathext.EllipticRF(0, y, 1)
	if n != 0 {
		v += n / 3 * rj(0, y, 1, 1-n)
	}
	if !finite(v) {
		return 0, fail("Pi", n, k)
	}
	return v, nil
}

// reduce splits phi = phiRed + nc*π with phiRed in [-π/2, π/2).
func reduce(phi float64) (float64, float64) {
	nc := math.Floor(phi/math.Pi + 0.5)
	return phi - nc*math.Pi, nc
}

// F returns the incomplete elliptic integral of the first kind F(phi|k).
func F(phi, k float64) (float64, error) {
	if !validParam(k) || !finite(phi) {
		return 0, fail("F", phi, k)
	}
	phiRed, nc := reduce(phi)
	v := mathext.EllipticF(phiRed, k)
	if nc != 0 {
		full, err := K(k)
		if err != nil {
			return 0, fail("F", phi, k)
		}
		v += 2 * nc * full
	}
	if !finite(v) {
		return 0, fail("F", phi, k)
	}
	return v, nil
}

// EIncomplete returns the incomplete elliptic integral of the second kind E(phi|k).
func EIncomplete(phi, k float64) (float64, error) {
	if !validParam(k) || !finite(phi) {
		return 0, fail("EIncomplete", phi, k)
	}
	phiRed, nc := reduce(phi)
	v := mathext.EllipticE(phiRed, k)
	if nc != 0 {
		full, err := E(k)
		if err != nil {
			return 0, fail("EIncomplete", phi, k)
		}
		v += 2 * nc * full
	}
	if !finite(v) {
		return 0, fail("EIncomplete", phi, k)
	}
	return v, nil
}

// PiIncomplete returns the incomplete elliptic integral of the third kind
// Π(n; phi|k). The integrand must stay regular on the reduced range, so
// 1 - n sin²(phi) has to be positive.
func PiIncomplete(n, phi, k float64) (float64, error) {
	if !validParam(k) || !finite(phi) || math.IsNaN(n) {
		return 0, fail("PiIncomplete", n, phi, k)
	}
	phiRed, nc := reduce(phi)
	s, c := math.Sincos(phiRed)
	s2 := s * s
	if 1-n*s2 <= 0 {
		return 0, fail("PiIncomplete", n, phi, k)
	}

	x, y := c*c, 1-k*s2
	v := s * mathext.EllipticRF(x, y, 1)
	if n != 0 && s != 0 {
		v += n / 3 * s * s2 * rj(x, y, 1, 1-n*s2)
	}
	if nc != 0 {
		full, err := Pi(n, k)
		if err != nil {
			return 0, fail("PiIncomplete", n, phi, k)
		}
		v += 2 * nc * full
	}
	if !finite(v) {
		return 0, fail("PiIncomplete", n, phi, k)
	}
	return v, nil
}
