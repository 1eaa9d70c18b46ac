// Package roots implements bracketed one-dimensional root finding.
package roots

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/log"
	"github.com/san-kum/inspiral/internal/telemetry"
)

const dblEpsilon = 2.220446049250313e-16

// Options controls convergence of Brent.
type Options struct {
	// RelTol and AbsTol form the interval test |hi-lo| < AbsTol + RelTol*min(|lo|,|hi|).
	RelTol  float64
	AbsTol  float64
	MaxIter int
}

// DefaultOptions matches the separatrix solver: 0.1% relative, 1000 iterations.
func DefaultOptions() Options {
	return Options{RelTol: 0.001, AbsTol: 0, MaxIter: 1000}
}

// Result is the outcome of a solve. Lower and Upper are the final bracket,
// which still encloses the sign change.
type Result struct {
	Root       float64
	Lower      float64
	Upper      float64
	Iterations int
	Converged  bool
}

// Error reports an invalid bracket or a non-finite function value.
type Error struct {
	Lower, Upper   float64
	FLower, FUpper float64
	Reason         string
}

func (e *Error) Error() string {
	return fmt.Sprintf("roots: %s on [%g, %g] (f=%g, %g): %v",
		e.Reason, e.Lower, e.Upper, e.FLower, e.FUpper, dynamo.ErrRootBracketing)
}

func (e *Error) Unwrap() error {
	return dynamo.ErrRootBracketing
}

// SlowConvergence is returned alongside a usable Result when the iteration
// cap is reached before the interval test passes.
type SlowConvergence struct {
	Iterations int
	Root       float64
	Width      float64
}

func (s *SlowConvergence) Error() string {
	return fmt.Sprintf("roots: %d iterations, root %g, bracket width %g: %v",
		s.Iterations, s.Root, s.Width, dynamo.ErrSlowConvergence)
}

func (s *SlowConvergence) Unwrap() error {
	return dynamo.ErrSlowConvergence
}

// Fatal reports whether err prevents use of the returned Result.
func Fatal(err error) bool {
	return err != nil && !errors.Is(err, dynamo.ErrSlowConvergence)
}

func sameSign(a, b float64) bool {
	return (a < 0 && b < 0) || (a > 0 && b > 0)
}

func bad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Brent finds a root of f in [lo, hi] with the Brent-Dekker method
// (bisection, secant and inverse quadratic interpolation).
//
// A bracket without a sign change, or a non-finite function value, returns
// an *Error. Reaching MaxIter returns the best estimate together with a
// *SlowConvergence; the event is logged and counted.
func Brent(f func(float64) float64, lo, hi float64, opts Options) (Result, error) {
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultOptions().MaxIter
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	fa, fb := f(lo), f(hi)
	if bad(fa) || bad(fb) {
		telemetry.RootSolves.WithLabelValues(telemetry.Error).Inc()
		return Result{}, &Error{Lower: lo, Upper: hi, FLower: fa, FUpper: fb, Reason: "non-finite function value"}
	}
	if sameSign(fa, fb) {
		telemetry.RootSolves.WithLabelValues(telemetry.Error).Inc()
		return Result{}, &Error{Lower: lo, Upper: hi, FLower: fa, FUpper: fb, Reason: "endpoints do not straddle root"}
	}

	a, b := lo, hi
	c, fc := hi, fb
	d, e := hi-lo, hi-lo
	xl, xu := lo, hi
	root := hi

	for iter := 1; ; iter++ {
		acEqual := false
		if sameSign(fb, fc) {
			acEqual = true
			c, fc = a, fa
			d, e = b-a, b-a
		}
		if math.Abs(fc) < math.Abs(fb) {
			acEqual = true
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 0.5 * dblEpsilon * math.Abs(b)
		m := 0.5 * (c - b)

		switch {
		case fb == 0:
			root, xl, xu = b, b, b
		case math.Abs(m) <= tol:
			root = b
			xl, xu = math.Min(b, c), math.Max(b, c)
		default:
			if math.Abs(e) < tol || math.Abs(fa) <= math.Abs(fb) {
				d, e = m, m
			} else {
				var p, q float64
				s := fb / fa
				if acEqual {
					p = 2 * m * s
					q = 1 - s
				} else {
					q = fa / fc
					r := fb / fc
					p = s * (2*m*q*(q-r) - (b-a)*(r-1))
					q = (q - 1) * (r - 1) * (s - 1)
				}
				if p > 0 {
					q = -q
				} else {
					p = -p
				}
				if 2*p < math.Min(3*m*q-math.Abs(tol*q), math.Abs(e*q)) {
					e = d
					d = p / q
				} else {
					d, e = m, m
				}
			}

			a, fa = b, fb
			switch {
			case math.Abs(d) > tol:
				b += d
			case m > 0:
				b += tol
			default:
				b -= tol
			}

			fb = f(b)
			if bad(fb) {
				telemetry.RootSolves.WithLabelValues(telemetry.Error).Inc()
				return Result{}, &Error{Lower: xl, Upper: xu, FLower: fa, FUpper: fb, Reason: "non-finite function value"}
			}
			root = b
			if sameSign(fb, fc) {
				c = a
			}
			xl, xu = math.Min(b, c), math.Max(b, c)
		}

		if converged(xl, xu, opts) {
			telemetry.RootSolves.WithLabelValues(telemetry.OK).Inc()
			telemetry.RootIterations.Observe(float64(iter))
			return Result{Root: root, Lower: xl, Upper: xu, Iterations: iter, Converged: true}, nil
		}
		if iter >= opts.MaxIter {
			telemetry.RootSolves.WithLabelValues(telemetry.Slow).Inc()
			telemetry.RootIterations.Observe(float64(iter))
			log.Warn("msg", "root solver reached iteration cap", "iter", iter, "root", root, "lo", xl, "hi", xu)
			res := Result{Root: root, Lower: xl, Upper: xu, Iterations: iter}
			return res, &SlowConvergence{Iterations: iter, Root: root, Width: xu - xl}
		}
	}
}

func converged(xl, xu float64, opts Options) bool {
	if xl == xu {
		return true
	}
	minAbs := 0.0
	if sameSign(xl, xu) {
		minAbs = math.Min(math.Abs(xl), math.Abs(xu))
	}
	return math.Abs(xu-xl) < opts.AbsTol+opts.RelTol*minAbs
}
