package kerr

import (
	"math"

	"github.com/san-kum/inspiral/internal/roots"
)

// yLimit bounds the searched inclination; beyond it Y and x agree to solver tolerance.
const yLimit = 0.998

// YToX converts Y = L/sqrt(L²+Q) to the inclination cosine x by root finding
// in a window of ±0.15 around Y. For |Y| > 0.998 Y is returned unchanged.
func YToX(a, p, e, y float64) (float64, error) {
	if math.Abs(y) > yLimit {
		return y, nil
	}

	lo := math.Max(y-0.15, -yLimit)
	hi := math.Min(y+0.15, yLimit)

	var inner error
	f := func(x float64) float64 {
		c, err := ConstantsOfMotion(a, p, e, x)
		if err != nil {
			if inner == nil {
				inner = err
			}
			return math.NaN()
		}
		return y - c.L/math.Sqrt(c.L*c.L+c.Q)
	}

	res, err := roots.Brent(f, lo, hi, roots.DefaultOptions())
	if roots.Fatal(err) {
		if inner != nil {
			return 0, inner
		}
		return 0, wrap("YToX", a, p, e, y, err)
	}
	return res.Root, nil
}

// XToY is the forward map x -> Y = L/sqrt(L²+Q).
func XToY(a, p, e, x float64) (float64, error) {
	c, err := ConstantsOfMotion(a, p, e, x)
	if err != nil {
		return 0, err
	}
	return c.L / math.Sqrt(c.L*c.L+c.Q), nil
}
