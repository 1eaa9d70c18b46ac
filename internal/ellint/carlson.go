package ellint

import "math"

// rc computes the degenerate Carlson integral R_C(x, y). For y < 0 the Cauchy
// principal value is returned.
func rc(x, y float64) float64 {
	const (
		errTol = 0.0012
		c1     = 0.3
		c2     = 1.0 / 7.0
		c3     = 0.375
		c4     = 9.0 / 22.0
	)

	xt, yt, w := x, y, 1.0
	if y <= 0 {
		xt = x - y
		yt = -y
		w = math.Sqrt(x) / math.Sqrt(xt)
	}

	var ave, s float64
	for iter := 0; iter < maxCarlsonIter; iter++ {
		lambda := 2*math.Sqrt(xt)*math.Sqrt(yt) + yt
		xt = 0.25 * (xt + lambda)
		yt = 0.25 * (yt + lambda)
		ave = (xt + yt + yt) / 3
		s = (yt - ave) / ave
		if math.Abs(s) <= errTol {
			return w * (1 + s*s*(c1+s*(c2+s*(c3+s*c4)))) / math.Sqrt(ave)
		}
	}
	return math.NaN()
}

// rj computes the Carlson integral of the third kind R_J(x, y, z, p) for p > 0.
// x, y, z must be non-negative with at most one of them zero.
func rj(x, y, z, p float64) float64 {
	const (
		errTol = 0.0015
		c1     = 3.0 / 14.0
		c2     = 1.0 / 3.0
		c3     = 3.0 / 22.0
		c4     = 3.0 / 26.0
		c5     = 0.75 * c3
		c6     = 1.5 * c4
		c7     = 0.5 * c2
		c8     = c3 + c3
	)

	if x < 0 || y < 0 || z < 0 || p <= 0 {
		return math.NaN()
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(z) || math.IsNaN(p) {
		return math.NaN()
	}

	sum, fac := 0.0, 1.0
	xt, yt, zt, pt := x, y, z, p
	for iter := 0; iter < maxCarlsonIter; iter++ {
		sx, sy, sz := math.Sqrt(xt), math.Sqrt(yt), math.Sqrt(zt)
		lambda := sx*(sy+sz) + sy*sz
		alpha := pt*(sx+sy+sz) + sx*sy*sz
		alpha *= alpha
		beta := pt * (pt + lambda) * (pt + lambda)
		sum += fac * rc(alpha, beta)
		fac *= 0.25
		xt = 0.25 * (xt + lambda)
		yt = 0.25 * (yt + lambda)
		zt = 0.25 * (zt + lambda)
		pt = 0.25 * (pt + lambda)

		ave := 0.2 * (xt + yt + zt + pt + pt)
		dx := (ave - xt) / ave
		dy := (ave - yt) / ave
		dz := (ave - zt) / ave
		dp := (ave - pt) / ave
		if math.Max(math.Max(math.Abs(dx), math.Abs(dy)), math.Max(math.Abs(dz), math.Abs(dp))) > errTol {
			continue
		}

		ea := dx*(dy+dz) + dy*dz
		eb := dx * dy * dz
		ec := dp * dp
		ed := ea - 3*ec
		ee := eb + 2*dp*(ea-ec)
		return 3*sum + fac*(1+ed*(-c1+c5*ed-c6*ee)+eb*(c7+dp*(-c8+dp*c4))+dp*ea*(c2-dp*c3)-c2*dp*ec)/(ave*math.Sqrt(ave))
	}
	return math.NaN()
}

const maxCarlsonIter = 100
