package batch

import (
	"github.com/san-kum/inspiral/internal/kerr"
)

// ConstantsOfMotion fills E, L and Q for each orbit.
func (ev *Evaluator) ConstantsOfMotion(E, L, Q, a, p, e, x []float64) error {
	n := len(a)
	if err := checkLen(n, E, L, Q, p, e, x); err != nil {
		return err
	}
	return ev.run("constants", n, func(i int) error {
		c, err := kerr.ConstantsOfMotion(a[i], p[i], e[i], x[i])
		if err != nil {
			nan(&E[i], &L[i], &Q[i])
			return err
		}
		E[i], L[i], Q[i] = c.E, c.L, c.Q
		return nil
	})
}

// CoordinateFrequencies fills (Ω_φ, Ω_θ, Ω_r). Elements with a == 0 use the
// Schwarzschild closed form, where Ω_θ equals Ω_φ.
func (ev *Evaluator) CoordinateFrequencies(omegaPhi, omegaTheta, omegaR, a, p, e, x []float64) error {
	n := len(a)
	if err := checkLen(n, omegaPhi, omegaTheta, omegaR, p, e, x); err != nil {
		return err
	}
	return ev.run("frequencies", n, func(i int) error {
		var (
			f   kerr.Frequencies
			err error
		)
		if a[i] == 0 {
			f, err = kerr.SchwarzschildCoordinateFrequencies(p[i], e[i])
		} else {
			f, err = kerr.CoordinateFrequencies(a[i], p[i], e[i], x[i])
		}
		if err != nil {
			nan(&omegaPhi[i], &omegaTheta[i], &omegaR[i])
			return err
		}
		omegaPhi[i], omegaTheta[i], omegaR[i] = f.OmegaPhi, f.OmegaTheta, f.OmegaR
		return nil
	})
}

// Separatrix fills out with p_sep(a, e, x).
func (ev *Evaluator) Separatrix(out, a, e, x []float64) error {
	n := len(a)
	if err := checkLen(n, out, e, x); err != nil {
		return err
	}
	return ev.run("separatrix", n, func(i int) error {
		ps, err := kerr.Separatrix(a[i], e[i], x[i])
		if err != nil {
			nan(&out[i])
			return err
		}
		out[i] = ps
		return nil
	})
}

// YToX fills out with the inclination cosine for each Y.
func (ev *Evaluator) YToX(out, a, p, e, y []float64) error {
	n := len(a)
	if err := checkLen(n, out, p, e, y); err != nil {
		return err
	}
	return ev.run("ytox", n, func(i int) error {
		x, err := kerr.YToX(a[i], p[i], e[i], y[i])
		if err != nil {
			nan(&out[i])
			return err
		}
		out[i] = x
		return nil
	})
}

// SpinCorrection fills the secondary-spin frequency shifts.
func (ev *Evaluator) SpinCorrection(dOmegaR, dOmegaPhi, a, p, e, x []float64) error {
	n := len(a)
	if err := checkLen(n, dOmegaR, dOmegaPhi, p, e, x); err != nil {
		return err
	}
	return ev.run("spin_correction", n, func(i int) error {
		s, err := kerr.SpinCorrection(a[i], p[i], e[i], x[i])
		if err != nil {
			nan(&dOmegaR[i], &dOmegaPhi[i])
			return err
		}
		dOmegaR[i], dOmegaPhi[i] = s.DeltaOmegaR, s.DeltaOmegaPhi
		return nil
	})
}
