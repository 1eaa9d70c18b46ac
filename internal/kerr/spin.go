package kerr

import (
	"fmt"
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/log"
)

// SpinShift is the first-order change of the coordinate frequencies due to
// the spin of the secondary, per unit secondary spin.
type SpinShift struct {
	DeltaOmegaR   float64 `json:"delta_omega_r"`
	DeltaOmegaPhi float64 `json:"delta_omega_phi"`
}

// SpinCorrection computes the secondary-spin corrections (δΩ_r, δΩ_φ) of an
// equatorial orbit. The radial integrals I_t, I_φ and their linear shifts are
// built from the Q = 0 radial roots and the same five elliptic integrals as
// the radial frequency. a must be nonzero.
func SpinCorrection(a, p, e, x float64) (SpinShift, error) {
	c, err := ConstantsOfMotion(a, p, e, x)
	if err != nil {
		return SpinShift{}, err
	}
	en := c.E
	xi := c.L - a*en

	rr, err := Roots(a, p, e, x, en, 0)
	if err != nil {
		return SpinShift{}, err
	}
	r1, r2, r3, r4 := rr.R1, rr.R2, rr.R3, rr.R4
	rp, rm := horizons(a)

	a2 := a * a
	r12, r22 := r1*r1, r2*r2
	den := r12 * r22 * (a*en*en*r1*r2*(r1+r2) + en*(r12*(r2-2)+r1*(r2-2)*r2-2*r22)*xi + 2*a*xi*xi)
	dEn := xi * (-(a * en * en * r12 * r22) - en*r12*r22*xi + a2*en*(r12+r1*r2+r22)*xi + a*(r12+r1*(r2-2)+(r2-2)*r2)*xi*xi) / den
	dXi := (r12 + r1*r2 + r22) * xi * (en*r22 - a*xi) * (-(en * r12) + a*xi) / den

	// δR_t(r) = am1/r + a0 + a1 r + a2 r².
	am1 := -2 * a * xi * xi / (r1 * r2)
	c0 := -2*en*(-(a*dXi)+dEn*r12+dEn*r1*r2+dEn*r22) + 2*(a*dEn+dXi)*xi
	c1 := -2 * dEn * en * (r1 + r2)
	c2 := -2 * dEn * en

	set, err := radialElliptic(radialParameters(a, rr))
	if err != nil {
		return SpinShift{}, wrap("SpinCorrection", a, p, e, x, err)
	}
	ek, ee, pr, pp, pm := set.K, set.E, set.PiR, set.PiP, set.PiM

	bigP := func(r float64) float64 { return en*r*r - a*xi }
	dBigP := func(r float64) float64 { return dEn*r*r - xi/r - a*dXi }
	dRt := func(r float64) float64 { return am1/r + c0 + r*(c1+r*c2) }
	dlt := func(r float64) float64 { return delta(r, a) }

	sq := math.Sqrt((1 - en*en) * (r1 - r3) * (r2 - r4))
	outer := math.Pow(1-en*en, 1.5) * math.Sqrt((r1-r3)*(r2-r4))
	r32 := r3 * r3
	hornDen := (r3 - rm) * (r3 - rm) * (r3 - rp) * (r3 - rp)

	vtr3 := a*xi + (a2+r32)*bigP(r3)/dlt(r3)
	dVtr3 := a*dXi + (r32+a2)/dlt(r3)*dBigP(r3)

	dIt1 := 2 * (dEn*pr*(r2-r3)*(4+r1+r2+r3)/2 +
		ee*(r1-r3)*(dEn*r1*r2*r3+2*xi)/(2*r1*r3) +
		(r2-r3)*(pm*(a2+rm*rm)*dBigP(rm)/((r2-rm)*(r3-rm))-pp*(a2+rp*rp)*dBigP(rp)/((r2-rp)*(r3-rp)))/(rp-rm) +
		ek*(-0.5*(dEn*(r1-r3)*(r2-r3))+dVtr3)) / sq

	cK := ek * (-0.5*(c2*en*(r1-r3)*(r2-r3)) +
		(a2*a2*en*r3*(-am1+r32*(c1+2*c2*r3))+
			2*a2*en*r32*(-(am1*(r3-2))+c0*r3+r3*r32*(c1-c2+2*c2*r3))+
			en*r32*r32*r3*(-2*c0-am1+r3*(c1*(r3-4)+2*c2*(r3-3)*r3))+
			2*a2*a*(2*am1+c0*r3-c2*r3*r32)*xi+
			2*a*r3*(am1*(4*r3-6)+r3*(2*c1*(r3-1)*r3+c2*r3*r32+c0*(3*r3-4)))*xi)/(r32*hornDen))
	cEPi := en * (c2*ee*r2*(r1-r3) + pr*(r2-r3)*(2*c1+c2*(4+r1+r2+3*r3))) / 2
	cPi := (r3 - r2) * (pm*(a2+rm*rm)*bigP(rm)*dRt(rm)/((r2-rm)*(r3-rm)*(r3-rm)*rm) -
		pp*(a2+rp*rp)*bigP(rp)*dRt(rp)/((r2-rp)*(r3-rp)*(r3-rp)*rp)) / (rp - rm)
	cE := ee * (2*am1*(r3-r1)*xi/(a*r1) + r2*vtr3*dRt(r3)/(r2-r3)) / r32

	dIt := dIt1 - (cE+cEPi+cK+cPi)/outer
	it := 2 * (en*(ee*r2*(r1-r3)+pr*(r2-r3)*(4+r1+r2+r3))/2 +
		(r2-r3)*(pm*(a2+rm*rm)*bigP(rm)/((r2-rm)*(r3-rm))-pp*(a2+rp*rp)*bigP(rp)/((r2-rp)*(r3-rp)))/(rp-rm) +
		ek*(-0.5*(en*(r1-r3)*(r2-r3))+vtr3)) / sq

	vPhir3 := xi + a/dlt(r3)*bigP(r3)
	dVPhir3 := dXi + a/dlt(r3)*dBigP(r3)

	dIPhi1 := 2 * (ee*(r1-r3)*xi/(a*r1*r3) +
		a*(r2-r3)*(pm*dBigP(rm)/((r2-rm)*(r3-rm))-pp*dBigP(rp)/((r2-rp)*(r3-rp)))/(rp-rm) +
		ek*dVPhir3) / sq
	dK := ek * (-(a * en * r32 * (2*c0*(r3-1)*r3 + (c1+2*c2)*r3*r32 + am1*(3*r3-4))) -
		a2*a*en*r3*(am1-r32*(c1+2*c2*r3)) -
		a2*(am1*(r3-4)-2*c0*r3-(c1+2*c2*(r3-1))*r3*r32)*xi -
		(r3-2)*(r3-2)*r3*(3*am1+r3*(2*c0+c1*r3))*xi) / (r32 * hornDen)
	dPi := -(a * (r2 - r3) * (pm*bigP(rm)*dRt(rm)/((r2-rm)*(r3-rm)*(r3-rm)*rm) -
		pp*bigP(rp)*dRt(rp)/((r2-rp)*(r3-rp)*(r3-rp)*rp)) / (rp - rm))
	dE := ee * (-2*am1*(r1-r3)*xi/(a2*r1) + r2*vPhir3*dRt(r3)/(r2-r3)) / r32

	dIPhi := dIPhi1 - (dE+dK+dPi)/outer
	iPhi := 2 * (a*(r2-r3)*(pm*bigP(rm)/((r2-rm)*(r3-rm))-pp*bigP(rp)/((r2-rp)*(r3-rp)))/(rp-rm) +
		ek*vPhir3) / sq

	log.Debug("msg", "secondary spin correction",
		"a", a, "p", p, "e", e, "x", x,
		"En", en, "xi", xi, "r3", r3,
		"It", it, "dIt", dIt, "IPhi", iPhi, "dIPhi", dIPhi)

	shift := SpinShift{
		DeltaOmegaR:   -math.Pi / (it * it) * dIt,
		DeltaOmegaPhi: dIPhi/it - iPhi/(it*it)*dIt,
	}
	if !finite(shift.DeltaOmegaR) || !finite(shift.DeltaOmegaPhi) {
		return SpinShift{}, wrap("SpinCorrection", a, p, e, x,
			fmt.Errorf("%w: δΩr=%g δΩφ=%g", dynamo.ErrNumericalInstability, shift.DeltaOmegaR, shift.DeltaOmegaPhi))
	}
	return shift, nil
}
