package kerr

import "math"

var pow = math.Pow

// separatrixFull vanishes on the separatrix of a generic inclined orbit
// (Stein & Warburton 2020).
func separatrixFull(p, a, e, x float64) float64 {
	return -4*(3 + e)*pow(p, 11) +
		pow(p, 12) +
		pow(a, 12)*pow(-1 + e, 4)*pow(1 + e, 8)*pow(-1 + x, 4)*pow(1 + x, 4) -
		4*pow(a, 10)*(-3 + e)*pow(-1 + e, 3)*pow(1 + e, 7)*p*pow(-1 + pow(x, 2), 4) -
		4*pow(a, 8)*(-1 + e)*pow(1 + e, 5)*pow(p, 3)*pow(-1 + x, 3)*pow(1 + x, 3)*(7 - 7*pow(x, 2) - pow(e, 2)*(-13 + pow(x, 2)) + pow(e, 3)*(-5 + pow(x, 2)) + 7*e*(-1 + pow(x, 2))) +
		8*pow(a, 6)*(-1 + e)*pow(1 + e, 3)*pow(p, 5)*pow(-1 + pow(x, 2), 2)*(3 + e + 12*pow(x, 2) + 4*e*pow(x, 2) + pow(e, 3)*(-5 + 2*pow(x, 2)) + pow(e, 2)*(1 + 2*pow(x, 2))) -
		8*pow(a, 4)*pow(1 + e, 2)*pow(p, 7)*(-1 + x)*(1 + x)*(-3 + e + 15*pow(x, 2) - 5*e*pow(x, 2) + pow(e, 3)*(-5 + 3*pow(x, 2)) + pow(e, 2)*(-1 + 3*pow(x, 2))) +
		4*pow(a, 2)*pow(p, 9)*(-7 - 7*e + pow(e, 3)*(-5 + 4*pow(x, 2)) + pow(e, 2)*(-13 + 12*pow(x, 2))) +
		2*pow(a, 8)*pow(-1 + e, 2)*pow(1 + e, 6)*pow(p, 2)*pow(-1 + pow(x, 2), 3)*(2*pow(-3 + e, 2)*(-1 + pow(x, 2)) + pow(a, 2)*(pow(e, 2)*(-3 + pow(x, 2)) - 3*(1 + pow(x, 2)) + 2*e*(1 + pow(x, 2)))) -
		2*pow(p, 10)*(-2*pow(3 + e, 2) + pow(a, 2)*(-3 + 6*pow(x, 2) + pow(e, 2)*(-3 + 2*pow(x, 2)) + e*(-2 + 4*pow(x, 2)))) +
		pow(a, 6)*pow(1 + e, 4)*pow(p, 4)*pow(-1 + pow(x, 2), 2)*(-16*pow(-1 + e, 2)*(-3 - 2*e + pow(e, 2))*(-1 + pow(x, 2)) + pow(a, 2)*(15 + 6*pow(x, 2) + 9*pow(x, 4) + pow(e, 2)*(26 + 20*pow(x, 2) - 2*pow(x, 4)) + pow(e, 4)*(15 - 10*pow(x, 2) + pow(x, 4)) + 4*pow(e, 3)*(-5 - 2*pow(x, 2) + pow(x, 4)) - 4*e*(5 + 2*pow(x, 2) + 3*pow(x, 4)))) -
		4*pow(a, 4)*pow(1 + e, 2)*pow(p, 6)*(-1 + x)*(1 + x)*(-2*(11 - 14*pow(e, 2) + 3*pow(e, 4))*(-1 + pow(x, 2)) + pow(a, 2)*(5 - 5*pow(x, 2) - 9*pow(x, 4) + 4*pow(e, 3)*pow(x, 2)*(-2 + pow(x, 2)) + pow(e, 4)*(5 - 5*pow(x, 2) + pow(x, 4)) + pow(e, 2)*(6 - 6*pow(x, 2) + 4*pow(x, 4)))) +
		pow(a, 2)*pow(p, 8)*(-16*pow(1 + e, 2)*(-3 + 2*e + pow(e, 2))*(-1 + pow(x, 2)) + pow(a, 2)*(15 - 36*pow(x, 2) + 30*pow(x, 4) + pow(e, 4)*(15 - 20*pow(x, 2) + 6*pow(x, 4)) + 4*pow(e, 3)*(5 - 12*pow(x, 2) + 6*pow(x, 4)) + 4*e*(5 - 12*pow(x, 2) + 10*pow(x, 4)) + pow(e, 2)*(26 - 72*pow(x, 2) + 44*pow(x, 4))))
}

// separatrixPolar is the x = 0 specialization.
func separatrixPolar(p, a, e float64) float64 {
	return pow(a, 6)*pow(-1 + e, 2)*pow(1 + e, 4) +
		pow(p, 5)*(-6 - 2*e + p) +
		pow(a, 2)*pow(p, 3)*(-4*(-1 + e)*pow(1 + e, 2) + (3 + e*(2 + 3*e))*p) -
		pow(a, 4)*pow(1 + e, 2)*p*(6 + 2*pow(e, 3) + 2*e*(-1 + p) - 3*p - 3*pow(e, 2)*(2 + p))
}

// separatrixEquatorial is the |x| = 1 specialization; its smaller root in
// [1+e, 6+2e] is the prograde separatrix.
func separatrixEquatorial(p, a, e float64) float64 {
	return pow(a, 4)*pow(-3 - 2*e + pow(e, 2), 2) +
		pow(p, 2)*pow(-6 - 2*e + p, 2) -
		2*pow(a, 2)*(1 + e)*p*(14 + 2*pow(e, 2) + 3*p - e*p)
}
