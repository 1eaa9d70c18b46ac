package kerr

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/inspiral/internal/dynamo"
)

var _ = Describe("Constants of motion", func() {
	It("reproduces the inclined reference orbit", func() {
		c, err := ConstantsOfMotion(0.5, 10, 0.2, math.Cos(0.4))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.E).To(BeWithinRel(0.955640367841786, 1e-10))
		Expect(c.L).To(BeWithinRel(3.3248258471375443, 1e-10))
		Expect(c.Q).To(BeWithinRel(1.9793202414007078, 1e-10))
	})

	It("flips L for retrograde orbits", func() {
		c, err := ConstantsOfMotion(0.5, 10, 0.2, -math.Cos(0.4))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.E).To(BeWithinRel(0.960274727582156, 1e-10))
		Expect(c.L).To(BeWithinRel(-3.679978265360276, 1e-10))
		Expect(c.Q).To(BeWithinRel(2.4236832817294003, 1e-10))
	})

	It("uses the circular closed form for e = 0 equatorial orbits", func() {
		c, err := ConstantsOfMotion(0.7, 8, 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.E).To(BeWithinRel(0.9422747273832318, 1e-12))
		Expect(c.L).To(BeWithinRel(3.2277455123385392, 1e-12))
		Expect(c.Q).To(BeZero())

		c, err = ConstantsOfMotion(0.7, 8, 0, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.E).To(BeWithinRel(0.958217222147658, 1e-12))
		Expect(c.L).To(BeWithinRel(-4.031192791900903, 1e-12))
	})

	It("reports exactly polar orbits as out of domain", func() {
		_, err := ConstantsOfMotion(0.5, 10, 0.2, 0)
		Expect(errors.Is(err, dynamo.ErrDomain)).To(BeTrue())
		var ge *GeometryError
		Expect(errors.As(err, &ge)).To(BeTrue())
		Expect(ge.Geo.P).To(Equal(10.0))
	})

	It("orders the radial roots", func() {
		c, _ := ConstantsOfMotion(0.5, 10, 0.2, math.Cos(0.4))
		rr, err := Roots(0.5, 10, 0.2, math.Cos(0.4), c.E, c.Q)
		Expect(err).NotTo(HaveOccurred())
		Expect(rr.R1).To(BeWithinRel(12.5, 1e-14))
		Expect(rr.R2).To(BeWithinRel(8.333333333333334, 1e-14))
		Expect(rr.R3).To(BeWithinRel(2.196091983567218, 1e-9))
		Expect(rr.R4).To(BeWithinRel(0.024934453358380092, 1e-8))
		Expect(rr.R1 >= rr.R2 && rr.R2 >= rr.R3 && rr.R3 >= rr.R4).To(BeTrue())
	})

	It("flags unbound energies as numerically unstable", func() {
		_, err := Roots(0.5, 10, 0.2, 0.5, 1, 1)
		Expect(errors.Is(err, dynamo.ErrNumericalInstability)).To(BeTrue())
	})
})

var _ = Describe("Frequencies", func() {
	const tol = 1e-6

	It("reproduces the round-trip reference tuple", func() {
		a, p, e, x := 0.5, 10.0, 0.2, math.Cos(0.4)

		m, err := MinoFrequenciesGeneric(a, p, e, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Gamma).To(BeWithinRel(124.84586412342075, tol))
		Expect(m.UpsilonPhi).To(BeWithinRel(3.7192608901217166, tol))
		Expect(m.UpsilonTheta).To(BeWithinRel(3.612553336604997, tol))
		Expect(m.UpsilonR).To(BeWithinRel(2.6506777697998967, tol))

		f, err := CoordinateFrequencies(a, p, e, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.OmegaPhi).To(BeWithinRel(0.0297908217964266, tol))
		Expect(f.OmegaTheta).To(BeWithinRel(0.028936107431109456, tol))
		Expect(f.OmegaR).To(BeWithinRel(0.021231602571787852, tol))
	})

	It("keeps Ω_θ positive on retrograde orbits", func() {
		f, err := CoordinateFrequencies(0.5, 10, 0.2, -math.Cos(0.4))
		Expect(err).NotTo(HaveOccurred())
		Expect(f.OmegaPhi).To(BeWithinRel(-0.030921435232763767, tol))
		Expect(f.OmegaTheta).To(BeWithinRel(0.032011244742310874, tol))
		Expect(f.OmegaR).To(BeWithinRel(0.01626996730226114, tol))
	})

	DescribeTable("equatorial fast path is continuous with the generic path",
		func(a, p, e, x, near float64) {
			eq, err := CoordinateFrequencies(a, p, e, x)
			Expect(err).NotTo(HaveOccurred())
			gen, err := CoordinateFrequencies(a, p, e, near)
			Expect(err).NotTo(HaveOccurred())
			Expect(gen.OmegaPhi).To(BeWithinRel(eq.OmegaPhi, tol))
			Expect(gen.OmegaTheta).To(BeWithinRel(eq.OmegaTheta, tol))
			Expect(gen.OmegaR).To(BeWithinRel(eq.OmegaR, tol))
		},
		Entry("prograde", 0.7, 8.0, 0.3, 1.0, 0.999999),
		Entry("retrograde", 0.7, 12.0, 0.3, -1.0, -0.999999),
		Entry("high spin", 0.9, 10.0, 0.5, 1.0, 0.9999999),
	)

	It("reproduces the equatorial references", func() {
		f, err := CoordinateFrequencies(0.7, 8, 0.3, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.OmegaPhi).To(BeWithinRel(0.03859839674348418, 1e-9))
		Expect(f.OmegaTheta).To(BeWithinRel(0.03656286972178413, 1e-9))
		Expect(f.OmegaR).To(BeWithinRel(0.026515557073926246, 1e-9))

		f, err = CoordinateFrequencies(0.7, 12, 0.3, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.OmegaPhi).To(BeWithinRel(-0.022280881656893795, 1e-9))
		Expect(f.OmegaTheta).To(BeWithinRel(0.02315457232357019, 1e-9))
		Expect(f.OmegaR).To(BeWithinRel(0.01320216374948617, 1e-9))
	})

	It("matches the circular closed form", func() {
		a, p := 0.7, 8.0
		f, err := CoordinateFrequencies(a, p, 0, 1)
		Expect(err).NotTo(HaveOccurred())

		sp := math.Sqrt(p)
		den := math.Sqrt(2*a + (p-3)*sp)
		gamma := math.Pow(p, 1.25) * (a + math.Pow(p, 1.5)) / den
		upsPhi := math.Pow(p, 1.25) / den
		Expect(f.OmegaPhi).To(BeWithinRel(upsPhi/gamma, 1e-12))
		Expect(f.OmegaPhi).To(BeWithinRel(0.0428680123516051, 1e-12))
		Expect(f.OmegaTheta).To(BeWithinRel(0.04065065509269883, 1e-12))
		Expect(f.OmegaR).To(BeWithinRel(0.029529764133816708, 1e-12))

		f, err = CoordinateFrequencies(a, 12, 0, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.OmegaPhi).To(BeWithinRel(-0.02446829215556093, 1e-12))
		Expect(f.OmegaTheta).To(BeWithinRel(0.025399523547319017, 1e-12))
		Expect(f.OmegaR).To(BeWithinRel(0.014580240446636222, 1e-12))
	})

	It("equatorial Mino frequencies satisfy Υ_θ² = L² + a²(1-E²)", func() {
		m, err := EquatorialMinoFrequencies(0.7, 8, 0.3, 1)
		Expect(err).NotTo(HaveOccurred())
		c, _ := ConstantsOfMotion(0.7, 8, 0.3, 1)
		Expect(m.UpsilonTheta * m.UpsilonTheta).To(BeWithinRel(c.L*c.L+0.49*(1-c.E*c.E), 1e-12))
	})

	It("gives positive radial and polar frequencies above the separatrix", func() {
		for _, a := range []float64{0.1, 0.5, 0.9} {
			for _, x := range []float64{0.1, 0.5, 0.9, 1, -0.1, -0.5, -0.9, -1} {
				for _, e := range []float64{0.1, 0.4} {
					ps, err := Separatrix(a, e, x)
					Expect(err).NotTo(HaveOccurred())
					for _, dp := range []float64{2, 5, 20} {
						f, err := CoordinateFrequencies(a, ps+dp, e, x)
						Expect(err).NotTo(HaveOccurred(), "a=%g e=%g x=%g p=%g", a, e, x, ps+dp)
						Expect(f.OmegaR).To(BeNumerically(">", 0))
						Expect(f.OmegaTheta).To(BeNumerically(">", 0))
						Expect(math.Signbit(f.OmegaPhi)).To(Equal(math.Signbit(x)))
					}
				}
			}
		}
	})

	It("fails inside the separatrix instead of returning NaN", func() {
		_, err := CoordinateFrequencies(0.5, 2.5, 0.2, 0.5)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Schwarzschild frequencies", func() {
	DescribeTable("closed form references",
		func(p, e, omegaPhi, omegaR float64) {
			f, err := SchwarzschildCoordinateFrequencies(p, e)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.OmegaPhi).To(BeWithinRel(omegaPhi, 1e-10))
			Expect(f.OmegaR).To(BeWithinRel(omegaR, 1e-10))
			Expect(f.OmegaTheta).To(Equal(f.OmegaPhi))
		},
		Entry("p=10 e=0.3", 10.0, 0.3, 0.028647063536724082, 0.018040932375289653),
		Entry("p=8 e=0.1", 8.0, 0.1, 0.04386152870995506, 0.02188949554303604),
		Entry("p=12 e=0.5", 12.0, 0.5, 0.01708318226982331, 0.012016081014999461),
		Entry("p=20 e=0.7", 20.0, 0.7, 0.004450601337270605, 0.003716633171710043),
		Entry("p=7.5 e=0.05", 7.5, 0.05, 0.04861446542672184, 0.021722903323522297),
	)

	DescribeTable("agrees with the generic path at a = 0",
		func(p, e, x float64) {
			s, err := SchwarzschildCoordinateFrequencies(p, e)
			Expect(err).NotTo(HaveOccurred())
			g, err := CoordinateFrequencies(0, p, e, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(math.Abs(g.OmegaPhi)).To(BeWithinRel(s.OmegaPhi, 1e-8))
			Expect(g.OmegaTheta).To(BeWithinRel(s.OmegaPhi, 1e-8))
			Expect(g.OmegaR).To(BeWithinRel(s.OmegaR, 1e-8))
		},
		Entry("p=10 e=0.3 x=0.5", 10.0, 0.3, 0.5),
		Entry("p=8 e=0.1 x=0.5", 8.0, 0.1, 0.5),
		Entry("p=12 e=0.5 x=-0.3", 12.0, 0.5, -0.3),
		Entry("p=20 e=0.7 x=0.5", 20.0, 0.7, 0.5),
		Entry("p=7.5 e=0.05 x=-0.3", 7.5, 0.05, -0.3),
	)

	It("rejects plunging orbits", func() {
		_, err := SchwarzschildCoordinateFrequencies(6, 0.2)
		Expect(errors.Is(err, dynamo.ErrSpecialFunction)).To(BeTrue())
	})
})
