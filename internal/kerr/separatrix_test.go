package kerr

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/inspiral/internal/dynamo"
)

var _ = Describe("Separatrix", func() {
	It("is 6+2e for Schwarzschild", func() {
		for _, e := range []float64{0, 0.1, 0.35, 0.5, 0.99} {
			for _, x := range []float64{-1, 0, 0.3, 1} {
				ps, err := Separatrix(0, e, x)
				Expect(err).NotTo(HaveOccurred())
				Expect(ps).To(Equal(6 + 2*e))
			}
		}
	})

	DescribeTable("circular equatorial closed form",
		func(a, x, want float64) {
			ps, err := Separatrix(a, 0, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(ps).To(BeWithinRel(want, 1e-14))
		},
		Entry("prograde a=0.9", 0.9, 1.0, 2.320883041761887),
		Entry("retrograde a=0.9", 0.9, -1.0, 8.717352279606489),
		Entry("prograde a=0.5", 0.5, 1.0, 4.233002529530826),
	)

	It("reaches the extremal Kerr limits", func() {
		ps, err := Separatrix(1, 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(ps).To(BeNumerically("~", 1, 1e-12))
		ps, err = Separatrix(1, 0, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(ps).To(BeNumerically("~", 9, 1e-12))
	})

	DescribeTable("root-found values",
		func(a, e, x, want float64) {
			ps, err := Separatrix(a, e, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(ps).To(BeWithinRel(want, 1e-3))
		},
		Entry("prograde equatorial", 0.9, 0.2, 1.0, 2.50076200451877),
		Entry("prograde equatorial a=0.5", 0.5, 0.3, 1.0, 4.679159179582817),
		Entry("prograde inclined", 0.5, 0.3, 0.5, 5.51756688686757),
		Entry("retrograde inclined", 0.5, 0.3, -0.5, 7.350145098229159),
		Entry("retrograde equatorial", 0.9, 0.2, -1.0, 9.28203035307402),
		Entry("polar", 0.5, 0.3, 0.0, 6.41982904109904),
		Entry("near extremal", 0.99, 0.5, 0.3, 4.707030715410122),
		Entry("steep prograde", 0.7, 0.4, 0.8, 4.334916383799642),
		Entry("steep retrograde", 0.7, 0.4, -0.8, 8.629351391478638),
	)

	It("is non-decreasing in e", func() {
		for _, a := range []float64{0.3, 0.7, 0.9} {
			for _, x := range []float64{1, 0.7, 0.3, 0, -0.3, -0.7, -1} {
				prev := 0.0
				for i := 0; i < 19; i++ {
					e := 0.05 * float64(i)
					ps, err := Separatrix(a, e, x)
					Expect(err).NotTo(HaveOccurred(), "a=%g e=%g x=%g", a, e, x)
					Expect(ps).To(BeNumerically(">=", prev), "a=%g e=%g x=%g", a, e, x)
					prev = ps
				}
			}
		}
	})

	It("orders prograde below polar below retrograde", func() {
		pro, _ := Separatrix(0.7, 0.3, 0.6)
		polar, _ := Separatrix(0.7, 0.3, 0)
		retro, _ := Separatrix(0.7, 0.3, -0.6)
		Expect(pro).To(BeNumerically("<", polar))
		Expect(polar).To(BeNumerically("<", retro))
	})

	DescribeTable("approaches 6+2e at tiny spin",
		func(a, e, x, want float64) {
			ps, err := Separatrix(a, e, x)
			Expect(err).NotTo(HaveOccurred())
			Expect(ps).To(BeNumerically("~", want, 1e-3))
			Expect(ps).To(BeNumerically("~", 6+2*e, 1e-2))
		},
		Entry("a=1e-4 e=0.3 x=0.5", 1e-4, 0.3, 0.5, 6.59997),
		Entry("a=1e-3 e=0.6 x=0.5", 1e-3, 0.6, 0.5, 7.19938),
		Entry("a=1e-3 e=0.3 x=0.1", 1e-3, 0.3, 0.1, 6.59995),
	)
})

var _ = Describe("Y to x conversion", func() {
	It("inverts the forward map", func() {
		x, err := YToX(0.5, 10, 0.2, 0.9)
		Expect(err).NotTo(HaveOccurred())
		Expect(x).To(BeWithinRel(0.9001416999590617, 1e-4))

		y, err := XToY(0.5, 10, 0.2, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(y).To(BeNumerically("~", 0.9, 1e-4))
	})

	It("handles retrograde inclinations", func() {
		x, err := YToX(0.5, 10, 0.2, -0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(x).To(BeWithinRel(-0.5002483760364238, 1e-3))
	})

	It("passes near-equatorial values through", func() {
		for _, y := range []float64{0.999, -0.9995, 1, -1} {
			x, err := YToX(0.5, 10, 0.2, y)
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(Equal(y))
		}
	})

	It("is the identity without spin", func() {
		x, err := YToX(0, 10, 0.2, 0.4)
		Expect(err).NotTo(HaveOccurred())
		Expect(x).To(BeNumerically("~", 0.4, 1e-3))
	})
})

var _ = Describe("Sanity check", func() {
	DescribeTable("domain",
		func(g Geometry, bad bool) {
			err := SanityCheck(g)
			if bad {
				Expect(errors.Is(err, dynamo.ErrSanity)).To(BeTrue())
			} else {
				Expect(err).NotTo(HaveOccurred())
			}
		},
		Entry("nominal", Geometry{A: 0.5, P: 10, E: 0.2, X: 0.5}, false),
		Entry("negative p", Geometry{A: 0.5, P: -1, E: 0.2, X: 0.5}, true),
		Entry("hyperbolic", Geometry{A: 0.5, P: 10, E: 1.2, X: 0.5}, true),
		Entry("negative e", Geometry{A: 0.5, P: 10, E: -0.1, X: 0.5}, true),
		Entry("x beyond 1", Geometry{A: 0.5, P: 10, E: 0.2, X: -1.1}, true),
		Entry("super-extremal", Geometry{A: 1.1, P: 10, E: 0.2, X: 0.5}, true),
	)

	It("is advisory unless strict", func() {
		g := Geometry{A: 0.5, P: 10, E: 1.5, X: 0.5}
		Expect(CheckSanity(g, false)).To(Succeed())
		Expect(errors.Is(CheckSanity(g, true), dynamo.ErrSanity)).To(BeTrue())
	})
})

var _ = Describe("Secondary spin correction", func() {
	DescribeTable("reference values",
		func(a, p, e, dR, dPhi float64) {
			s, err := SpinCorrection(a, p, e, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.DeltaOmegaR).To(BeWithinRel(dR, 1e-8))
			Expect(s.DeltaOmegaPhi).To(BeWithinRel(dPhi, 1e-8))
		},
		Entry("a=0.9 p=10 e=0.1", 0.9, 10.0, 0.1, 0.0013532812299746357, -0.001019631248523548),
		Entry("a=0.5 p=8 e=0.3", 0.5, 8.0, 0.3, 0.0033657199243319154, -0.0026592837591306517),
	)

	It("is finite and small compared to the frequencies", func() {
		s, err := SpinCorrection(0.9, 10, 0.1, 1)
		Expect(err).NotTo(HaveOccurred())
		f, _ := CoordinateFrequencies(0.9, 10, 0.1, 1)
		Expect(math.Abs(s.DeltaOmegaR)).To(BeNumerically("<", f.OmegaR))
		Expect(math.Abs(s.DeltaOmegaPhi)).To(BeNumerically("<", f.OmegaPhi))
	})
})
