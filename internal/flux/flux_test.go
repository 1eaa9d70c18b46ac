package flux

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/kerr"
	"github.com/san-kum/inspiral/internal/telemetry"
)

const eps = 1e-5

var _ = Describe("SchwarzschildEccentric", func() {
	var m *SchwarzschildEccentric

	BeforeEach(func() {
		var err error
		m, err = NewSchwarzschildEccentric(const2D(0), const2D(0), Options{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("reproduces the leading-order rates without corrections", func() {
		r, err := m.Derivative(eps, 0, 10, 0.3, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.PDot).To(BeWithinRel(-1.8399678116963876e-07, 1e-9))
		Expect(r.EDot).To(BeWithinRel(-9.61105622566092e-09, 1e-9))
		Expect(r.XDot).To(BeZero())
		Expect(r.OmegaTheta).To(Equal(r.OmegaPhi))
	})

	It("keeps circular orbits circular", func() {
		r, err := m.Derivative(eps, 0, 10, 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.PDot).To(BeWithinRel(-1.87411845943633e-07, 1e-9))
		Expect(r.EDot).To(BeZero())
		Expect(r.OmegaPhi).To(BeWithinRel(0.0316227766016838, 1e-12))
		Expect(r.OmegaR).To(BeWithinRel(0.02, 1e-12))
	})

	It("adds the tabulated corrections", func() {
		tm, err := NewSchwarzschildEccentric(const2D(0.5), const2D(-0.25), Options{})
		Expect(err).NotTo(HaveOccurred())
		r, err := tm.Derivative(eps, 0, 10, 0.3, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.PDot).To(BeWithinRel(-1.829999891954586e-07, 1e-9))
		Expect(r.EDot).To(BeWithinRel(-9.889822920137425e-09, 1e-9))
	})

	It("stops inside 6 + 2e", func() {
		r, err := m.Derivative(eps, 0, 6.5, 0.3, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(Rates{}))
		Expect(r.Stalled()).To(BeTrue())
	})

	It("rejects missing tables", func() {
		_, err := NewSchwarzschildEccentric(nil, const2D(0), Options{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("KerrEquatorialEccentric", func() {
	var m *KerrEquatorialEccentric

	BeforeEach(func() {
		var err error
		m, err = NewKerrEquatorialEccentric(const3D(1), const3D(1), Options{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("scales the regularized PN rates by the tables", func() {
		r, err := m.Derivative(eps, 0.9, 6, 0.2, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.PDot).To(BeWithinRel(1.538006e-06, 1e-2))
		Expect(r.EDot).To(BeWithinRel(3.98381e-07, 1e-2))
		Expect(r.OmegaPhi).To(BeWithinRel(0.06148956862407976, 1e-9))
		Expect(r.OmegaTheta).To(BeWithinRel(0.05570979555115404, 1e-9))
		Expect(r.OmegaR).To(BeWithinRel(0.03989086252523917, 1e-9))
	})

	It("pins ė to zero for circular orbits", func() {
		r, err := m.Derivative(eps, 0.9, 6, 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.PDot).To(BeWithinRel(1.576056e-06, 1e-2))
		Expect(r.EDot).To(BeZero())

		r, err = m.Derivative(eps, 0.9, 6, 5e-7, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.EDot).To(BeZero())
	})

	DescribeTable("returns exact zeros outside the evolving region",
		func(p, e float64) {
			for _, epsilon := range []float64{1e-6, eps, 1e-3, 0.1} {
				r, err := m.Derivative(epsilon, 0.9, p, e, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(r).To(Equal(Rates{}), "epsilon=%g", epsilon)
			}
		},
		Entry("inside the separatrix", 2.4, 0.2),
		Entry("negative eccentricity", 8.0, -0.1),
		Entry("just inside", 2.3, 0.0),
	)

	It("returns zeros exactly at the separatrix", func() {
		pSep, err := kerr.Separatrix(0.9, 0.4, 1)
		Expect(err).NotTo(HaveOccurred())
		r, err := m.Derivative(eps, 0.9, pSep, 0.4, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(Rates{}))
	})

	It("evolves retrograde orbits", func() {
		pSep, err := kerr.Separatrix(0.9, 0.2, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(pSep).To(BeNumerically("<", 12))

		r, err := m.Derivative(eps, 0.9, 12, 0.2, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Stalled()).To(BeFalse())
		Expect(r.PDot).To(BeNumerically(">", 0))
		Expect(r.EDot).To(BeNumerically(">", 0))
		Expect(r.OmegaPhi).To(BeNumerically("<", 0))
		Expect(math.IsInf(r.PDot, 0) || math.IsNaN(r.PDot)).To(BeFalse())
	})

	It("reports non-finite rates as numerical instability", func() {
		bad, err := NewKerrEquatorialEccentric(const3D(math.Inf(1)), const3D(1), Options{})
		Expect(err).NotTo(HaveOccurred())
		_, err = bad.Derivative(eps, 0.9, 8, 0.2, 1)
		Expect(errors.Is(err, dynamo.ErrNumericalInstability)).To(BeTrue())
	})

	It("only accepts equatorial orbits", func() {
		_, err := m.Derivative(eps, 0.9, 8, 0.2, 0.5)
		Expect(errors.Is(err, dynamo.ErrDomain)).To(BeTrue())
	})

	It("counts evaluations", func() {
		c := telemetry.FluxEvaluations.WithLabelValues(KerrEquatorialEccentricName, telemetry.OK)
		before := testutil.ToFloat64(c)
		_, err := m.Derivative(eps, 0.9, 8, 0.2, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(testutil.ToFloat64(c)).To(Equal(before + 1))
	})
})

var _ = Describe("PNLeading", func() {
	It("shrinks and circularizes the orbit", func() {
		m := NewPNLeading(Options{})
		r, err := m.Derivative(eps, 0.5, 10, 0.3, 0.7)
		Expect(err).NotTo(HaveOccurred())
		e2 := 0.09
		Expect(r.PDot).To(BeWithinRel(-eps*64/5*math.Pow(1-e2, 1.5)/1000*(1+7.0/8*e2), 1e-14))
		Expect(r.EDot).To(BeNumerically("<", 0))
		Expect(r.OmegaPhi).To(BeNumerically(">", 0))
	})

	It("uses the Schwarzschild frequencies without spin", func() {
		m := NewPNLeading(Options{})
		r, err := m.Derivative(eps, 0, 10, 0.3, -1)
		Expect(err).NotTo(HaveOccurred())
		s, _ := kerr.SchwarzschildCoordinateFrequencies(10, 0.3)
		Expect(r.OmegaPhi).To(Equal(-s.OmegaPhi))
		Expect(r.OmegaR).To(Equal(s.OmegaR))
	})

	It("stalls at the separatrix", func() {
		m := NewPNLeading(Options{})
		r, err := m.Derivative(eps, 0, 6.5, 0.3, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Stalled()).To(BeTrue())
	})

	It("shifts the frequencies by the secondary spin", func() {
		plain := NewPNLeading(Options{})
		spun := NewPNLeading(Options{SecondarySpin: 0.5})
		r0, err := plain.Derivative(eps, 0.9, 10, 0.1, 1)
		Expect(err).NotTo(HaveOccurred())
		r1, err := spun.Derivative(eps, 0.9, 10, 0.1, 1)
		Expect(err).NotTo(HaveOccurred())

		Expect(r1.OmegaR - r0.OmegaR).To(BeWithinRel(eps*0.5*0.0013532812299746357, 1e-6))
		Expect(r1.OmegaPhi - r0.OmegaPhi).To(BeWithinRel(eps*0.5*-0.001019631248523548, 1e-6))
		Expect(r1.PDot).To(Equal(r0.PDot))
	})
})

var _ = Describe("Model lifecycle", func() {
	It("refuses evaluation after Close", func() {
		m, _ := NewKerrEquatorialEccentric(const3D(1), const3D(1), Options{})
		Expect(m.Close()).To(Succeed())
		Expect(m.Close()).To(Succeed())
		_, err := m.Derivative(eps, 0.9, 8, 0.2, 1)
		Expect(errors.Is(err, dynamo.ErrClosed)).To(BeTrue())
	})

	It("enforces the sanity check in strict mode only", func() {
		lax := NewPNLeading(Options{})
		_, err := lax.Derivative(eps, 0.5, 10, 0.2, 1.2)
		Expect(errors.Is(err, dynamo.ErrSanity)).To(BeFalse())

		strict := NewPNLeading(Options{StrictSanity: true})
		_, err = strict.Derivative(eps, 0.5, 10, 0.2, 1.2)
		Expect(errors.Is(err, dynamo.ErrSanity)).To(BeTrue())
	})
})

var _ = Describe("Registry", func() {
	It("lists the built-in models", func() {
		Expect(NewRegistry().List()).To(Equal([]string{
			KerrEquatorialEccentricName, PNLeadingName, SchwarzschildEccentricName,
		}))
	})

	It("builds table-free models without a directory", func() {
		r := NewRegistry()
		Expect(r.NeedsTables(PNLeadingName)).To(BeFalse())
		m, err := r.New(PNLeadingName, "", Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Name()).To(Equal(PNLeadingName))
	})

	It("fails for unknown names and missing tables", func() {
		r := NewRegistry()
		_, err := r.New("nope", "", Options{})
		Expect(err).To(MatchError(ContainSubstring("unknown flux model")))

		m, err := r.New(SchwarzschildEccentricName, GinkgoT().TempDir(), Options{})
		Expect(err).To(HaveOccurred())
		Expect(m).To(BeNil())
	})
})

var _ = Describe("System", func() {
	It("advances the phases at the orbital frequencies", func() {
		sys := NewSystem(NewPNLeading(Options{}), eps, 0.5)
		Expect(sys.StateDim()).To(Equal(6))

		x := dynamo.State{10, 0.3, 0.7, 0, 0, 0}
		dx, err := sys.Derive(x, 0)
		Expect(err).NotTo(HaveOccurred())
		r, _ := sys.Rates(x)
		Expect(dx).To(Equal(dynamo.State{r.PDot, r.EDot, r.XDot, r.OmegaPhi, r.OmegaTheta, r.OmegaR}))
	})

	It("freezes at the separatrix", func() {
		sys := NewSystem(NewPNLeading(Options{}), eps, 0)
		dx, err := sys.Derive(dynamo.State{6, 0, 1, 1, 1, 1}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dx).To(Equal(dynamo.State{0, 0, 0, 0, 0, 0}))
	})

	It("rejects short states", func() {
		sys := NewSystem(NewPNLeading(Options{}), eps, 0)
		_, err := sys.Derive(dynamo.State{10}, 0)
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})
})
