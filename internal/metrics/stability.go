package metrics

import (
	"math"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/flux"
	"github.com/san-kum/inspiral/internal/kerr"
)

// SeparatrixMargin tracks the smallest p - p_sep seen along the trajectory.
// Samples whose separatrix cannot be computed are counted as failures and
// otherwise ignored.
type SeparatrixMargin struct {
	spin     float64
	min      float64
	samples  int
	failures int
}

func NewSeparatrixMargin(spin float64) *SeparatrixMargin {
	return &SeparatrixMargin{spin: spin, min: math.Inf(1)}
}

func (s *SeparatrixMargin) Name() string { return "separatrix_margin" }

func (s *SeparatrixMargin) Observe(x dynamo.State, t float64) {
	if len(x) <= flux.IdxX {
		return
	}
	pSep, err := kerr.Separatrix(s.spin, x[flux.IdxE], x[flux.IdxX])
	if err != nil {
		s.failures++
		return
	}
	s.min = math.Min(s.min, x[flux.IdxP]-pSep)
	s.samples++
}

func (s *SeparatrixMargin) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.min
}

func (s *SeparatrixMargin) Failures() int { return s.failures }

func (s *SeparatrixMargin) Reset() {
	s.min = math.Inf(1)
	s.samples = 0
	s.failures = 0
}

// Standard returns the metrics recorded for every stored run.
func Standard(spin, mass float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewAzimuthalCycles(),
		NewRadialCycles(),
		NewPDrop(),
		NewFinalEccentricity(),
		NewSeparatrixMargin(spin),
		NewDuration(mass),
	}
}
