package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/trajectory"
)

func TestCycles(t *testing.T) {
	m := NewAzimuthalCycles()
	m.Observe(dynamo.State{10, 0.1, 1, 2 * math.Pi, math.Pi, 0}, 0)
	m.Observe(dynamo.State{9.9, 0.1, 1, 10 * math.Pi, 5 * math.Pi, 0}, 1)
	if math.Abs(m.Value()-5) > 1e-12 {
		t.Errorf("expected 5 cycles, got %f", m.Value())
	}
	if p := NewPolarCycles(); p.Name() != "cycles_theta" {
		t.Errorf("unexpected name %s", p.Name())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero cycles after reset")
	}
	m.Observe(dynamo.State{10}, 0)
	if m.Value() != 0 {
		t.Error("short state should be ignored")
	}
}

func TestPDropAndFinalEccentricity(t *testing.T) {
	drop, fe := NewPDrop(), NewFinalEccentricity()
	for i, x := range []dynamo.State{
		{12, 0.4, 1, 0, 0, 0},
		{11, 0.35, 1, 0, 0, 0},
		{9.5, 0.3, 1, 0, 0, 0},
	} {
		drop.Observe(x, float64(i))
		fe.Observe(x, float64(i))
	}
	if drop.Value() != 2.5 {
		t.Errorf("expected p drop 2.5, got %f", drop.Value())
	}
	if fe.Value() != 0.3 {
		t.Errorf("expected final e 0.3, got %f", fe.Value())
	}
	drop.Reset()
	if drop.Value() != 0 {
		t.Error("expected zero drop after reset")
	}
}

func TestSeparatrixMargin(t *testing.T) {
	m := NewSeparatrixMargin(0)
	if m.Value() != 0 {
		t.Error("expected zero margin without samples")
	}
	// Schwarzschild separatrix is 6 + 2e.
	m.Observe(dynamo.State{10, 0.2, 1}, 0)
	m.Observe(dynamo.State{7, 0.2, 1}, 1)
	m.Observe(dynamo.State{8, 0.2, 1}, 2)
	if math.Abs(m.Value()-0.6) > 1e-12 {
		t.Errorf("expected margin 0.6, got %f", m.Value())
	}

	m.Observe(dynamo.State{8, 1.5, 1}, 3)
	if m.Failures() != 1 {
		t.Errorf("expected one failed sample, got %d", m.Failures())
	}
	m.Reset()
	if m.Failures() != 0 || m.Value() != 0 {
		t.Error("expected clean state after reset")
	}
}

func TestDuration(t *testing.T) {
	mass := 1e6
	d := NewDuration(mass)
	tM := trajectory.YRSID_SI / (mass * trajectory.MTSUN_SI)
	d.Observe(nil, tM/2)
	if math.Abs(d.Value()-0.5) > 1e-12 {
		t.Errorf("expected half a year, got %f", d.Value())
	}
}

func TestStandardNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Standard(0.9, 1e6) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 metrics, got %d", len(seen))
	}
}
