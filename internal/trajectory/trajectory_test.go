package trajectory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/flux"
	"github.com/san-kum/inspiral/internal/integrators"
	"github.com/san-kum/inspiral/internal/interp"
	"github.com/san-kum/inspiral/internal/kerr"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Epsilon = 1e-3
	cfg.Spin = 0.5
	cfg.Tolerance = 1e-8
	return cfg
}

func TestRunStopsNearSeparatrix(t *testing.T) {
	cfg := testConfig()
	in := New(flux.NewPNLeading(flux.Options{}), integrators.NewRK45(), cfg)

	res, err := in.Run(context.Background(), 8, 0.2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StopReason != StopSeparatrix {
		t.Fatalf("expected stop at separatrix, got %q (%v)", res.StopReason, res.Errors)
	}
	if len(res.States) != res.StepsTaken+1 || len(res.Times) != len(res.States) {
		t.Fatalf("inconsistent result: %d states, %d times, %d steps", len(res.States), len(res.Times), res.StepsTaken)
	}

	for i := 1; i < len(res.States); i++ {
		prev, cur := res.States[i-1], res.States[i]
		if cur[flux.IdxP] >= prev[flux.IdxP] {
			t.Fatalf("p not decreasing at %d: %v -> %v", i, prev[flux.IdxP], cur[flux.IdxP])
		}
		if cur[flux.IdxE] > prev[flux.IdxE] {
			t.Fatalf("e grew at %d: %v -> %v", i, prev[flux.IdxE], cur[flux.IdxE])
		}
		if cur[flux.IdxPhiPhi] <= prev[flux.IdxPhiPhi] || res.Times[i] <= res.Times[i-1] {
			t.Fatalf("phase or time not advancing at %d", i)
		}
	}

	last := res.States[len(res.States)-1]
	pSep, err := kerr.Separatrix(cfg.Spin, last[flux.IdxE], last[flux.IdxX])
	if err != nil {
		t.Fatal(err)
	}
	if gap := last[flux.IdxP] - pSep; gap < 0 || gap >= cfg.StopDistance {
		t.Errorf("expected final gap in [0, %v), got %v", cfg.StopDistance, gap)
	}
	if last[flux.IdxX] != 1 {
		t.Errorf("x should not evolve, got %v", last[flux.IdxX])
	}
}

func TestRunFixedStep(t *testing.T) {
	cfg := testConfig()
	cfg.Adaptive = false
	cfg.Dt = 20
	in := New(flux.NewPNLeading(flux.Options{}), integrators.NewRK4(), cfg)

	res, err := in.Run(context.Background(), 8, 0.1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StopReason != StopSeparatrix {
		t.Fatalf("expected separatrix stop, got %q", res.StopReason)
	}
	dt := res.Times[1] - res.Times[0]
	if want := cfg.Seconds(20); math.Abs(dt-want) > 1e-9*want {
		t.Errorf("expected fixed step %v s, got %v", want, dt)
	}
}

func TestRunStopsAtDuration(t *testing.T) {
	cfg := testConfig()
	cfg.Years = 1e-4
	in := New(flux.NewPNLeading(flux.Options{}), integrators.NewRK45(), cfg)

	res, err := in.Run(context.Background(), 12, 0.3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StopReason != StopDuration {
		t.Fatalf("expected duration stop, got %q", res.StopReason)
	}
	end := res.Times[len(res.Times)-1]
	if want := 1e-4 * YRSID_SI; math.Abs(end-want) > 1e-6*want {
		t.Errorf("expected to end at %v s, got %v", want, end)
	}
}

func TestRunMaxSteps(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSteps = 5
	in := New(flux.NewPNLeading(flux.Options{}), integrators.NewEuler(), cfg)

	res, err := in.Run(context.Background(), 12, 0.3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StopReason != StopMaxSteps || res.StepsTaken != 5 || len(res.States) != 6 {
		t.Errorf("expected 5 steps then max_steps, got %q after %d", res.StopReason, res.StepsTaken)
	}
}

func TestRunDomainErrorKeepsLastPoint(t *testing.T) {
	cfg := testConfig()
	cfg.Spin = 0.9
	model, err := flux.NewKerrEquatorialEccentric(
		interp.Func3D(func(a, u, w float64) float64 { return 1 }),
		interp.Func3D(func(a, u, w float64) float64 { return 1 }),
		flux.Options{})
	if err != nil {
		t.Fatal(err)
	}
	in := New(model, integrators.NewRK45(), cfg)

	// the equatorial model rejects inclined orbits
	res, err := in.Run(context.Background(), 12, 0.2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if res.StopReason != StopDomain {
		t.Fatalf("expected domain stop, got %q", res.StopReason)
	}
	if len(res.States) != 1 || res.States[0][flux.IdxP] != 12 {
		t.Errorf("expected only the initial point, got %d states", len(res.States))
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], dynamo.ErrDomain) {
		t.Errorf("expected recorded ErrDomain, got %v", res.Errors)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := New(flux.NewPNLeading(flux.Options{}), integrators.NewRK45(), testConfig())

	res, err := in.Run(ctx, 10, 0.2, 1)
	if !errors.Is(err, dynamo.ErrContextCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if res.StopReason != StopCanceled {
		t.Errorf("expected canceled stop reason, got %q", res.StopReason)
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	in := New(flux.NewPNLeading(flux.Options{}), integrators.NewRK45(), testConfig())
	calls := 0
	res, err := in.RunWithCallback(context.Background(), 10, 0.2, 1, func(x dynamo.State, t float64) bool {
		calls++
		return calls < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 || res.StopReason != StopCanceled || res.StepsTaken != 2 {
		t.Errorf("expected stop after 3 callbacks, got %d calls, %q, %d steps", calls, res.StopReason, res.StepsTaken)
	}
	if len(res.States) != 0 {
		t.Error("callback runs should not store states")
	}
}

func TestRunStartingInsideStopDistance(t *testing.T) {
	cfg := testConfig()
	pSep, err := kerr.Separatrix(cfg.Spin, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	in := New(flux.NewPNLeading(flux.Options{}), integrators.NewRK45(), cfg)
	res, err := in.Run(context.Background(), pSep+cfg.StopDistance/2, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StopReason != StopSeparatrix {
		t.Errorf("unexpected stop reason %q", res.StopReason)
	}
	if res.StepsTaken != 0 {
		t.Errorf("expected no steps, got %d", res.StepsTaken)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero mass", func(c *Config) { c.Mass = 0 }},
		{"negative epsilon", func(c *Config) { c.Epsilon = -1 }},
		{"zero duration", func(c *Config) { c.Years = 0 }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"adaptive without tolerance", func(c *Config) { c.Tolerance = 0 }},
		{"no steps", func(c *Config) { c.MaxSteps = 0 }},
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			if cfg.Validate() == nil {
				t.Error("expected validation error")
			}
		})
	}
}
