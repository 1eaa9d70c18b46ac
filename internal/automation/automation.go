// Package automation runs batches of inspirals: scripted scenarios from
// YAML, one-parameter sweeps and Monte Carlo perturbations of the initial
// orbit.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/inspiral/internal/config"
	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/experiment"
	"github.com/san-kum/inspiral/internal/log"
	"github.com/san-kum/inspiral/internal/storage"
	"github.com/san-kum/inspiral/internal/trajectory"
)

// Scenario defines a scripted sequence of inspirals.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one inspiral. Its YAML mapping holds any config.Config
// keys on top of the defaults, or on top of a preset named "model/preset".
type ScenarioStep struct {
	Name   string
	Save   bool
	Config *config.Config
}

func (s *ScenarioStep) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Name   string `yaml:"name"`
		Save   bool   `yaml:"save"`
		Preset string `yaml:"preset"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if head.Preset != "" {
		model, name, ok := strings.Cut(head.Preset, "/")
		if !ok {
			return fmt.Errorf("preset %q: want model/name", head.Preset)
		}
		if cfg = config.GetPreset(model, name); cfg == nil {
			return fmt.Errorf("unknown preset %q", head.Preset)
		}
	}
	if err := node.Decode(cfg); err != nil {
		return err
	}

	s.Name = head.Name
	if s.Name == "" {
		s.Name = cfg.Model
	}
	s.Save = head.Save
	s.Config = cfg
	return nil
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// StepResult is the outcome of one scenario step. RunID is empty unless the
// step was saved.
type StepResult struct {
	Name   string
	RunID  string
	Result *dynamo.Result
}

// RunScenario executes all steps in order, saving marked steps into st when
// st is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Info("msg", "scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", step.Name)

		exp := experiment.New(step.Config)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		exp.Close()
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: step.Name, Result: result}
		if step.Save && st != nil {
			if sr.RunID, err = st.Save(exp.Metadata(), result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// Outcome summarizes one inspiral of a sweep or Monte Carlo campaign.
type Outcome struct {
	Final      dynamo.State
	Steps      int
	StopReason string
	Metrics    map[string]float64
	Err        error
}

// Plunged reports whether the inspiral reached the separatrix.
func (o Outcome) Plunged() bool {
	return o.Err == nil && o.StopReason == trajectory.StopSeparatrix
}

// run integrates one configuration keeping only the final state.
func run(ctx context.Context, cfg *config.Config, registry *experiment.Registry) Outcome {
	exp := experiment.New(cfg)
	if err := exp.Setup(registry); err != nil {
		return Outcome{Err: err}
	}
	defer exp.Close()

	var final dynamo.State
	result, err := exp.RunWithCallback(ctx, func(x dynamo.State, t float64) bool {
		final = x.Clone()
		return true
	})
	if err != nil {
		return Outcome{Final: final, Err: err}
	}
	return Outcome{
		Final:      final,
		Steps:      result.StepsTaken,
		StopReason: result.StopReason,
		Metrics:    result.Metrics,
	}
}

// setParam overrides one named field of cfg.
func setParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "spin":
		cfg.Spin = v
	case "epsilon":
		cfg.Epsilon = v
	case "mass":
		cfg.Mass = v
	case "p0":
		cfg.Initial.P = v
	case "e0":
		cfg.Initial.E = v
	case "x0":
		cfg.Initial.X = v
	case "secondary_spin":
		cfg.SecondarySpin = v
	default:
		return fmt.Errorf("unknown sweep parameter: %s", name)
	}
	return nil
}

// ParameterSweep varies one parameter linearly over [Min, Max].
type ParameterSweep struct {
	Base    *config.Config
	Param   string
	Min     float64
	Max     float64
	Points  int
	Workers int
}

// SweepResult holds the outcome at one parameter value.
type SweepResult struct {
	Value float64
	Outcome
}

// RunSweep runs every point of the sweep, Workers at a time. Failures are
// reported per point.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.Points < 1 {
		return nil, fmt.Errorf("sweep needs at least one point, got %d", sweep.Points)
	}
	if err := setParam(config.DefaultConfig(), sweep.Param, 0); err != nil {
		return nil, err
	}

	results := make([]SweepResult, sweep.Points)
	step := 0.0
	if sweep.Points > 1 {
		step = (sweep.Max - sweep.Min) / float64(sweep.Points-1)
	}
	for i := range results {
		results[i].Value = sweep.Min + float64(i)*step
	}

	dynamo.ParallelFor(sweep.Points, 1, workers(sweep.Workers), func(start, end int) {
		for i := start; i < end; i++ {
			cfg := *sweep.Base
			_ = setParam(&cfg, sweep.Param, results[i].Value)
			results[i].Outcome = run(ctx, &cfg, registry)
		}
	})

	log.Info("msg", "sweep done", "param", sweep.Param, "points", sweep.Points)
	return results, ctx.Err()
}

func workers(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// MonteCarloConfig perturbs the initial (p, e, x) of Base uniformly by up to
// Perturbation in each coordinate.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	Trials       int
	Seed         int64
	Workers      int
}

// MonteCarloResult holds one trial.
type MonteCarloResult struct {
	TrialID int
	Initial config.InitialOrbit
	Outcome
}

// RunMonteCarlo draws all initial orbits from one seeded source before
// running the trials in parallel, so results depend only on the seed.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]MonteCarloResult, cfg.Trials)
	for i := range results {
		in := cfg.Base.Initial
		in.P += (rng.Float64() - 0.5) * 2 * cfg.Perturbation
		in.E = math.Max(0, in.E+(rng.Float64()-0.5)*2*cfg.Perturbation)
		in.X = math.Max(-1, math.Min(1, in.X+(rng.Float64()-0.5)*2*cfg.Perturbation))
		results[i] = MonteCarloResult{TrialID: i, Initial: in}
	}

	dynamo.ParallelFor(cfg.Trials, 1, workers(cfg.Workers), func(start, end int) {
		for i := start; i < end; i++ {
			c := *cfg.Base
			c.Initial = results[i].Initial
			results[i].Outcome = run(ctx, &c, registry)
		}
	})

	plunged, failed := MonteCarloStats(results)
	log.Info("msg", "monte carlo done", "trials", cfg.Trials, "plunged", plunged, "failed", failed, "seed", seed)
	return results, ctx.Err()
}

// MonteCarloStats counts trials that reached the separatrix and trials that
// failed.
func MonteCarloStats(results []MonteCarloResult) (plunged int, failed int) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Plunged():
			plunged++
		}
	}
	return
}
