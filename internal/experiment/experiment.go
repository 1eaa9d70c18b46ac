// Package experiment assembles a configured inspiral: flux model, stepper,
// metrics and trajectory integrator.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/inspiral/internal/config"
	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/flux"
	"github.com/san-kum/inspiral/internal/storage"
	"github.com/san-kum/inspiral/internal/trajectory"
)

type Experiment struct {
	cfg        *config.Config
	model      flux.Model
	integrator *trajectory.Integrator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the configuration and builds the model and integrator.
// The model stays open until Close.
func (e *Experiment) Setup(reg *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	stepper, err := reg.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}
	model, err := reg.GetModel(e.cfg.Model, e.cfg.TablesDir, e.cfg.FluxOptions())
	if err != nil {
		return err
	}

	e.model = model
	e.integrator = trajectory.New(model, stepper, e.cfg.Trajectory())
	for _, m := range reg.DefaultMetrics(e.cfg.Spin, e.cfg.Mass) {
		e.integrator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.integrator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	in := e.cfg.Initial
	return e.integrator.Run(ctx, in.P, in.E, in.X)
}

// RunWithCallback streams accepted points instead of storing them.
func (e *Experiment) RunWithCallback(ctx context.Context, cb func(x dynamo.State, t float64) bool) (*dynamo.Result, error) {
	if e.integrator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	in := e.cfg.Initial
	return e.integrator.RunWithCallback(ctx, in.P, in.E, in.X, cb)
}

// Integrator returns the trajectory integrator for adding observers.
func (e *Experiment) Integrator() *trajectory.Integrator {
	return e.integrator
}

// Metadata describes the run for storage.
func (e *Experiment) Metadata() storage.RunMetadata {
	return storage.RunMetadata{
		Model:      e.cfg.Model,
		Integrator: e.cfg.Integrator,
		Mass:       e.cfg.Mass,
		Epsilon:    e.cfg.Epsilon,
		Spin:       e.cfg.Spin,
		P0:         e.cfg.Initial.P,
		E0:         e.cfg.Initial.E,
		X0:         e.cfg.Initial.X,
		Years:      e.cfg.Years,
	}
}

func (e *Experiment) Close() error {
	if e.model == nil {
		return nil
	}
	return e.model.Close()
}
