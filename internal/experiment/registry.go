package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/flux"
	"github.com/san-kum/inspiral/internal/integrators"
	"github.com/san-kum/inspiral/internal/metrics"
)

// Registry resolves flux models and steppers by name.
type Registry struct {
	fluxes      *flux.Registry
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		fluxes:      flux.NewRegistry(),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

// Fluxes exposes the flux model registry for custom registrations.
func (r *Registry) Fluxes() *flux.Registry { return r.fluxes }

func (r *Registry) GetModel(name, tablesDir string, opts flux.Options) (flux.Model, error) {
	if tablesDir == "" && r.fluxes.NeedsTables(name) {
		return nil, fmt.Errorf("model %s needs a tables directory", name)
	}
	return r.fluxes.New(name, tablesDir, opts)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	return r.fluxes.List()
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(spin, mass float64) []dynamo.Metric {
	return metrics.Standard(spin, mass)
}
