package flux

import (
	"fmt"
	"sort"
)

// Registered model names.
const (
	SchwarzschildEccentricName  = "schwarzschild_eccentric"
	KerrEquatorialEccentricName = "kerr_equatorial_eccentric"
	PNLeadingName               = "pn_leading"
)

// Constructor builds a model, reading any tables it needs from tablesDir.
type Constructor func(tablesDir string, opts Options) (Model, error)

type Registry struct {
	models map[string]Constructor
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]Constructor)}

	r.models[SchwarzschildEccentricName] = func(dir string, opts Options) (Model, error) {
		m, err := LoadSchwarzschildEccentric(dir, opts)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	r.models[KerrEquatorialEccentricName] = func(dir string, opts Options) (Model, error) {
		m, err := LoadKerrEquatorialEccentric(dir, opts)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	r.models[PNLeadingName] = func(_ string, opts Options) (Model, error) {
		return NewPNLeading(opts), nil
	}

	return r
}

// Register adds or replaces a constructor.
func (r *Registry) Register(name string, c Constructor) {
	r.models[name] = c
}

// New builds the named model.
func (r *Registry) New(name, tablesDir string, opts Options) (Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown flux model: %s", name)
	}
	return fn(tablesDir, opts)
}

// NeedsTables reports whether the named model reads data files.
func (r *Registry) NeedsTables(name string) bool {
	return name != PNLeadingName
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
