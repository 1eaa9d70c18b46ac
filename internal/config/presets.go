package config

import "sort"

// Presets maps a flux model to named starting configurations.
var Presets = map[string]map[string]*Config{
	"pn_leading": {
		"quick": {
			Model: "pn_leading", Integrator: "rk45", Mass: 1e6, Epsilon: 1e-3, Spin: 0.5,
			Initial: InitialOrbit{P: 8, E: 0.2, X: 1}, Years: 1, Dt: 10, Tolerance: 1e-8,
			Adaptive: true, StopDistance: 0.1, MaxSteps: 100000,
		},
		"retrograde": {
			Model: "pn_leading", Integrator: "rk45", Mass: 1e6, Epsilon: 1e-4, Spin: 0.7,
			Initial: InitialOrbit{P: 14, E: 0.1, X: -1}, Years: 1, Dt: 10, Tolerance: 1e-9,
			Adaptive: true, StopDistance: 0.1, MaxSteps: 1000000,
		},
	},
	"schwarzschild_eccentric": {
		"standard": {
			Model: "schwarzschild_eccentric", Integrator: "rk45", Mass: 1e6, Epsilon: 1e-5,
			Initial: InitialOrbit{P: 12, E: 0.4, X: 1}, Years: 2, Dt: 10, Tolerance: 1e-10,
			Adaptive: true, StopDistance: 0.1, MaxSteps: 1000000,
		},
		"circular": {
			Model: "schwarzschild_eccentric", Integrator: "rk45", Mass: 1e6, Epsilon: 1e-5,
			Initial: InitialOrbit{P: 10, E: 0, X: 1}, Years: 1, Dt: 10, Tolerance: 1e-10,
			Adaptive: true, StopDistance: 0.1, MaxSteps: 1000000,
		},
	},
	"kerr_equatorial_eccentric": {
		"prograde": {
			Model: "kerr_equatorial_eccentric", Integrator: "rk45", Mass: 1e6, Epsilon: 1e-5, Spin: 0.9,
			Initial: InitialOrbit{P: 10, E: 0.3, X: 1}, Years: 1, Dt: 10, Tolerance: 1e-10,
			Adaptive: true, StopDistance: 0.1, MaxSteps: 1000000,
		},
		"high_spin": {
			Model: "kerr_equatorial_eccentric", Integrator: "rk45", Mass: 1e6, Epsilon: 1e-5, Spin: 0.98,
			Initial: InitialOrbit{P: 6, E: 0.5, X: 1}, Years: 1, Dt: 10, Tolerance: 1e-10,
			Adaptive: true, StopDistance: 0.1, MaxSteps: 1000000,
		},
		"retrograde": {
			Model: "kerr_equatorial_eccentric", Integrator: "rk45", Mass: 1e6, Epsilon: 1e-5, Spin: 0.9,
			Initial: InitialOrbit{P: 14, E: 0.2, X: -1}, Years: 1, Dt: 10, Tolerance: 1e-10,
			Adaptive: true, StopDistance: 0.1, MaxSteps: 1000000,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	c.DataDir = DefaultDataDir
	c.Workers = 1
	c.LogLevel = "info"
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
