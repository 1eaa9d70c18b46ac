package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/inspiral/internal/flux"
	"github.com/san-kum/inspiral/internal/trajectory"
)

const (
	DefaultModel      = flux.PNLeadingName
	DefaultIntegrator = "rk45"
	DefaultMass       = 1e6
	DefaultEpsilon    = 1e-5
	DefaultSpin       = 0.9
	DefaultP0         = 12.0
	DefaultE0         = 0.3
	DefaultX0         = 1.0
	DefaultYears      = 1.0
	DefaultDt         = 10.0
	DefaultTolerance  = 1e-10
	DefaultMaxSteps   = 1000000
	DefaultDataDir    = "data/runs"

	// EnvPrefix prefixes environment overrides, e.g. INSPIRAL_SPIN.
	EnvPrefix = "INSPIRAL"
)

type Config struct {
	Model         string       `yaml:"model" mapstructure:"model"`
	Integrator    string       `yaml:"integrator" mapstructure:"integrator"`
	DataDir       string       `yaml:"data_dir" mapstructure:"data_dir"`
	TablesDir     string       `yaml:"tables_dir" mapstructure:"tables_dir"`
	Mass          float64      `yaml:"mass" mapstructure:"mass"`
	Epsilon       float64      `yaml:"epsilon" mapstructure:"epsilon"`
	Spin          float64      `yaml:"spin" mapstructure:"spin"`
	Initial       InitialOrbit `yaml:"initial" mapstructure:"initial"`
	Years         float64      `yaml:"duration" mapstructure:"duration"`
	Dt            float64      `yaml:"dt" mapstructure:"dt"`
	Tolerance     float64      `yaml:"tolerance" mapstructure:"tolerance"`
	Adaptive      bool         `yaml:"adaptive" mapstructure:"adaptive"`
	StopDistance  float64      `yaml:"stop_distance" mapstructure:"stop_distance"`
	MaxSteps      int          `yaml:"max_steps" mapstructure:"max_steps"`
	Workers       int          `yaml:"workers" mapstructure:"workers"`
	LogLevel      string       `yaml:"log_level" mapstructure:"log_level"`
	StrictSanity  bool         `yaml:"strict_sanity" mapstructure:"strict_sanity"`
	SecondarySpin float64      `yaml:"secondary_spin" mapstructure:"secondary_spin"`
	MetricsAddr   string       `yaml:"metrics_addr" mapstructure:"metrics_addr"`
}

// InitialOrbit is the starting (p, e, x).
type InitialOrbit struct {
	P float64 `yaml:"p" mapstructure:"p"`
	E float64 `yaml:"e" mapstructure:"e"`
	X float64 `yaml:"x" mapstructure:"x"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:        DefaultModel,
		Integrator:   DefaultIntegrator,
		DataDir:      DefaultDataDir,
		Mass:         DefaultMass,
		Epsilon:      DefaultEpsilon,
		Spin:         DefaultSpin,
		Initial:      InitialOrbit{P: DefaultP0, E: DefaultE0, X: DefaultX0},
		Years:        DefaultYears,
		Dt:           DefaultDt,
		Tolerance:    DefaultTolerance,
		Adaptive:     true,
		StopDistance: 0.1,
		MaxSteps:     DefaultMaxSteps,
		Workers:      1,
		LogLevel:     "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetDefaults registers d as the defaults of v so that config files,
// environment variables and flags bound to v can override every key.
func SetDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("model", d.Model)
	v.SetDefault("integrator", d.Integrator)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("tables_dir", d.TablesDir)
	v.SetDefault("mass", d.Mass)
	v.SetDefault("epsilon", d.Epsilon)
	v.SetDefault("spin", d.Spin)
	v.SetDefault("initial.p", d.Initial.P)
	v.SetDefault("initial.e", d.Initial.E)
	v.SetDefault("initial.x", d.Initial.X)
	v.SetDefault("duration", d.Years)
	v.SetDefault("dt", d.Dt)
	v.SetDefault("tolerance", d.Tolerance)
	v.SetDefault("adaptive", d.Adaptive)
	v.SetDefault("stop_distance", d.StopDistance)
	v.SetDefault("max_steps", d.MaxSteps)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("strict_sanity", d.StrictSanity)
	v.SetDefault("secondary_spin", d.SecondarySpin)
	v.SetDefault("metrics_addr", d.MetricsAddr)
}

// NewViper returns a viper instance with defaults and INSPIRAL_ environment
// overrides. Nested keys use underscores, e.g. INSPIRAL_INITIAL_P.
func NewViper() *viper.Viper {
	return NewViperFrom(DefaultConfig())
}

// NewViperFrom is NewViper with base, typically a preset, as the defaults.
func NewViperFrom(base *Config) *viper.Viper {
	v := viper.New()
	SetDefaults(v, base)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper decodes the merged viper settings. A config file set on v is
// read first.
func FromViper(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Initial.P <= 0 {
		return fmt.Errorf("initial p must be positive, got %g", c.Initial.P)
	}
	if c.Initial.E < 0 || c.Initial.E >= 1 {
		return fmt.Errorf("initial e must be in [0, 1), got %g", c.Initial.E)
	}
	if c.Initial.X < -1 || c.Initial.X > 1 {
		return fmt.Errorf("initial x must be in [-1, 1], got %g", c.Initial.X)
	}
	if c.Spin < 0 || c.Spin > 1 {
		return fmt.Errorf("spin must be in [0, 1], got %g", c.Spin)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return c.Trajectory().Validate()
}

// Trajectory returns the integration settings.
func (c *Config) Trajectory() trajectory.Config {
	tc := trajectory.DefaultConfig()
	tc.Mass = c.Mass
	tc.Epsilon = c.Epsilon
	tc.Spin = c.Spin
	tc.Years = c.Years
	tc.Dt = c.Dt
	tc.Tolerance = c.Tolerance
	tc.Adaptive = c.Adaptive
	tc.MaxSteps = c.MaxSteps
	if c.StopDistance > 0 {
		tc.StopDistance = c.StopDistance
	}
	return tc
}

// FluxOptions returns the flux model options.
func (c *Config) FluxOptions() flux.Options {
	return flux.Options{
		StrictSanity:  c.StrictSanity,
		SecondarySpin: c.SecondarySpin,
	}
}
