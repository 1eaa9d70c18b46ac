package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/san-kum/inspiral/internal/config"
	"github.com/san-kum/inspiral/internal/log"
	"github.com/san-kum/inspiral/internal/telemetry"
)

var (
	configFile string
	preset     string
	liveView   bool
	frameRate  int
	outputPath string
	// sweep and monte carlo
	sweepPoints  int
	perturbation float64
	trials       int
	seed         int64
)

var (
	title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	label = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	warn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"data":           "data_dir",
	"tables":         "tables_dir",
	"log-level":      "log_level",
	"workers":        "workers",
	"metrics-addr":   "metrics_addr",
	"integrator":     "integrator",
	"mass":           "mass",
	"epsilon":        "epsilon",
	"spin":           "spin",
	"p0":             "initial.p",
	"e0":             "initial.e",
	"x0":             "initial.x",
	"years":          "duration",
	"dt":             "dt",
	"tolerance":      "tolerance",
	"adaptive":       "adaptive",
	"stop-distance":  "stop_distance",
	"max-steps":      "max_steps",
	"strict":         "strict_sanity",
	"secondary-spin": "secondary_spin",
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "inspiral",
		Short:         "EMRI orbital evolution and Kerr geodesic tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, "")
			if err != nil {
				return err
			}
			log.Init(cfg.LogLevel)
			if cfg.MetricsAddr != "" {
				go serveMetrics(cfg.MetricsAddr)
			}
			return nil
		},
	}

	d := config.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.String("data", d.DataDir, "run storage directory")
	pf.String("tables", d.TablesDir, "flux table directory")
	pf.String("log-level", d.LogLevel, "debug, info, warn, error or none")
	pf.Int("workers", d.Workers, "worker goroutines for batch and campaign commands")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(geodesicCommands()...)
	rootCmd.AddCommand(runCommands()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, warn.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// trajectoryFlags adds the orbit and integration flags of run-like commands.
func trajectoryFlags(fs *pflag.FlagSet) {
	d := config.DefaultConfig()
	fs.StringVar(&preset, "preset", "", "start from a named preset of the model")
	fs.String("integrator", d.Integrator, "euler, rk4 or rk45")
	fs.Float64("mass", d.Mass, "primary mass in solar masses")
	fs.Float64("epsilon", d.Epsilon, "mass ratio")
	fs.Float64("spin", d.Spin, "primary spin a")
	fs.Float64("p0", d.Initial.P, "initial semi-latus rectum")
	fs.Float64("e0", d.Initial.E, "initial eccentricity")
	fs.Float64("x0", d.Initial.X, "initial inclination cosine")
	fs.Float64("years", d.Years, "maximum duration in years")
	fs.Float64("dt", d.Dt, "initial step in units of M")
	fs.Float64("tolerance", d.Tolerance, "adaptive step tolerance")
	fs.Bool("adaptive", d.Adaptive, "adaptive stepping")
	fs.Float64("stop-distance", d.StopDistance, "stop once p - p_sep falls below this")
	fs.Int("max-steps", d.MaxSteps, "step limit")
	fs.Bool("strict", d.StrictSanity, "reject orbits failing the sanity check")
	fs.Float64("secondary-spin", d.SecondarySpin, "secondary spin σ")
}

// loadConfig merges defaults (or the preset of model), the config file,
// INSPIRAL_ environment variables and flags, in increasing priority.
func loadConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	base := config.DefaultConfig()
	if preset != "" && model != "" {
		if base = config.GetPreset(model, preset); base == nil {
			return nil, fmt.Errorf("unknown preset %s for model %s (have %v)", preset, model, config.ListPresets(model))
		}
	}

	v := config.NewViperFrom(base)
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}
	if model != "" {
		cfg.Model = model
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	log.Info("msg", "serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("msg", "metrics server stopped", "err", err)
	}
}
