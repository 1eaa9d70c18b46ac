package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/inspiral/internal/automation"
	"github.com/san-kum/inspiral/internal/config"
	"github.com/san-kum/inspiral/internal/experiment"
	"github.com/san-kum/inspiral/internal/flux"
	"github.com/san-kum/inspiral/internal/storage"
	"github.com/san-kum/inspiral/internal/trajectory"
	"github.com/san-kum/inspiral/internal/tui"
)

func runCommands() []*cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "integrate an inspiral and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInspiral,
	}
	trajectoryFlags(runCmd.Flags())
	runCmd.Flags().BoolVar(&liveView, "live", false, "draw the orbit while integrating")
	runCmd.Flags().IntVar(&frameRate, "fps", 20, "frame rate of --live")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "integrate an inspiral in an interactive view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	trajectoryFlags(liveCmd.Flags())

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot run_id",
		Short: "plot p, e and the azimuthal phase of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export-json run_id",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE:  listPresets,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list flux models and integrators",
		RunE:  listModels,
	}

	campaignCmd := &cobra.Command{
		Use:   "campaign scenario.yaml",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runCampaign,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep model param min max",
		Short: "sweep one parameter (spin, epsilon, mass, p0, e0, x0, secondary_spin)",
		Args:  cobra.ExactArgs(4),
		RunE:  runSweep,
	}
	trajectoryFlags(sweepCmd.Flags())
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of sweep points")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "perturb the initial orbit at random",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	trajectoryFlags(mcCmd.Flags())
	mcCmd.Flags().Float64Var(&perturbation, "perturbation", 0.05, "half-width of the uniform perturbation")
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")

	return []*cobra.Command{runCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd, modelsCmd, campaignCmd, sweepCmd, mcCmd}
}

func modelArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func setup(cmd *cobra.Command, args []string) (*config.Config, *experiment.Experiment, error) {
	cfg, err := loadConfig(cmd, modelArg(args))
	if err != nil {
		return nil, nil, err
	}
	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return nil, nil, err
	}
	return cfg, exp, nil
}

func runInspiral(cmd *cobra.Command, args []string) error {
	cfg, exp, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer exp.Close()

	if liveView {
		r := tui.NewLiveRenderer(os.Stdout, cfg.Model, frameRate)
		exp.Integrator().AddObserver(r)
		r.Start()
		defer r.Stop()
	}

	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(exp.Metadata(), result)
	if err != nil {
		return err
	}

	fmt.Println(title.Render(runID))
	pairs := []any{"steps", float64(result.StepsTaken)}
	if n := len(result.States); n > 0 {
		last := result.States[n-1]
		pairs = append(pairs, "p_final", last[flux.IdxP], "e_final", last[flux.IdxE],
			"t_final_s", result.Times[n-1])
	}
	for _, name := range sortedKeys(result.Metrics) {
		pairs = append(pairs, name, result.Metrics[name])
	}
	fmt.Printf("%s %s\n", label.Render("stop"), result.StopReason)
	for _, e := range result.Errors {
		fmt.Printf("%s %v\n", warn.Render("note"), e)
	}
	return printPairs(pairs...)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, exp, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer exp.Close()
	return tui.RunLive(cmd.Context(), exp, cfg)
}

func store(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := store(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tA\tP0\tE0\tX0\tSTEPS\tSTOP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3g\t%.4g\t%.4g\t%.3g\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Spin,
			run.P0,
			run.E0,
			run.X0,
			run.Steps,
			run.StopReason,
		)
	}
	return w.Flush()
}

// downsample keeps at most n evenly spaced points.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = data[i*(len(data)-1)/(n-1)]
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st, err := store(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s  a=%g  epsilon=%g\n", meta.Model, meta.Spin, meta.Epsilon)
	fmt.Printf("samples: %d over %.4g yr\n\n", len(states), times[len(times)-1]/trajectory.YRSID_SI)

	captions := map[int]string{
		flux.IdxP:      "p (semi-latus rectum)",
		flux.IdxE:      "e (eccentricity)",
		flux.IdxPhiPhi: "Phi_phi / 2pi (azimuthal cycles)",
	}
	for _, idx := range []int{flux.IdxP, flux.IdxE, flux.IdxPhiPhi} {
		data := make([]float64, len(states))
		for i, s := range states {
			if idx < len(s) {
				data[i] = s[idx]
			}
		}
		if idx == flux.IdxPhiPhi {
			for i := range data {
				data[i] /= 2 * math.Pi
			}
		}
		graph := asciigraph.Plot(downsample(data, 400),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(captions[idx]),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := store(cmd)
	if err != nil {
		return err
	}
	if outputPath != "" {
		return st.ExportJSONFile(outputPath, args[0])
	}
	return st.ExportJSON(os.Stdout, args[0])
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := make([]string, 0, len(config.Presets))
	for m := range config.Presets {
		models = append(models, m)
	}
	sort.Strings(models)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPRESET\tA\tP0\tE0\tX0\tEPSILON")
	for _, m := range models {
		for _, name := range config.ListPresets(m) {
			p := config.GetPreset(m, name)
			fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\t%g\n", m, name, p.Spin, p.Initial.P, p.Initial.E, p.Initial.X, p.Epsilon)
		}
	}
	return w.Flush()
}

func listModels(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	fmt.Println(title.Render("flux models"))
	for _, m := range reg.ListModels() {
		note := ""
		if reg.Fluxes().NeedsTables(m) {
			note = label.Render("  (needs --tables)")
		}
		fmt.Println("  " + m + note)
	}
	fmt.Println(title.Render("integrators"))
	for _, name := range reg.ListIntegrators() {
		fmt.Println("  " + name)
	}
	return nil
}

func runCampaign(cmd *cobra.Command, args []string) error {
	st, err := store(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if err := st.Init(); err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), st)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTOP\tSTEPS\tRUN")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Name, r.Result.StopReason, r.Result.StepsTaken, r.RunID)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func printOutcomes(header string, rows [][]string, outcomes []automation.Outcome) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header+"\tSTOP\tSTEPS\tP_FINAL\tE_FINAL\tCYCLES")
	for i, o := range outcomes {
		prefix := ""
		for _, c := range rows[i] {
			prefix += c + "\t"
		}
		if o.Err != nil {
			fmt.Fprintf(w, "%s%s\t\t\t\t\n", prefix, warn.Render(o.Err.Error()))
			continue
		}
		pf, ef := math.NaN(), math.NaN()
		if len(o.Final) > flux.IdxE {
			pf, ef = o.Final[flux.IdxP], o.Final[flux.IdxE]
		}
		fmt.Fprintf(w, "%s%s\t%d\t%.6g\t%.6g\t%.1f\n", prefix, o.StopReason, o.Steps, pf, ef, o.Metrics["cycles_phi"])
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	lo, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("min: %w", err)
	}
	hi, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("max: %w", err)
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base:    cfg,
		Param:   args[1],
		Min:     lo,
		Max:     hi,
		Points:  sweepPoints,
		Workers: cfg.Workers,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	rows := make([][]string, len(results))
	outcomes := make([]automation.Outcome, len(results))
	for i, r := range results {
		rows[i] = []string{strconv.FormatFloat(r.Value, 'g', 6, 64)}
		outcomes[i] = r.Outcome
	}
	return printOutcomes(args[1], rows, outcomes)
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, modelArg(args))
	if err != nil {
		return err
	}
	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturbation,
		Trials:       trials,
		Seed:         seed,
		Workers:      cfg.Workers,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	rows := make([][]string, len(results))
	outcomes := make([]automation.Outcome, len(results))
	for i, r := range results {
		rows[i] = []string{
			strconv.Itoa(r.TrialID),
			fmt.Sprintf("%.4f", r.Initial.P),
			fmt.Sprintf("%.4f", r.Initial.E),
			fmt.Sprintf("%.4f", r.Initial.X),
		}
		outcomes[i] = r.Outcome
	}
	if err := printOutcomes("TRIAL\tP0\tE0\tX0", rows, outcomes); err != nil {
		return err
	}
	plunged, failed := automation.MonteCarloStats(results)
	fmt.Printf("%s %d/%d  %s %d\n", label.Render("plunged"), plunged, len(results), label.Render("failed"), failed)
	return nil
}
