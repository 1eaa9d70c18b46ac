package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/inspiral/internal/batch"
	"github.com/san-kum/inspiral/internal/experiment"
	"github.com/san-kum/inspiral/internal/kerr"
	"github.com/san-kum/inspiral/internal/log"
)

func geodesicCommands() []*cobra.Command {
	constantsCmd := &cobra.Command{
		Use:   "constants a p e x",
		Short: "energy, angular momentum and Carter constant",
		Args:  cobra.ExactArgs(4),
		RunE:  showConstants,
	}

	freqCmd := &cobra.Command{
		Use:   "freq a p e x",
		Short: "coordinate-time fundamental frequencies",
		Args:  cobra.ExactArgs(4),
		RunE:  showFrequencies,
	}

	sepCmd := &cobra.Command{
		Use:   "separatrix a e x",
		Short: "separatrix p_sep",
		Args:  cobra.ExactArgs(3),
		RunE:  showSeparatrix,
	}

	ytoxCmd := &cobra.Command{
		Use:   "ytox a p e Y",
		Short: "convert Y = L/sqrt(L^2+Q) to x = cos(inclination)",
		Args:  cobra.ExactArgs(4),
		RunE:  showYToX,
	}

	spinCmd := &cobra.Command{
		Use:   "spin-correction a p e x",
		Short: "secondary-spin frequency shifts",
		Args:  cobra.ExactArgs(4),
		RunE:  showSpinCorrection,
	}

	fluxCmd := &cobra.Command{
		Use:   "flux model a p e x",
		Short: "evaluate a flux model's rates",
		Args:  cobra.ExactArgs(5),
		RunE:  showFlux,
	}
	fluxCmd.Flags().Float64("epsilon", 1e-5, "mass ratio")
	fluxCmd.Flags().Bool("strict", false, "reject orbits failing the sanity check")
	fluxCmd.Flags().Float64("secondary-spin", 0, "secondary spin σ")

	batchCmd := &cobra.Command{
		Use:   "batch freq|separatrix|constants|ytox|spin input.csv",
		Short: "evaluate a kernel over CSV rows",
		Long: "Rows hold a,p,e,x (a,e,x for separatrix, a,p,e,Y for ytox). " +
			"Failed rows are written as NaN and reported on stderr.",
		Args: cobra.ExactArgs(2),
		RunE: runBatch,
	}

	return []*cobra.Command{constantsCmd, freqCmd, sepCmd, ytoxCmd, spinCmd, fluxCmd, batchCmd}
}

func parseArgs(args []string) ([]float64, error) {
	vals := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func printPairs(pairs ...any) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(w, "%s\t%.15g\n", label.Render(fmt.Sprint(pairs[i])), pairs[i+1])
	}
	return w.Flush()
}

func showConstants(cmd *cobra.Command, args []string) error {
	v, err := parseArgs(args)
	if err != nil {
		return err
	}
	c, err := kerr.ConstantsOfMotion(v[0], v[1], v[2], v[3])
	if err != nil {
		return err
	}
	return printPairs("E", c.E, "L", c.L, "Q", c.Q)
}

// frequencies uses the Schwarzschild closed form for a = 0.
func frequencies(a, p, e, x float64) (kerr.Frequencies, error) {
	if a == 0 {
		return kerr.SchwarzschildCoordinateFrequencies(p, e)
	}
	return kerr.CoordinateFrequencies(a, p, e, x)
}

func showFrequencies(cmd *cobra.Command, args []string) error {
	v, err := parseArgs(args)
	if err != nil {
		return err
	}
	f, err := frequencies(v[0], v[1], v[2], v[3])
	if err != nil {
		return err
	}
	return printPairs("Omega_phi", f.OmegaPhi, "Omega_theta", f.OmegaTheta, "Omega_r", f.OmegaR)
}

func showSeparatrix(cmd *cobra.Command, args []string) error {
	v, err := parseArgs(args)
	if err != nil {
		return err
	}
	p, err := kerr.Separatrix(v[0], v[1], v[2])
	if err != nil {
		return err
	}
	return printPairs("p_sep", p)
}

func showYToX(cmd *cobra.Command, args []string) error {
	v, err := parseArgs(args)
	if err != nil {
		return err
	}
	x, err := kerr.YToX(v[0], v[1], v[2], v[3])
	if err != nil {
		return err
	}
	return printPairs("x", x)
}

func showSpinCorrection(cmd *cobra.Command, args []string) error {
	v, err := parseArgs(args)
	if err != nil {
		return err
	}
	s, err := kerr.SpinCorrection(v[0], v[1], v[2], v[3])
	if err != nil {
		return err
	}
	return printPairs("dOmega_r", s.DeltaOmegaR, "dOmega_phi", s.DeltaOmegaPhi)
}

func showFlux(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	v, err := parseArgs(args[1:])
	if err != nil {
		return err
	}
	model, err := experiment.NewRegistry().GetModel(cfg.Model, cfg.TablesDir, cfg.FluxOptions())
	if err != nil {
		return err
	}
	defer model.Close()

	r, err := model.Derivative(cfg.Epsilon, v[0], v[1], v[2], v[3])
	if err != nil {
		return err
	}
	fmt.Println(title.Render(model.Name()))
	return printPairs("pdot", r.PDot, "edot", r.EDot, "xdot", r.XDot,
		"Omega_phi", r.OmegaPhi, "Omega_theta", r.OmegaTheta, "Omega_r", r.OmegaR)
}

// readColumns reads n float columns from CSV, skipping a header row that
// does not parse as numbers.
func readColumns(r io.Reader, n int) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = n
	cr.Comment = '#'
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	cols := make([][]float64, n)
	for i, rec := range records {
		row := make([]float64, n)
		for j, field := range rec {
			if row[j], err = strconv.ParseFloat(field, 64); err != nil {
				break
			}
		}
		if err != nil {
			if i == 0 {
				err = nil
				continue
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		for j := range cols {
			cols[j] = append(cols[j], row[j])
		}
	}
	return cols, nil
}

func writeColumns(w io.Writer, header []string, cols ...[]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range cols[0] {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = strconv.FormatFloat(c[i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return err
	}
	ev := batch.New(cfg.Workers)

	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	width := 4
	if args[0] == "separatrix" {
		width = 3
	}
	in, err := readColumns(f, width)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	n := len(in[0])
	out := func() []float64 { return make([]float64, n) }

	var header []string
	var cols [][]float64
	switch args[0] {
	case "freq":
		op, ot, or := out(), out(), out()
		err = ev.CoordinateFrequencies(op, ot, or, in[0], in[1], in[2], in[3])
		header, cols = []string{"omega_phi", "omega_theta", "omega_r"}, [][]float64{op, ot, or}
	case "constants":
		e, l, q := out(), out(), out()
		err = ev.ConstantsOfMotion(e, l, q, in[0], in[1], in[2], in[3])
		header, cols = []string{"E", "L", "Q"}, [][]float64{e, l, q}
	case "separatrix":
		p := out()
		err = ev.Separatrix(p, in[0], in[1], in[2])
		header, cols = []string{"p_sep"}, [][]float64{p}
	case "ytox":
		x := out()
		err = ev.YToX(x, in[0], in[1], in[2], in[3])
		header, cols = []string{"x"}, [][]float64{x}
	case "spin":
		dr, dphi := out(), out()
		err = ev.SpinCorrection(dr, dphi, in[0], in[1], in[2], in[3])
		header, cols = []string{"d_omega_r", "d_omega_phi"}, [][]float64{dr, dphi}
	default:
		return fmt.Errorf("unknown batch operation: %s", args[0])
	}

	var be *batch.BatchError
	if errors.As(err, &be) {
		for _, f := range be.Failures {
			log.Warn("msg", "batch element failed", "op", be.Op, "row", f.Index, "err", f.Err)
		}
	} else if err != nil {
		return err
	}
	return writeColumns(os.Stdout, header, cols...)
}
