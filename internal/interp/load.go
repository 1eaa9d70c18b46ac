package interp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// File names of the tabulated flux data inside a tables directory.
const (
	SchwarzschildFile = "FluxNewMinusPNScaled_fixed_y_order.dat"

	KerrAxisA   = "x0.dat"
	KerrAxisU   = "x1.dat"
	KerrAxisW   = "x2.dat"
	KerrPDot    = "coeff_pdot.dat"
	KerrEDot    = "coeff_edot.dat"
	KerrEnDot   = "coeff_Endot.dat"
	KerrLDot    = "coeff_Ldot.dat"
	kerrDataDir = "KerrEqEcc"
)

// readRows parses whitespace separated numeric rows, skipping blank lines
// and lines starting with '#'. Every row must have width columns.
func readRows(r io.Reader, width int) ([][]float64, error) {
	var rows [][]float64
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != width {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, width, len(fields))
		}
		row := make([]float64, width)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadVector reads a single-column numeric file.
func ReadVector(r io.Reader) ([]float64, error) {
	rows, err := readRows(r, 1)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[0]
	}
	return out, nil
}

// LoadVector reads a single-column numeric file from disk.
func LoadVector(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	v, err := ReadVector(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func uniqueSorted(v []float64) []float64 {
	out := append([]float64(nil), v...)
	sort.Float64s(out)
	n := 0
	for i, x := range out {
		if i == 0 || x != out[n-1] {
			out[n] = x
			n++
		}
	}
	return out[:n]
}

// ReadSchwarzschildTable parses rows of "y e Edot Ldot" into the two
// flux-correction interpolants over (y, e). Rows may come in any order but
// must cover the full grid exactly once.
func ReadSchwarzschildTable(r io.Reader) (edot, ldot *Grid2D, err error) {
	rows, err := readRows(r, 4)
	if err != nil {
		return nil, nil, err
	}
	ys := make([]float64, len(rows))
	es := make([]float64, len(rows))
	for i, row := range rows {
		ys[i], es[i] = row[0], row[1]
	}
	yAxis, eAxis := uniqueSorted(ys), uniqueSorted(es)
	ny, ne := len(yAxis), len(eAxis)
	if ny*ne != len(rows) {
		return nil, nil, fmt.Errorf("%w: %d rows for %dx%d grid", ErrValues, len(rows), ny, ne)
	}

	eVals := make([]float64, ny*ne)
	lVals := make([]float64, ny*ne)
	seen := make([]bool, ny*ne)
	for _, row := range rows {
		i := sort.SearchFloat64s(yAxis, row[0])
		j := sort.SearchFloat64s(eAxis, row[1])
		k := i*ne + j
		if seen[k] {
			return nil, nil, fmt.Errorf("%w: duplicate point y=%g e=%g", ErrValues, row[0], row[1])
		}
		seen[k] = true
		eVals[k], lVals[k] = row[2], row[3]
	}

	if edot, err = NewGrid2D(yAxis, eAxis, eVals); err != nil {
		return nil, nil, err
	}
	if ldot, err = NewGrid2D(yAxis, eAxis, lVals); err != nil {
		return nil, nil, err
	}
	return edot, ldot, nil
}

// LoadSchwarzschildTable loads SchwarzschildFile from dir.
func LoadSchwarzschildTable(dir string) (edot, ldot *Grid2D, err error) {
	path := filepath.Join(dir, SchwarzschildFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	edot, ldot, err = ReadSchwarzschildTable(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return edot, ldot, nil
}

// KerrTables holds the equatorial eccentric flux fits over (a, u, w).
// EnDot and LDot are nil when their files are absent.
type KerrTables struct {
	PDot, EDot  *Grid3D
	EnDot, LDot *Grid3D
}

// LoadKerrTables loads the axis files and coefficient grids from dir, or
// from its KerrEqEcc subdirectory when dir itself holds no axis files.
// Coefficient files list tabulated grid values, not spline coefficients,
// row-major with w fastest.
func LoadKerrTables(dir string) (*KerrTables, error) {
	if _, err := os.Stat(filepath.Join(dir, KerrAxisA)); os.IsNotExist(err) {
		dir = filepath.Join(dir, kerrDataDir)
	}

	var axes [3][]float64
	for i, name := range []string{KerrAxisA, KerrAxisU, KerrAxisW} {
		v, err := LoadVector(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		axes[i] = v
	}

	grid := func(name string, optional bool) (*Grid3D, error) {
		path := filepath.Join(dir, name)
		v, err := LoadVector(path)
		if err != nil {
			if optional && os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		g, err := NewGrid3D(axes[0], axes[1], axes[2], v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return g, nil
	}

	t := &KerrTables{}
	var err error
	if t.PDot, err = grid(KerrPDot, false); err != nil {
		return nil, err
	}
	if t.EDot, err = grid(KerrEDot, false); err != nil {
		return nil, err
	}
	if t.EnDot, err = grid(KerrEnDot, true); err != nil {
		return nil, err
	}
	if t.LDot, err = grid(KerrLDot, true); err != nil {
		return nil, err
	}
	return t, nil
}
