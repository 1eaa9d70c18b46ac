// Package interp provides tensor-product cubic spline interpolants over
// rectilinear grids and loaders for the tabulated flux data.
//
// Interpolants are immutable after construction and safe for concurrent
// Eval calls. Outside the grid, values are clamped to the boundary spline.
package interp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Interpolant2D evaluates a tabulated function of two variables.
type Interpolant2D interface {
	Eval(x, y float64) float64
}

// Interpolant3D evaluates a tabulated function of three variables.
type Interpolant3D interface {
	Eval(x, y, z float64) float64
}

// Func2D adapts a plain function to Interpolant2D.
type Func2D func(x, y float64) float64

func (f Func2D) Eval(x, y float64) float64 { return f(x, y) }

// Func3D adapts a plain function to Interpolant3D.
type Func3D func(x, y, z float64) float64

func (f Func3D) Eval(x, y, z float64) float64 { return f(x, y, z) }

var (
	ErrAxis   = errors.New("interp: axis must have at least 2 strictly increasing points")
	ErrValues = errors.New("interp: value count does not match grid")
)

func checkAxis(name string, xs []float64) error {
	if len(xs) < 2 {
		return fmt.Errorf("%w: %s has %d points", ErrAxis, name, len(xs))
	}
	if floats.HasNaN(xs) {
		return fmt.Errorf("%w: %s contains NaN", ErrAxis, name)
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return fmt.Errorf("%w: %s[%d]=%g after %g", ErrAxis, name, i, xs[i], xs[i-1])
		}
	}
	return nil
}

func fit(xs, ys []float64) (*interp.NaturalCubic, error) {
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		return nil, err
	}
	return &nc, nil
}

// predictAcross fits a spline through (xs, ys) and evaluates it at x.
func predictAcross(xs, ys []float64, x float64) float64 {
	nc, err := fit(xs, ys)
	if err != nil {
		return math.NaN()
	}
	return nc.Predict(x)
}

// Grid2D is a natural cubic spline interpolant on an (x, y) grid.
type Grid2D struct {
	x, y []float64
	// rows[i] interpolates along y at x[i].
	rows []*interp.NaturalCubic
}

// NewGrid2D builds an interpolant from values laid out row-major,
// values[i*len(y)+j] = f(x[i], y[j]).
func NewGrid2D(x, y, values []float64) (*Grid2D, error) {
	if err := checkAxis("x", x); err != nil {
		return nil, err
	}
	if err := checkAxis("y", y); err != nil {
		return nil, err
	}
	if len(values) != len(x)*len(y) {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrValues, len(values), len(x), len(y))
	}

	g := &Grid2D{x: append([]float64(nil), x...), y: append([]float64(nil), y...)}
	g.rows = make([]*interp.NaturalCubic, len(x))
	ny := len(y)
	for i := range x {
		nc, err := fit(g.y, values[i*ny:(i+1)*ny])
		if err != nil {
			return nil, fmt.Errorf("interp: row %d: %w", i, err)
		}
		g.rows[i] = nc
	}
	return g, nil
}

func (g *Grid2D) Eval(x, y float64) float64 {
	col := make([]float64, len(g.x))
	for i, r := range g.rows {
		col[i] = r.Predict(y)
	}
	return predictAcross(g.x, col, x)
}

// Bounds returns the grid extent.
func (g *Grid2D) Bounds() (xmin, xmax, ymin, ymax float64) {
	return g.x[0], g.x[len(g.x)-1], g.y[0], g.y[len(g.y)-1]
}

// Grid3D is a natural cubic spline interpolant on an (x, y, z) grid.
type Grid3D struct {
	x, y, z []float64
	// lines[i*len(y)+j] interpolates along z at (x[i], y[j]).
	lines []*interp.NaturalCubic
}

// NewGrid3D builds an interpolant from values laid out row-major with z
// fastest, values[(i*len(y)+j)*len(z)+k] = f(x[i], y[j], z[k]).
func NewGrid3D(x, y, z, values []float64) (*Grid3D, error) {
	for _, ax := range []struct {
		name string
		v    []float64
	}{{"x", x}, {"y", y}, {"z", z}} {
		if err := checkAxis(ax.name, ax.v); err != nil {
			return nil, err
		}
	}
	nx, ny, nz := len(x), len(y), len(z)
	if len(values) != nx*ny*nz {
		return nil, fmt.Errorf("%w: %d values for %dx%dx%d grid", ErrValues, len(values), nx, ny, nz)
	}

	g := &Grid3D{
		x: append([]float64(nil), x...),
		y: append([]float64(nil), y...),
		z: append([]float64(nil), z...),
	}
	g.lines = make([]*interp.NaturalCubic, nx*ny)
	for n := range g.lines {
		nc, err := fit(g.z, values[n*nz:(n+1)*nz])
		if err != nil {
			return nil, fmt.Errorf("interp: line %d: %w", n, err)
		}
		g.lines[n] = nc
	}
	return g, nil
}

func (g *Grid3D) Eval(x, y, z float64) float64 {
	ny := len(g.y)
	col := make([]float64, len(g.x))
	row := make([]float64, ny)
	for i := range g.x {
		for j := 0; j < ny; j++ {
			row[j] = g.lines[i*ny+j].Predict(z)
		}
		col[i] = predictAcross(g.y, row, y)
	}
	return predictAcross(g.x, col, x)
}

// Bounds returns the extent of each axis as [min, max] pairs.
func (g *Grid3D) Bounds() [3][2]float64 {
	return [3][2]float64{
		{g.x[0], g.x[len(g.x)-1]},
		{g.y[0], g.y[len(g.y)-1]},
		{g.z[0], g.z[len(g.z)-1]},
	}
}
