// Package tui draws an inspiral in the terminal: a plain ANSI observer for
// streaming runs and a bubbletea live view.
package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/flux"
)

const (
	width       = 70
	height      = 22
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the orbit at most frameRate times per second. It
// implements dynamo.Observer; times are in units of M.
type LiveRenderer struct {
	out       io.Writer
	model     string
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
}

func NewLiveRenderer(out io.Writer, model string, frameRate int) *LiveRenderer {
	if frameRate < 1 {
		frameRate = 1
	}
	return &LiveRenderer{
		out:       out,
		model:     model,
		frameRate: frameRate,
		canvas:    newCanvas(width, height),
	}
}

func (r *LiveRenderer) OnStep(x dynamo.State, t float64) {
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	clearCanvas(r.canvas)
	drawOrbit(r.canvas, width, height, x)
	r.render(x, t)
}

func (r *LiveRenderer) render(x dynamo.State, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.6gM\n", r.model, t))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	if len(x) > flux.IdxX {
		b.WriteString(fmt.Sprintf("  p=%.5f e=%.5f x=%.3f\n", x[flux.IdxP], x[flux.IdxE], x[flux.IdxX]))
	}
	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

func newCanvas(w, h int) [][]rune {
	canvas := make([][]rune, h)
	for i := range canvas {
		canvas[i] = make([]rune, w)
	}
	clearCanvas(canvas)
	return canvas
}

func clearCanvas(canvas [][]rune) {
	for y := range canvas {
		for x := range canvas[y] {
			canvas[y][x] = ' '
		}
	}
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

// drawOrbit draws the osculating ellipse r = p/(1 + e cos χ) in the orbital
// plane with the hole at the centre. The periapsis sits at Φφ - Φr and the
// body at radial phase Φr; terminal cells are taken to be twice as tall as
// they are wide.
func drawOrbit(canvas [][]rune, w, h int, x dynamo.State) {
	cx, cy := w/2, h/2
	set(canvas, cx, cy, '@', w, h)
	if len(x) < flux.StateDim {
		return
	}
	p, e := x[flux.IdxP], x[flux.IdxE]
	if p <= 0 || e < 0 || e >= 1 {
		return
	}
	apo := p / (1 - e)
	scale := math.Min(float64(w/2-1)/apo, 2*float64(h/2-1)/apo)
	plot := func(r, angle float64) (int, int) {
		px := cx + int(math.Round(r*math.Cos(angle)*scale))
		py := cy - int(math.Round(r*math.Sin(angle)*scale/2))
		return px, py
	}

	peri := x[flux.IdxPhiPhi] - x[flux.IdxPhiR]
	const points = 240
	for i := 0; i < points; i++ {
		chi := 2 * math.Pi * float64(i) / points
		px, py := plot(p/(1+e*math.Cos(chi)), peri+chi)
		set(canvas, px, py, '.', w, h)
	}

	chi := x[flux.IdxPhiR]
	px, py := plot(p/(1+e*math.Cos(chi)), x[flux.IdxPhiPhi])
	set(canvas, px, py, 'o', w, h)
}
