package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/inspiral/internal/config"
	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/experiment"
	"github.com/san-kum/inspiral/internal/flux"
	"github.com/san-kum/inspiral/internal/trajectory"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const (
	frameInterval = 33 * time.Millisecond
	historyLen    = 240
)

type stepMsg struct {
	x dynamo.State
	t float64
}

type doneMsg struct {
	x      dynamo.State
	t      float64
	result *dynamo.Result
	err    error
}

type liveModel struct {
	cfg    *config.Config
	cancel context.CancelFunc

	x       dynamo.State
	t       float64 // seconds
	tEnd    float64
	pHist   []float64
	eHist   []float64
	frozen  bool
	done    bool
	reason  string
	steps   int
	runErr  error
	updates int

	width  int
	height int
}

func newLiveModel(cfg *config.Config, cancel context.CancelFunc) liveModel {
	return liveModel{
		cfg:    cfg,
		cancel: cancel,
		tEnd:   cfg.Years * trajectory.YRSID_SI,
		width:  80,
		height: 30,
	}
}

func (m liveModel) Init() tea.Cmd { return nil }

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case stepMsg:
		if !m.frozen {
			m.observe(msg.x, msg.t)
		}
		return m, nil
	case doneMsg:
		if msg.x != nil {
			m.observe(msg.x, msg.t)
		}
		m.done = true
		m.runErr = msg.err
		if msg.result != nil {
			m.reason = msg.result.StopReason
			m.steps = msg.result.StepsTaken
		}
		return m, nil
	}
	return m, nil
}

func (m *liveModel) observe(x dynamo.State, t float64) {
	m.x, m.t = x, t
	m.updates++
	if len(x) > flux.IdxE {
		m.pHist = appendBounded(m.pHist, x[flux.IdxP])
		m.eHist = appendBounded(m.eHist, x[flux.IdxE])
	}
}

func appendBounded(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyLen {
		h = h[len(h)-historyLen:]
	}
	return h
}

func (m liveModel) View() string {
	cw := m.width - 6
	ch := m.height - 14
	if cw < 40 {
		cw = 40
	}
	if ch < 12 {
		ch = 12
	}
	canvas := newCanvas(cw, ch)
	drawOrbit(canvas, cw, ch, m.x)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(dimmer.Render("   ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("          " + cyan.Render("i n s p i r a l") + "\n")
	b.WriteString(dimmer.Render("   ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")

	icon, status := green.Render("●"), green.Render("running")
	switch {
	case m.runErr != nil:
		icon, status = red.Render("✕"), red.Render(m.runErr.Error())
	case m.done:
		icon, status = cyan.Render("■"), cyan.Render(fmt.Sprintf("%s after %d steps", m.reason, m.steps))
	case m.frozen:
		icon, status = yellow.Render("○"), yellow.Render("frozen")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n", icon, cyan.Render(m.cfg.Model),
		dim.Render(fmt.Sprintf("a=%.3g ε=%.3g", m.cfg.Spin, m.cfg.Epsilon)), status))

	progress := 0.0
	if m.tEnd > 0 {
		progress = min(m.t/m.tEnd, 1)
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	years := m.t / trajectory.YRSID_SI
	b.WriteString(fmt.Sprintf("   %s %s\n\n", bar, dim.Render(fmt.Sprintf("%.4f/%.4g yr", years, m.cfg.Years))))

	for _, row := range canvas {
		b.WriteString("   " + string(row) + "\n")
	}

	if len(m.x) >= flux.StateDim {
		b.WriteString("\n   ")
		for i, label := range []string{"p", "e", "x"} {
			b.WriteString(dim.Render(label + "="))
			b.WriteString(white.Render(fmt.Sprintf("%.5f", m.x[i])))
			b.WriteString("  ")
		}
		cycles := m.x[flux.IdxPhiPhi] / (2 * math.Pi)
		b.WriteString(dim.Render("N_φ=") + magenta.Render(fmt.Sprintf("%.1f", cycles)) + "\n")
	}
	if len(m.pHist) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("p"), cyan.Render(sparkline(m.pHist, 36))))
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("e"), magenta.Render(sparkline(m.eHist, 36))))
	}

	b.WriteString("\n" + dim.Render("   space freeze   q quit") + "\n")
	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		sb.WriteRune(chars[max(0, min(idx, 7))])
	}
	return sb.String()
}

// RunLive integrates the experiment in the background and shows it until
// the user quits. Quitting cancels the integration.
func RunLive(ctx context.Context, exp *experiment.Experiment, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newLiveModel(cfg, cancel), tea.WithAltScreen())
	go func() {
		var (
			last  time.Time
			lastX dynamo.State
			lastT float64
		)
		result, err := exp.RunWithCallback(ctx, func(x dynamo.State, t float64) bool {
			lastX, lastT = x, t
			if time.Since(last) >= frameInterval {
				last = time.Now()
				p.Send(stepMsg{x: x.Clone(), t: t})
			}
			return true
		})
		if lastX != nil {
			lastX = lastX.Clone()
		}
		p.Send(doneMsg{x: lastX, t: lastT, result: result, err: err})
	}()

	_, err := p.Run()
	return err
}
