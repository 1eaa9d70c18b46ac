package flux

import (
	"fmt"

	"github.com/san-kum/inspiral/internal/dynamo"
)

// State layout used by System.
const (
	IdxP = iota
	IdxE
	IdxX
	IdxPhiPhi
	IdxPhiTheta
	IdxPhiR
	StateDim
)

// System adapts a Model to dynamo.System. The state is
// [p, e, x, Φ_φ, Φ_θ, Φ_r] and time is in units of the primary mass; the
// phases advance at the coordinate frequencies.
type System struct {
	Model   Model
	Epsilon float64
	Spin    float64
}

func NewSystem(m Model, epsilon, a float64) *System {
	return &System{Model: m, Epsilon: epsilon, Spin: a}
}

func (s *System) StateDim() int { return StateDim }

// Rates evaluates the model at the orbit held in x.
func (s *System) Rates(x dynamo.State) (Rates, error) {
	if len(x) < IdxPhiPhi {
		return Rates{}, fmt.Errorf("%w: state has %d entries", dynamo.ErrDimensionMismatch, len(x))
	}
	return s.Model.Derivative(s.Epsilon, s.Spin, x[IdxP], x[IdxE], x[IdxX])
}

func (s *System) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	r, err := s.Rates(x)
	if err != nil {
		return nil, err
	}
	dx := make(dynamo.State, StateDim)
	dx[IdxP] = r.PDot
	dx[IdxE] = r.EDot
	dx[IdxX] = r.XDot
	if !r.Stalled() {
		dx[IdxPhiPhi] = r.OmegaPhi
		dx[IdxPhiTheta] = r.OmegaTheta
		dx[IdxPhiR] = r.OmegaR
	}
	return dx, nil
}
