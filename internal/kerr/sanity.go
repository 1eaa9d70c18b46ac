package kerr

import (
	"fmt"

	"github.com/san-kum/inspiral/internal/dynamo"
	"github.com/san-kum/inspiral/internal/log"
	"github.com/san-kum/inspiral/internal/telemetry"
)

// SanityCheck reports geometry outside the nominal physical domain:
// p < 0, e outside [0,1], |x| > 1 or a outside [0,1].
func SanityCheck(g Geometry) error {
	switch {
	case g.P < 0:
		return fmt.Errorf("%w: p=%g < 0", dynamo.ErrSanity, g.P)
	case g.E < 0 || g.E > 1:
		return fmt.Errorf("%w: e=%g outside [0,1]", dynamo.ErrSanity, g.E)
	case g.X < -1 || g.X > 1:
		return fmt.Errorf("%w: x=%g outside [-1,1]", dynamo.ErrSanity, g.X)
	case g.A < 0 || g.A > 1:
		return fmt.Errorf("%w: a=%g outside [0,1]", dynamo.ErrSanity, g.A)
	}
	return nil
}

// CheckSanity runs SanityCheck. A violation is always logged and counted;
// it is returned only when strict is set.
func CheckSanity(g Geometry, strict bool) error {
	err := SanityCheck(g)
	if err == nil {
		return nil
	}
	telemetry.SanityViolations.Inc()
	log.Warn("msg", "orbit outside physical domain", "a", g.A, "p", g.P, "e", g.E, "x", g.X, "strict", strict)
	if strict {
		return err
	}
	return nil
}
