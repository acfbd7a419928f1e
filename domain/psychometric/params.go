package psychometric

import (
	"fmt"
	"math"

	"psyfit/domain/core"
)

// Params holds the four parameters of the logistic psychometric function.
// M and S are fitted; A and B are fixed by the task design.
type Params struct {
	M float64 `json:"m"` // location (threshold estimate)
	S float64 `json:"s"` // scale, > 0
	A float64 `json:"a"` // slope coefficient
	B float64 `json:"b"` // floor / guess rate
}

// TwoAFC returns parameters for a two-interval forced choice task.
func TwoAFC(m, s float64) Params {
	return Params{M: m, S: s, A: 0.5, B: 0.5}
}

// YesNo returns parameters for a yes/no task.
func YesNo(m, s float64) Params {
	return Params{M: m, S: s, A: 1, B: 0}
}

// Validate checks that the parameters describe a proper probability curve.
func (p Params) Validate() error {
	switch {
	case math.IsNaN(p.M) || math.IsInf(p.M, 0):
		return core.NewConfigError("m", "must be finite")
	case !(p.S > 0) || math.IsInf(p.S, 0):
		return core.NewConfigError("s", "must be positive and finite")
	case !(p.A > 0):
		return core.NewConfigError("a", "must be positive")
	case p.B < 0:
		return core.NewConfigError("b", "must be non-negative")
	case p.A+p.B > 1:
		return core.NewConfigError("a+b", "must not exceed 1")
	}
	return nil
}

// Prob is PF evaluated at x
func (p Params) Prob(x float64) float64 {
	return PF(x, p.M, p.S, p.A, p.B)
}

// Threshold is the stimulus level at which PF reaches pt.
func (p Params) Threshold(pt float64) (float64, error) {
	return PFInv(pt, p.M, p.S, p.A, p.B)
}

func (p Params) String() string {
	return fmt.Sprintf("PF(M=%.4g, S=%.4g, a=%.3g, b=%.3g)", p.M, p.S, p.A, p.B)
}
