// Package observer provides simulated listeners that answer trials by
// drawing from a known psychometric function.
package observer

import (
	"context"
	"math"
	"math/rand/v2"

	"psyfit/domain/core"
	"psyfit/domain/psychometric"

	"gonum.org/v1/gonum/stat/distuv"
)

// Simulated answers correctly with probability PF(x) of its true parameters.
// It is not safe for concurrent use; give each session its own observer.
type Simulated struct {
	truth psychometric.Params
	src   rand.Source

	presented int
	correct   int
}

// NewSimulated creates an observer drawing from src.
func NewSimulated(truth psychometric.Params, src rand.Source) (*Simulated, error) {
	if err := truth.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, core.NewConfigError("source", "must not be nil")
	}
	return &Simulated{truth: truth, src: src}, nil
}

// Respond draws one Bernoulli response at level x.
func (o *Simulated) Respond(ctx context.Context, x float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false, core.NewDomainError("x", x, math.Inf(-1), math.Inf(1))
	}

	trial := distuv.Bernoulli{P: o.truth.Prob(x), Src: o.src}
	ok := trial.Rand() == 1

	o.presented++
	if ok {
		o.correct++
	}
	return ok, nil
}

// Truth returns the parameters responses are drawn from
func (o *Simulated) Truth() psychometric.Params { return o.truth }

// Threshold is the level at which the true PF reaches pt
func (o *Simulated) Threshold(pt float64) (float64, error) {
	return o.truth.Threshold(pt)
}

// Presented returns how many trials were answered
func (o *Simulated) Presented() int { return o.presented }

// Correct returns how many answers were correct
func (o *Simulated) Correct() int { return o.correct }
