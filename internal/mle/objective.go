package mle

import (
	"math"

	"psyfit/domain/psychometric"
	"psyfit/domain/trial"

	"gonum.org/v1/gonum/floats"
)

// objective is the negative log-likelihood of a trial history. Every trial
// contributes with its cumulative counts T and C, so later trials weigh more.
type objective struct {
	trials   []trial.Trial
	a, b     float64
	fitScale bool
}

// value returns −L(m, s)
func (o objective) value(m, s float64) float64 {
	var l float64
	for _, tr := range o.trials {
		l += psychometric.LogLikelihood(tr.X, tr.T, tr.C, m, s, o.a, o.b)
	}
	return -l
}

// gradient writes ∇(−L) at (m, s) into dst[0:2]. The S component is zero
// unless the scale is fitted.
func (o objective) gradient(dst []float64, m, s float64) {
	dst[0], dst[1] = 0, 0
	for _, tr := range o.trials {
		dst[0] -= psychometric.DLogLikelihoodDM(tr.X, tr.T, tr.C, m, s, o.a, o.b)
		if o.fitScale {
			dst[1] -= psychometric.DLogLikelihoodDS(tr.X, tr.T, tr.C, m, s, o.a, o.b)
		}
	}
}

func (o objective) gradNorm(m, s float64) float64 {
	g := make([]float64, 2)
	o.gradient(g, m, s)
	return floats.Norm(g, 2)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
