package mle

import (
	"fmt"
	"math"

	"psyfit/domain/core"
	"psyfit/domain/psychometric"
	"psyfit/domain/trial"
	"psyfit/internal/hdi"

	"gonum.org/v1/gonum/floats"
)

// LikelihoodGrid evaluates the likelihood of trials over candidate locations
// with S, A and B taken from p, and returns it normalized to unit mass.
func LikelihoodGrid(trials []trial.Trial, p psychometric.Params, coords []float64) (*hdi.Distribution, error) {
	if len(trials) == 0 {
		return nil, fmt.Errorf("%w: no trials to evaluate", core.ErrInvalidDistribution)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 grid points, got %d", core.ErrInvalidDistribution, len(coords))
	}

	obj := objective{trials: trials, a: p.A, b: p.B}
	logL := make([]float64, len(coords))
	for i, m := range coords {
		logL[i] = -obj.value(m, p.S)
	}

	// shift by the maximum before exponentiating
	peak := floats.Max(logL)
	weights := make([]float64, len(coords))
	for i, l := range logL {
		weights[i] = math.Exp(l - peak)
	}

	dist, err := hdi.NewDistribution(coords, weights)
	if err != nil {
		return nil, err
	}
	return dist.Normalize()
}

// LikelihoodGrid evaluates the normalized likelihood of the recorded history
// over the given locations, at the current S.
func (e *Estimator) LikelihoodGrid(coords []float64) (*hdi.Distribution, error) {
	return LikelihoodGrid(e.history.All(), e.params, coords)
}

// CredibleInterval returns the 1−alpha highest-density interval of the
// likelihood of M over coords.
func (e *Estimator) CredibleInterval(coords []float64, alpha float64) (hdi.Interval, error) {
	dist, err := e.LikelihoodGrid(coords)
	if err != nil {
		return hdi.Interval{}, err
	}
	return hdi.Calculate(dist, alpha)
}
