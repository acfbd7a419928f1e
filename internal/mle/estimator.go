// Package mle implements Best-PEST: after every response the psychometric
// function is refitted to the whole history by maximum likelihood and the
// next stimulus is placed at the fitted location M.
package mle

import (
	"math"

	"psyfit/domain/core"
	"psyfit/domain/psychometric"
	"psyfit/domain/trial"
)

// Estimator is a Best-PEST run. It is not safe for concurrent use.
type Estimator struct {
	cfg       Config
	params    psychometric.Params
	history   *trial.History
	optimizer Optimizer
	lastFit   FitResult
}

// New creates an estimator starting from (InitialM, InitialS).
func New(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params := psychometric.Params{M: cfg.InitialM, S: cfg.InitialS, A: cfg.A, B: cfg.B}
	return &Estimator{
		cfg:       cfg,
		params:    params,
		history:   trial.NewHistory(cfg.MaxTrials),
		optimizer: NewOptimizer(cfg.FitConfig),
		lastFit:   FitResult{M: params.M, S: params.S},
	}, nil
}

// Update records a response at level x, refits from the current estimate
// and returns the new M as the next level.
func (e *Estimator) Update(isCorrect bool, x float64) (float64, error) {
	if e.HasEnded() {
		return e.params.M, core.ErrEnded
	}
	if !finite(x) {
		return e.params.M, core.NewDomainError("x", x, math.Inf(-1), math.Inf(1))
	}

	e.history.Record(isCorrect, x)
	e.lastFit = e.optimizer.Fit(e.history.All(), e.params)
	e.params.M, e.params.S = e.lastFit.M, e.lastFit.S
	return e.params.M, nil
}

// HasEnded reports whether MaxTrials responses have been recorded
func (e *Estimator) HasEnded() bool {
	return e.history.Total() >= e.cfg.MaxTrials
}

// Estimate is the fitted threshold location M
func (e *Estimator) Estimate() float64 { return e.params.M }

// Params returns the current psychometric function estimate
func (e *Estimator) Params() psychometric.Params { return e.params }

// LastFit returns the status of the most recent fit
func (e *Estimator) LastFit() FitResult { return e.lastFit }

// Trials returns the number of recorded responses
func (e *Estimator) Trials() int { return e.history.Total() }

// Correct returns the number of correct responses
func (e *Estimator) Correct() int { return e.history.Correct() }

// History returns a copy of the recorded trials
func (e *Estimator) History() []trial.Trial { return e.history.All() }

// Config returns the estimator settings
func (e *Estimator) Config() Config { return e.cfg }
