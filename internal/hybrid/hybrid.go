// Package hybrid combines the two estimators: the PEST staircase chooses the
// stimulus levels for the whole run, and a single maximum-likelihood fit over
// the complete history produces the final estimate.
package hybrid

import (
	"fmt"
	"math"
	"strings"

	"psyfit/domain/core"
	"psyfit/domain/psychometric"
	"psyfit/domain/staircase"
	"psyfit/domain/trial"
	"psyfit/internal/mle"
)

// Phase is the stage of a hybrid run
type Phase int

const (
	PhaseStaircase Phase = iota // levels come from the staircase
	PhaseFinalFit               // the final fit has run; the estimate is fixed
)

func (p Phase) String() string {
	switch p {
	case PhaseStaircase:
		return "staircase"
	case PhaseFinalFit:
		return "final_fit"
	default:
		return "unknown"
	}
}

// Config holds the hybrid settings. The staircase starts with a step of
// 4·MinStep capped at 8·MinStep, and the fit starts from S = MinStep.
type Config struct {
	InitialM         float64 `json:"initial_m"`
	MinStep          int     `json:"min_step" validate:"gt=0"`
	TargetProportion float64 `json:"target_proportion" validate:"gt=0,lt=1"`
	DeviationLimit   float64 `json:"deviation_limit" validate:"gt=0"`
	MaxTrials        int     `json:"max_trials" validate:"gt=0"`
	mle.FitConfig
}

// DefaultConfig returns hybrid settings for a 2AFC task
func DefaultConfig() Config {
	return Config{
		InitialM:         30,
		MinStep:          1,
		TargetProportion: 0.75,
		DeviationLimit:   1.5,
		MaxTrials:        50,
		FitConfig: mle.FitConfig{
			A:              0.5,
			B:              0.5,
			LearningRate:   0.05,
			ConvergenceEps: 1e-6,
			MaxIterations:  300000,
			FitScale:       true,
			Optimizer:      mle.OptimizerGradient,
		},
	}
}

func (c Config) staircaseConfig() staircase.Config {
	return staircase.Config{
		InitialStep:      4 * c.MinStep,
		MinStep:          c.MinStep,
		MaxStep:          8 * c.MinStep,
		TargetProportion: c.TargetProportion,
		DeviationLimit:   c.DeviationLimit,
	}
}

// Validate checks the hybrid settings
func (c Config) Validate() error {
	if math.IsNaN(c.InitialM) || math.IsInf(c.InitialM, 0) {
		return core.NewConfigError("initial_m", "must be finite")
	}
	if c.MaxTrials <= 0 {
		return core.NewConfigError("max_trials", "must be positive")
	}
	if err := c.staircaseConfig().Validate(); err != nil {
		return err
	}
	return c.FitConfig.Validate()
}

// Warning flags a final estimate that drifted far from its starting values,
// which usually means the initial guesses were misconfigured.
type Warning struct {
	M       float64
	S       float64
	Reasons []string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("suspicious estimate M=%.4g S=%.4g: %s", w.M, w.S, strings.Join(w.Reasons, "; "))
}

// Estimator is a hybrid run. It is not safe for concurrent use.
type Estimator struct {
	cfg     Config
	stair   *staircase.Staircase
	history *trial.History
	phase   Phase

	initS   float64
	params  psychometric.Params
	lastFit mle.FitResult
}

// New creates a hybrid estimator in the staircase phase.
func New(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stair, err := staircase.New(cfg.staircaseConfig())
	if err != nil {
		return nil, err
	}
	initS := float64(cfg.MinStep)
	return &Estimator{
		cfg:     cfg,
		stair:   stair,
		history: trial.NewHistory(cfg.MaxTrials),
		phase:   PhaseStaircase,
		initS:   initS,
		params:  psychometric.Params{M: cfg.InitialM, S: initS, A: cfg.A, B: cfg.B},
	}, nil
}

// Update records a response at level x and returns the next staircase level.
// The response that completes MaxTrials triggers the final fit.
func (e *Estimator) Update(isCorrect bool, x float64) (float64, error) {
	if e.phase == PhaseFinalFit {
		return e.stair.Xt(), core.ErrEnded
	}

	// the staircase's own end condition does not stop a hybrid run
	next, err := e.stair.Step(isCorrect, x)
	if err != nil {
		return next, err
	}
	e.history.Record(isCorrect, x)

	if e.history.Total() >= e.cfg.MaxTrials {
		e.finalFit()
	}
	return next, nil
}

func (e *Estimator) finalFit() {
	start := psychometric.Params{M: e.stair.Xt(), S: e.initS, A: e.cfg.A, B: e.cfg.B}
	e.lastFit = mle.Fit(e.history.All(), start, e.cfg.FitConfig)
	e.params.M, e.params.S = e.lastFit.M, e.lastFit.S
	e.phase = PhaseFinalFit
}

// HasEnded reports whether the final fit has run
func (e *Estimator) HasEnded() bool { return e.phase == PhaseFinalFit }

// Estimate is the fitted M once the run has ended and the staircase level
// before that.
func (e *Estimator) Estimate() float64 {
	if e.phase == PhaseFinalFit {
		return e.params.M
	}
	return e.stair.Xt()
}

// Phase returns the current phase
func (e *Estimator) Phase() Phase { return e.phase }

// Params returns the fitted function once the run has ended, the initial
// guess before that.
func (e *Estimator) Params() psychometric.Params { return e.params }

// LastFit returns the status of the final fit (zero before it ran)
func (e *Estimator) LastFit() mle.FitResult { return e.lastFit }

// Staircase exposes the level-selection state
func (e *Estimator) Staircase() staircase.State { return e.stair.State() }

// Trials returns the number of recorded responses
func (e *Estimator) Trials() int { return e.history.Total() }

// History returns a copy of the recorded trials
func (e *Estimator) History() []trial.Trial { return e.history.All() }

// ValidateParameter returns a non-nil warning when S left
// [S_init/10, 10·S_init] or M moved more than 10·S_init from InitialM.
// It is advisory and never changes the estimate.
func (e *Estimator) ValidateParameter() *Warning {
	var reasons []string
	if e.params.S > 10*e.initS {
		reasons = append(reasons, fmt.Sprintf("S exceeds 10x its initial value %g", e.initS))
	}
	if e.params.S < e.initS/10 {
		reasons = append(reasons, fmt.Sprintf("S is below 1/10 of its initial value %g", e.initS))
	}
	if math.Abs(e.params.M-e.cfg.InitialM) > 10*e.initS {
		reasons = append(reasons, fmt.Sprintf("M drifted more than %g from %g", 10*e.initS, e.cfg.InitialM))
	}
	if len(reasons) == 0 {
		return nil
	}
	return &Warning{M: e.params.M, S: e.params.S, Reasons: reasons}
}
