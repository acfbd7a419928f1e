package mle

import (
	"fmt"
	"math"
	"strings"

	"psyfit/domain/core"
)

// OptimizerKind selects the routine that maximizes the likelihood
type OptimizerKind string

const (
	OptimizerGradient OptimizerKind = "gradient"
	OptimizerLBFGS    OptimizerKind = "lbfgs"
)

// ParseOptimizerKind accepts the names used in configuration files
func ParseOptimizerKind(s string) (OptimizerKind, error) {
	switch k := OptimizerKind(strings.ToLower(strings.TrimSpace(s))); k {
	case OptimizerGradient, OptimizerLBFGS:
		return k, nil
	case "":
		return OptimizerGradient, nil
	default:
		return "", core.NewConfigError("optimizer", fmt.Sprintf("unknown kind %q", s))
	}
}

// FitConfig tunes a single maximum-likelihood fit.
type FitConfig struct {
	A              float64       `json:"a" validate:"gt=0,lte=1"`
	B              float64       `json:"b" validate:"gte=0,lt=1"`
	LearningRate   float64       `json:"learning_rate" validate:"gt=0"`   // η
	ConvergenceEps float64       `json:"convergence_eps" validate:"gt=0"` // stop once ‖∇‖ < ε
	MaxIterations  int           `json:"max_iterations" validate:"gt=0"`
	FitScale       bool          `json:"fit_scale"` // false holds S fixed
	Optimizer      OptimizerKind `json:"optimizer" validate:"omitempty,oneof=gradient lbfgs"`
}

// Validate rejects settings that cannot produce a fit
func (c FitConfig) Validate() error {
	switch {
	case !(c.A > 0) || c.B < 0 || c.A+c.B > 1:
		return core.NewConfigError("a/b", fmt.Sprintf("a=%g b=%g do not describe a probability curve", c.A, c.B))
	case !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0):
		return core.NewConfigError("learning_rate", "must be positive and finite")
	case !(c.ConvergenceEps > 0):
		return core.NewConfigError("convergence_eps", "must be positive")
	case c.MaxIterations <= 0:
		return core.NewConfigError("max_iterations", "must be positive")
	}
	if _, err := ParseOptimizerKind(string(c.Optimizer)); err != nil {
		return err
	}
	return nil
}

// Config holds the Best-PEST estimator settings.
type Config struct {
	InitialM  float64 `json:"initial_m"`
	InitialS  float64 `json:"initial_s" validate:"gt=0"`
	MaxTrials int     `json:"max_trials" validate:"gt=0"` // T_end
	FitConfig
}

// DefaultConfig returns Best-PEST settings for a 2AFC task. S is held fixed:
// the location estimate is insensitive to S within a factor of about four.
func DefaultConfig() Config {
	return Config{
		InitialM:  30,
		InitialS:  1,
		MaxTrials: 50,
		FitConfig: FitConfig{
			A:              0.5,
			B:              0.5,
			LearningRate:   0.05,
			ConvergenceEps: 1e-6,
			MaxIterations:  3000,
			FitScale:       false,
			Optimizer:      OptimizerGradient,
		},
	}
}

// Validate checks the estimator settings
func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.InitialM) || math.IsInf(c.InitialM, 0):
		return core.NewConfigError("initial_m", "must be finite")
	case !(c.InitialS > 0) || math.IsInf(c.InitialS, 0):
		return core.NewConfigError("initial_s", "must be positive and finite")
	case c.MaxTrials <= 0:
		return core.NewConfigError("max_trials", "must be positive")
	}
	return c.FitConfig.Validate()
}
