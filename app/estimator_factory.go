package app

import (
	"fmt"
	"strings"

	"psyfit/domain/core"
	"psyfit/domain/staircase"
	"psyfit/internal/hybrid"
	"psyfit/internal/mle"
	"psyfit/ports"
)

// Method names a threshold estimation procedure
type Method string

const (
	MethodStaircase Method = "pest"
	MethodBestPEST  Method = "best_pest"
	MethodHybrid    Method = "hybrid"
)

// ParseMethod accepts the method names used on the command line and in env files
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pest", "staircase":
		return MethodStaircase, nil
	case "best_pest", "bestpest", "best-pest", "mle":
		return MethodBestPEST, nil
	case "hybrid":
		return MethodHybrid, nil
	default:
		return "", core.NewConfigError("method", fmt.Sprintf("unknown method %q", s))
	}
}

// EstimatorSettings carries the configuration of every method; only the
// block matching Method is used.
type EstimatorSettings struct {
	Method     Method
	Staircase  staircase.Config
	Likelihood mle.Config
	Hybrid     hybrid.Config
}

// Selected returns the name and settings block of Method, or a nil block
// for an unknown method.
func (s EstimatorSettings) Selected() (string, interface{}) {
	switch s.Method {
	case MethodStaircase:
		return "staircase", s.Staircase
	case MethodBestPEST:
		return "likelihood", s.Likelihood
	case MethodHybrid:
		return "hybrid", s.Hybrid
	default:
		return "", nil
	}
}

// DefaultEstimatorSettings returns the default settings of every method
func DefaultEstimatorSettings(method Method) EstimatorSettings {
	return EstimatorSettings{
		Method:     method,
		Staircase:  staircase.DefaultConfig(),
		Likelihood: mle.DefaultConfig(),
		Hybrid:     hybrid.DefaultConfig(),
	}
}

// EstimatorFactory builds fresh estimators, one per session
type EstimatorFactory struct {
	settings EstimatorSettings
}

// NewEstimatorFactory validates the selected method's settings.
func NewEstimatorFactory(settings EstimatorSettings) (*EstimatorFactory, error) {
	f := &EstimatorFactory{settings: settings}
	// build once to surface configuration errors early
	if _, err := f.New(); err != nil {
		return nil, err
	}
	return f, nil
}

// Method returns the configured method
func (f *EstimatorFactory) Method() Method { return f.settings.Method }

// Settings returns the configured settings
func (f *EstimatorFactory) Settings() EstimatorSettings { return f.settings }

// New creates an estimator in its initial state.
func (f *EstimatorFactory) New() (ports.EstimatorPort, error) {
	var (
		est ports.EstimatorPort
		err error
	)
	switch f.settings.Method {
	case MethodStaircase:
		est, err = staircase.New(f.settings.Staircase)
	case MethodBestPEST:
		est, err = mle.New(f.settings.Likelihood)
	case MethodHybrid:
		est, err = hybrid.New(f.settings.Hybrid)
	default:
		err = core.NewConfigError("method", fmt.Sprintf("unknown method %q", f.settings.Method))
	}
	if err != nil {
		return nil, fmt.Errorf("%s estimator: %w", f.settings.Method, err)
	}
	return est, nil
}

// TargetProportion is the response probability the selected method tracks
func (f *EstimatorFactory) TargetProportion() float64 {
	switch f.settings.Method {
	case MethodStaircase:
		return f.settings.Staircase.TargetProportion
	case MethodHybrid:
		return f.settings.Hybrid.TargetProportion
	default:
		// Best-PEST tracks M, the midpoint of the curve
		return f.settings.Likelihood.B + f.settings.Likelihood.A/2
	}
}
