package mle

import (
	"fmt"
	"math"

	"psyfit/domain/core"
	"psyfit/domain/psychometric"
	"psyfit/domain/trial"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// FitResult describes the outcome of one likelihood maximization. A fit that
// stops on its iteration cap still carries its best parameters.
type FitResult struct {
	M             float64 `json:"m"`
	S             float64 `json:"s"`
	Iterations    int     `json:"iterations"`
	Converged     bool    `json:"converged"`
	GradNorm      float64 `json:"grad_norm"`
	LogLikelihood float64 `json:"log_likelihood"`
}

func (r FitResult) String() string {
	status := "converged"
	if !r.Converged {
		status = "not converged"
	}
	return fmt.Sprintf("M=%.4f S=%.4f L=%.4f after %d iterations (%s, |grad|=%.2g)",
		r.M, r.S, r.LogLikelihood, r.Iterations, status, r.GradNorm)
}

// Err returns core.ErrNotConverged, with the fit attached, when the fit
// stopped before the gradient threshold; nil otherwise.
func (r FitResult) Err() error {
	if r.Converged {
		return nil
	}
	return fmt.Errorf("%w: %s", core.ErrNotConverged, r)
}

// Optimizer maximizes the likelihood of a history starting from start.
// Only start.M and start.S are varied.
type Optimizer interface {
	Fit(trials []trial.Trial, start psychometric.Params) FitResult
}

// NewOptimizer returns the optimizer selected by cfg.Optimizer
func NewOptimizer(cfg FitConfig) Optimizer {
	if cfg.Optimizer == OptimizerLBFGS {
		return &LBFGS{
			ConvergenceEps: cfg.ConvergenceEps,
			MaxIterations:  cfg.MaxIterations,
			FitScale:       cfg.FitScale,
		}
	}
	return &GradientAscent{
		LearningRate:   cfg.LearningRate,
		ConvergenceEps: cfg.ConvergenceEps,
		MaxIterations:  cfg.MaxIterations,
		FitScale:       cfg.FitScale,
	}
}

// Fit runs one maximization with the optimizer selected by cfg.
func Fit(trials []trial.Trial, start psychometric.Params, cfg FitConfig) FitResult {
	start.A, start.B = cfg.A, cfg.B
	return NewOptimizer(cfg).Fit(trials, start)
}

// maxHalvings bounds the step-size backtracking in one iteration
const maxHalvings = 50

// roundoff is the relative change in −L treated as no change
const roundoff = 1e-12

// GradientAscent is steepest ascent on the log-likelihood with learning rate
// η. A step that would lower the likelihood or push S to zero is halved until
// it does not, and the shorter step is kept for the rest of the fit, so the
// iteration cannot diverge on histories whose curvature exceeds 2/η.
type GradientAscent struct {
	LearningRate   float64
	ConvergenceEps float64
	MaxIterations  int
	FitScale       bool
}

func (g *GradientAscent) Fit(trials []trial.Trial, start psychometric.Params) FitResult {
	obj := objective{trials: trials, a: start.A, b: start.B, fitScale: g.FitScale}

	m, s := start.M, start.S
	f := obj.value(m, s)
	grad := make([]float64, 2)
	obj.gradient(grad, m, s)

	res := FitResult{}
	epsSq := g.ConvergenceEps * g.ConvergenceEps
	step := g.LearningRate
	for res.Iterations < g.MaxIterations {
		if floats.Dot(grad, grad) < epsSq {
			res.Converged = true
			break
		}

		accepted := false
		var nm, ns, nf float64
		for i := 0; i < maxHalvings; i++ {
			nm, ns = m-step*grad[0], s-step*grad[1]
			if ns > 0 {
				nf = obj.value(nm, ns)
				if finite(nf) && nf <= f+roundoff*math.Max(1, math.Abs(f)) {
					accepted = true
					break
				}
			}
			step /= 2
		}
		res.Iterations++
		if !accepted {
			// no descent direction at machine precision
			break
		}

		m, s, f = nm, ns, nf
		obj.gradient(grad, m, s)
	}

	res.M, res.S = m, s
	res.GradNorm = floats.Norm(grad, 2)
	res.LogLikelihood = -f
	return res
}

// LBFGS maximizes the likelihood with gonum's limited-memory BFGS. The scale
// is optimized as log S so the search cannot leave S > 0.
type LBFGS struct {
	ConvergenceEps float64
	MaxIterations  int
	FitScale       bool
}

func (l *LBFGS) Fit(trials []trial.Trial, start psychometric.Params) FitResult {
	obj := objective{trials: trials, a: start.A, b: start.B, fitScale: l.FitScale}

	unpack := func(x []float64) (float64, float64) {
		if l.FitScale {
			return x[0], math.Exp(x[1])
		}
		return x[0], start.S
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			m, s := unpack(x)
			return obj.value(m, s)
		},
		Grad: func(grad, x []float64) {
			m, s := unpack(x)
			g := make([]float64, 2)
			obj.gradient(g, m, s)
			grad[0] = g[0]
			if l.FitScale {
				// chain rule for s = exp(u)
				grad[1] = g[1] * s
			}
		},
	}

	x0 := []float64{start.M}
	if l.FitScale {
		x0 = append(x0, math.Log(start.S))
	}

	settings := &optimize.Settings{
		GradientThreshold: l.ConvergenceEps,
		MajorIterations:   l.MaxIterations,
	}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil {
		return FitResult{
			M:             start.M,
			S:             start.S,
			GradNorm:      obj.gradNorm(start.M, start.S),
			LogLikelihood: -obj.value(start.M, start.S),
		}
	}

	m, s := unpack(result.Location.X)
	gradNorm := obj.gradNorm(m, s)
	return FitResult{
		M:             m,
		S:             s,
		Iterations:    result.Stats.MajorIterations,
		Converged:     err == nil && (result.Status == optimize.GradientThreshold || gradNorm < l.ConvergenceEps),
		GradNorm:      gradNorm,
		LogLikelihood: -result.Location.F,
	}
}
