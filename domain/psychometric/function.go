// Package psychometric implements the logistic psychometric function used by
// every estimator: the probability of a correct response as a function of
// stimulus level, its inverse, and the log-likelihood terms the maximum
// likelihood fitters differentiate.
//
// The curve is PF(x) = a·σ((x−m)/s) + b, with σ the standard logistic. For a
// two-interval forced choice task a = b = 0.5; for yes/no a = 1, b = 0.
package psychometric

import (
	"math"

	"psyfit/domain/core"
)

const (
	// SigmoidRange bounds |z| before exponentiating; ln(1e15) ≈ 34.54.
	SigmoidRange = 34.538776394910684

	// ProbFloor and ProbCeil keep every probability strictly inside (0, 1)
	ProbFloor = 1e-15
	ProbCeil  = 1.0 - 1e-15
)

// Z standardizes a stimulus level against location m and scale s
func Z(x, m, s float64) float64 {
	return (x - m) / s
}

// dZdM is ∂z/∂m
func dZdM(s float64) float64 {
	return -1 / s
}

// dZdS is ∂z/∂s
func dZdS(x, m, s float64) float64 {
	return -(x - m) / (s * s)
}

// Sigmoid is the standard logistic, saturating to 0 or 1 outside SigmoidRange.
func Sigmoid(z float64) float64 {
	switch {
	case z <= -SigmoidRange:
		return 0
	case z >= SigmoidRange:
		return 1
	}
	return 1 / (1 + math.Exp(-z))
}

func clampProb(p float64) float64 {
	if p < ProbFloor {
		return ProbFloor
	}
	if p > ProbCeil {
		return ProbCeil
	}
	return p
}

// PF evaluates the psychometric function. The result is always in
// [ProbFloor, ProbCeil] so that ln(p) and ln(1−p) stay finite.
func PF(x, m, s, a, b float64) float64 {
	z := Z(x, m, s)
	switch {
	case z <= -SigmoidRange:
		return clampProb(b)
	case z >= SigmoidRange:
		return clampProb(a + b)
	}
	return clampProb(a/(1+math.Exp(-z)) + b)
}

// PFInv is the algebraic inverse of PF. p must lie strictly between the
// floor b and the ceiling a+b.
func PFInv(p, m, s, a, b float64) (float64, error) {
	if math.IsNaN(p) || p <= b || p >= a+b {
		return math.NaN(), core.NewProbabilityError(p, b, a+b)
	}
	return m - s*math.Log(a/(p-b)-1), nil
}

// slope returns a·σ'(z), the derivative of PF with respect to z.
func slope(x, m, s, a float64) float64 {
	sig := Sigmoid(Z(x, m, s))
	return a * sig * (1 - sig)
}

// DPFDM is ∂PF/∂m
func DPFDM(x, m, s, a float64) float64 {
	return slope(x, m, s, a) * dZdM(s)
}

// DPFDS is ∂PF/∂s
func DPFDS(x, m, s, a float64) float64 {
	return slope(x, m, s, a) * dZdS(x, m, s)
}

// LogLikelihood of c correct responses out of t trials at level x.
func LogLikelihood(x float64, t, c int, m, s, a, b float64) float64 {
	pf := PF(x, m, s, a, b)
	return float64(c)*math.Log(pf) + float64(t-c)*math.Log(1-pf)
}

// score is ∂L/∂pf, evaluated with the same clamped pf as LogLikelihood.
func score(x float64, t, c int, m, s, a, b float64) float64 {
	pf := PF(x, m, s, a, b)
	return (float64(c) - float64(t)*pf) / (pf * (1 - pf))
}

// DLogLikelihoodDM is ∂L/∂m
func DLogLikelihoodDM(x float64, t, c int, m, s, a, b float64) float64 {
	return score(x, t, c, m, s, a, b) * DPFDM(x, m, s, a)
}

// DLogLikelihoodDS is ∂L/∂s
func DLogLikelihoodDS(x float64, t, c int, m, s, a, b float64) float64 {
	return score(x, t, c, m, s, a, b) * DPFDS(x, m, s, a)
}
