// Package hdi computes highest-density credible intervals over discretized
// distributions: the narrowest interval holding a target probability mass
// whose two endpoints have (approximately) equal density.
package hdi

import (
	"fmt"
	"math"

	"psyfit/domain/core"
)

// Interval is a credible interval on the grid of a Distribution.
type Interval struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// Width returns UpperBound − LowerBound
func (iv Interval) Width() float64 { return iv.UpperBound - iv.LowerBound }

// Center returns the midpoint of the interval
func (iv Interval) Center() float64 { return 0.5 * (iv.LowerBound + iv.UpperBound) }

// Contains reports whether x lies inside the closed interval
func (iv Interval) Contains(x float64) bool {
	return x >= iv.LowerBound && x <= iv.UpperBound
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%g, %g]", iv.LowerBound, iv.UpperBound)
}

// Solver finds the lower bound x of the highest-density interval by
// minimizing
//
//	f(x) = (density(y) − density(x))² + (cdf(y) − cdf(x) − (1−alpha))²
//
// where y = Offset(x) is the right edge of a window of mass 1−alpha.
type Solver struct {
	Distribution *Distribution
	Alpha        float64

	// XAtol and MaxEvaluations tune the bounded minimizer; zero means default.
	XAtol          float64
	MaxEvaluations int
}

// NewSolver creates a solver for the 1−alpha interval.
func NewSolver(dist *Distribution, alpha float64) (*Solver, error) {
	if dist == nil {
		return nil, fmt.Errorf("%w: nil distribution", core.ErrInvalidDistribution)
	}
	if !(alpha > 0 && alpha < 1) {
		return nil, core.NewDomainError("alpha", alpha, 0, 1)
	}
	return &Solver{Distribution: dist, Alpha: alpha}, nil
}

// Offset returns the grid point whose cumulative probability equals
// min(cdf(x) + 1 − alpha, 1).
func (s *Solver) Offset(x float64) (float64, error) {
	q, err := s.Distribution.CumulativeProbability(x)
	if err != nil {
		return 0, err
	}
	return s.Distribution.InverseCumulativeProbability(math.Min(q+1-s.Alpha, 1))
}

// Objective evaluates f at x.
func (s *Solver) Objective(x float64) (float64, error) {
	d := s.Distribution
	y, err := s.Offset(x)
	if err != nil {
		return 0, err
	}

	dy, err := d.Density(y)
	if err != nil {
		return 0, err
	}
	dx, err := d.Density(x)
	if err != nil {
		return 0, err
	}
	cy, err := d.CumulativeProbability(y)
	if err != nil {
		return 0, err
	}
	cx, err := d.CumulativeProbability(x)
	if err != nil {
		return 0, err
	}

	d1 := dy - dx
	d2 := (cy - cx) - (1 - s.Alpha)
	return d1*d1 + d2*d2, nil
}

// Solve minimizes f over [coords[0], coords[n−1]] with a bounded Brent
// search and returns the minimizer.
//
// f is constant on each bin, so Brent can stop on a plateau that is not the
// lowest one. A scan of the grid catches that case; the search is then
// repeated inside the bins around the best grid point.
func (s *Solver) Solve() (float64, error) {
	d := s.Distribution

	var evalErr error
	bounded := func(lo, hi float64) MinimizeResult {
		f := func(x float64) float64 {
			v, err := s.Objective(math.Max(lo, math.Min(hi, x)))
			if err != nil {
				if evalErr == nil {
					evalErr = err
				}
				return math.Inf(1)
			}
			return v
		}
		return MinimizeBounded(f, lo, hi, s.XAtol, s.MaxEvaluations)
	}

	res := bounded(d.Min(), d.Max())
	if evalErr != nil {
		return 0, evalErr
	}

	best, bestF := 0, math.Inf(1)
	for i, c := range d.coords {
		f, err := s.Objective(c)
		if err != nil {
			return 0, err
		}
		if f < bestF {
			best, bestF = i, f
		}
	}
	if bestF >= res.F {
		return res.X, nil
	}

	local := bounded(d.coords[max(best-1, 0)], d.coords[min(best+1, len(d.coords)-1)])
	if evalErr != nil {
		return 0, evalErr
	}
	if local.F <= bestF {
		return local.X, nil
	}
	return d.coords[best], nil
}

// Calculate returns the 1−alpha highest-density interval of dist.
func Calculate(dist *Distribution, alpha float64) (Interval, error) {
	solver, err := NewSolver(dist, alpha)
	if err != nil {
		return Interval{}, err
	}
	lower, err := solver.Solve()
	if err != nil {
		return Interval{}, err
	}
	upper, err := solver.Offset(lower)
	if err != nil {
		return Interval{}, err
	}
	return Interval{LowerBound: lower, UpperBound: upper}, nil
}
