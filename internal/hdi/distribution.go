package hdi

import (
	"fmt"
	"math"
	"sort"

	"psyfit/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution is a discretized probability distribution: a weight per grid
// point. Coordinates are strictly increasing and assumed evenly spaced.
// A Distribution is read-only after construction.
type Distribution struct {
	coords  []float64
	density []float64

	// prefix[i] is the mass strictly left of coords[i]
	prefix []float64
	// cdfAt[i] is CumulativeProbability(coords[i])
	cdfAt   []float64
	halfBin float64
}

// NewDistribution validates and copies the grid and its weights.
func NewDistribution(coords, density []float64) (*Distribution, error) {
	if len(coords) != len(density) {
		return nil, fmt.Errorf("%w: length of coords (%d) and density (%d) must be same",
			core.ErrInvalidDistribution, len(coords), len(density))
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 grid points, got %d", core.ErrInvalidDistribution, len(coords))
	}
	for i, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: coords[%d] is not finite", core.ErrInvalidDistribution, i)
		}
		if i > 0 && !(c > coords[i-1]) {
			return nil, fmt.Errorf("%w: coords must be strictly increasing at index %d", core.ErrInvalidDistribution, i)
		}
	}
	for i, d := range density {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return nil, fmt.Errorf("%w: density[%d]=%g must be finite and non-negative", core.ErrInvalidDistribution, i, d)
		}
	}

	d := &Distribution{
		coords:  append([]float64(nil), coords...),
		density: append([]float64(nil), density...),
		prefix:  make([]float64, len(density)+1),
		halfBin: math.Abs(coords[1]-coords[0]) / 2,
	}
	floats.CumSum(d.prefix[1:], d.density)

	d.cdfAt = make([]float64, len(coords))
	for i, c := range d.coords {
		d.cdfAt[i] = d.prefix[d.index(c)]
	}
	return d, nil
}

// Uniform builds a grid of n evenly spaced points on [lo, hi] with the given
// unnormalized weight function, normalized to unit mass.
func Uniform(lo, hi float64, n int, weight func(x float64) float64) (*Distribution, error) {
	if n < 2 || !(hi > lo) {
		return nil, fmt.Errorf("%w: grid [%g, %g] with %d points", core.ErrInvalidDistribution, lo, hi, n)
	}
	coords := floats.Span(make([]float64, n), lo, hi)
	density := make([]float64, n)
	for i, x := range coords {
		density[i] = weight(x)
	}
	dist, err := NewDistribution(coords, density)
	if err != nil {
		return nil, err
	}
	return dist.Normalize()
}

// Normalize returns a copy whose weights sum to one.
func (d *Distribution) Normalize() (*Distribution, error) {
	total := floats.Sum(d.density)
	if !(total > 0) {
		return nil, fmt.Errorf("%w: total mass is zero", core.ErrInvalidDistribution)
	}
	scaled := append([]float64(nil), d.density...)
	floats.Scale(1/total, scaled)
	return NewDistribution(d.coords, scaled)
}

// Len returns the number of grid points
func (d *Distribution) Len() int { return len(d.coords) }

// Coords returns a copy of the grid
func (d *Distribution) Coords() []float64 { return append([]float64(nil), d.coords...) }

// Weights returns a copy of the weights
func (d *Distribution) Weights() []float64 { return append([]float64(nil), d.density...) }

// Min is the first grid point
func (d *Distribution) Min() float64 { return d.coords[0] }

// Max is the last grid point
func (d *Distribution) Max() float64 { return d.coords[len(d.coords)-1] }

// BinWidth is the grid spacing
func (d *Distribution) BinWidth() float64 { return 2 * d.halfBin }

// Mass is the total weight
func (d *Distribution) Mass() float64 { return d.prefix[len(d.prefix)-1] }

// Mean is the weighted mean of the grid.
func (d *Distribution) Mean() float64 {
	return stat.Mean(d.coords, d.density)
}

// Mode is the grid point with the largest weight (first one on ties).
func (d *Distribution) Mode() float64 {
	return d.coords[floats.MaxIdx(d.density)]
}

// index snaps x to the grid point nearest x + halfBin, first index on ties.
func (d *Distribution) index(x float64) int {
	q := x + d.halfBin
	j := sort.SearchFloat64s(d.coords, q)
	if j == 0 {
		return 0
	}
	if j == len(d.coords) {
		return j - 1
	}
	if math.Abs(d.coords[j-1]-q) <= math.Abs(d.coords[j]-q) {
		return j - 1
	}
	return j
}

func (d *Distribution) checkRange(x float64) error {
	if math.IsNaN(x) || x < d.Min() || x > d.Max() {
		return core.NewGridError(x, d.Min(), d.Max())
	}
	return nil
}

// Density returns the weight of the bin containing x.
func (d *Distribution) Density(x float64) (float64, error) {
	if err := d.checkRange(x); err != nil {
		return 0, err
	}
	return d.density[d.index(x)], nil
}

// CumulativeProbability returns the mass of all bins left of the bin containing x.
func (d *Distribution) CumulativeProbability(x float64) (float64, error) {
	if err := d.checkRange(x); err != nil {
		return 0, err
	}
	return d.prefix[d.index(x)], nil
}

// InverseCumulativeProbability returns the grid point whose cumulative
// probability is closest to p (first one on ties).
func (d *Distribution) InverseCumulativeProbability(p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, core.NewDomainError("p", p, 0, 1)
	}

	// cdfAt is non-decreasing, so the nearest value is at j or just before it
	j := sort.SearchFloat64s(d.cdfAt, p)
	if j == len(d.cdfAt) {
		return d.coords[d.firstAtLeast(d.cdfAt[j-1])], nil
	}
	if j == 0 || d.cdfAt[j]-p < p-d.cdfAt[j-1] {
		return d.coords[j], nil
	}
	return d.coords[d.firstAtLeast(d.cdfAt[j-1])], nil
}

func (d *Distribution) firstAtLeast(v float64) int {
	return sort.SearchFloat64s(d.cdfAt, v)
}
