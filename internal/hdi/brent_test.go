package hdi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinimizeBounded(t *testing.T) {
	tests := []struct {
		name   string
		f      func(float64) float64
		lo, hi float64
		wantX  float64
	}{
		{"parabola", func(x float64) float64 { return (x - 2) * (x - 2) }, 0, 5, 2},
		{"cosine", math.Cos, 0, 2 * math.Pi, math.Pi},
		{"monotone hits lower bound", func(x float64) float64 { return x }, 0, 5, 0},
		{"swapped bounds", func(x float64) float64 { return (x + 1) * (x + 1) }, 3, -4, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := MinimizeBounded(tt.f, tt.lo, tt.hi, 0, 0)
			assert.True(t, res.Converged)
			assert.InDelta(t, tt.wantX, res.X, 1e-4)
			assert.LessOrEqual(t, res.Evaluations, defaultMaxEvals)
		})
	}
}

func TestMinimizeBounded_StaysInBounds(t *testing.T) {
	var outside bool
	f := func(x float64) float64 {
		if x < 1 || x > 2 {
			outside = true
		}
		return -x
	}
	res := MinimizeBounded(f, 1, 2, 0, 0)
	assert.False(t, outside)
	assert.InDelta(t, 2, res.X, 1e-4)
}

func TestMinimizeBounded_EvaluationLimit(t *testing.T) {
	res := MinimizeBounded(math.Sin, 0, 100, 1e-12, 3)
	assert.False(t, res.Converged)
	assert.Equal(t, 3, res.Evaluations)
}
