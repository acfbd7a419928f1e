// Package testkit holds observers, mocks and seeded generators shared by tests.
package testkit

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"psyfit/domain/core"

	"github.com/stretchr/testify/mock"
)

// ScriptedObserver answers with a deterministic rule of the level and trial index.
type ScriptedObserver struct {
	mu    sync.Mutex
	rule  func(x float64, i int) bool
	calls []float64
}

// NewScriptedObserver wraps rule; i counts calls from zero.
func NewScriptedObserver(rule func(x float64, i int) bool) *ScriptedObserver {
	return &ScriptedObserver{rule: rule}
}

// ThresholdObserver answers correctly exactly when x is above threshold.
func ThresholdObserver(threshold float64) *ScriptedObserver {
	return NewScriptedObserver(func(x float64, _ int) bool { return x > threshold })
}

// SequenceObserver replays responses in order and repeats the last one when exhausted.
func SequenceObserver(responses ...bool) *ScriptedObserver {
	return NewScriptedObserver(func(_ float64, i int) bool {
		if len(responses) == 0 {
			return false
		}
		if i >= len(responses) {
			i = len(responses) - 1
		}
		return responses[i]
	})
}

// Respond applies the rule and records the presented level
func (o *ScriptedObserver) Respond(ctx context.Context, x float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false, core.NewDomainError("level", x, math.Inf(-1), math.Inf(1))
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	i := len(o.calls)
	o.calls = append(o.calls, x)
	return o.rule(x, i), nil
}

// Levels returns the levels presented so far
func (o *ScriptedObserver) Levels() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]float64(nil), o.calls...)
}

// MockObserver is a testify mock of ports.ObserverPort
type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Respond(ctx context.Context, x float64) (bool, error) {
	args := m.Called(ctx, x)
	return args.Bool(0), args.Error(1)
}

// MockEstimator is a testify mock of ports.EstimatorPort
type MockEstimator struct {
	mock.Mock
}

func (m *MockEstimator) Update(isCorrect bool, x float64) (float64, error) {
	args := m.Called(isCorrect, x)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockEstimator) HasEnded() bool {
	return m.Called().Bool(0)
}

func (m *MockEstimator) Estimate() float64 {
	return m.Called().Get(0).(float64)
}

func (m *MockEstimator) Trials() int {
	return m.Called().Int(0)
}

// NewRand returns a PCG generator for a fixed test seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(NewSource(seed))
}

// NewSource returns a PCG source for a fixed test seed
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, core.StreamSeed("testkit", 0, seed))
}
