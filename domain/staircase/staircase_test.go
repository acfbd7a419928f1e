package staircase

import (
	"math"
	"testing"

	"psyfit/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStaircase(t *testing.T, cfg Config) *Staircase {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestStaircase_FourCorrectMovesDown(t *testing.T) {
	s := newTestStaircase(t, DefaultConfig())

	// I = 0.75·n − n stays inside (−1, 1) for n < 4
	for i := 0; i < 3; i++ {
		x, err := s.Update(true, 50)
		require.NoError(t, err)
		assert.Equal(t, 50.0, x, "level must not move while |I| < W (trial %d)", i+1)
	}

	// I = 0.75·4 − 4 = −1 ≤ −W
	x, err := s.Update(true, 50)
	require.NoError(t, err)
	assert.Equal(t, 34.0, x)

	st := s.State()
	assert.Equal(t, Down, st.PreDirection)
	assert.Equal(t, 2, st.RepeatedNum)
	assert.Equal(t, 16, st.Dx)
	assert.Zero(t, st.ConsecutiveT)
	assert.Zero(t, st.ConsecutiveC)
	assert.Equal(t, 4, st.T)
	assert.Equal(t, 4, st.C)
}

func TestStaircase_TwoWrongMovesUpAndHalves(t *testing.T) {
	s := newTestStaircase(t, DefaultConfig())

	// 0.75·1 − 0 = 0.75 < 1, then 0.75·2 − 0 = 1.5 ≥ 1
	x, err := s.Update(false, 40)
	require.NoError(t, err)
	assert.Equal(t, 40.0, x)

	x, err = s.Update(false, 40)
	require.NoError(t, err)
	assert.Equal(t, 48.0, x, "a reversal from the initial Down halves 16 to 8")
	assert.Equal(t, Up, s.State().PreDirection)
	assert.Equal(t, 1, s.State().RepeatedNum)
	assert.Equal(t, 1, s.Reversals())
}

func TestStaircase_StepGrowthOnLongRuns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxStep = 1000
	s := newTestStaircase(t, cfg)

	var dxs []int
	x := 200.0
	for len(dxs) < 5 {
		before := s.Trials()
		for {
			var err error
			prev := x
			x, err = s.Update(true, x)
			require.NoError(t, err)
			if x != prev {
				break
			}
		}
		require.Greater(t, s.Trials(), before)
		dxs = append(dxs, s.Dx())
	}

	// second step keeps 16, third becomes 2·3, then 2·n and doubled
	assert.Equal(t, []int{16, 6, 8, 10, 12}, dxs)
	assert.True(t, s.State().DoubledDx)
}

func TestStaircase_MaxStepClamp(t *testing.T) {
	cfg := Config{InitialStep: 4, MinStep: 1, MaxStep: 7, TargetProportion: 0.75, DeviationLimit: 1}
	s := newTestStaircase(t, cfg)

	x := 100.0
	for i := 0; i < 40; i++ {
		var err error
		x, err = s.Update(true, x)
		require.NoError(t, err)
		assert.LessOrEqual(t, s.Dx(), 7)
	}
	assert.Equal(t, 7, s.Dx(), "steps of 2·n ≥ 8 clamp to the maximum")
}

func TestStaircase_DoubledStepReversalMemory(t *testing.T) {
	s := newTestStaircase(t, DefaultConfig())

	// deterministic observer: correct above 20, wrong at or below
	x := 50.0
	for !s.HasEnded() {
		var err error
		x, err = s.Update(x > 20, x)
		require.NoError(t, err)
		require.Less(t, s.Trials(), 500)
	}

	assert.Equal(t, 24, s.Trials())
	assert.Equal(t, 21.0, x)
	assert.Equal(t, 3, s.Reversals())
	assert.True(t, s.State().SwitchedDirectionByDoubledDx,
		"the reversal right after the doubled 8-step must be remembered")
}

func TestStaircase_DxNonIncreasingAfterReversal(t *testing.T) {
	s := newTestStaircase(t, DefaultConfig())

	x := 50.0
	for i := 0; i < 200 && !s.HasEnded(); i++ {
		before := s.State()
		var err error
		x, err = s.Update(int(x)%3 != 0 && x > 18, x)
		require.NoError(t, err)

		after := s.State()
		if after.Reversals > before.Reversals {
			assert.LessOrEqual(t, after.Dx, before.Dx, "trial %d", after.T)
			assert.Equal(t, before.Dx/2, after.Dx)
		}
	}
}

func TestStaircase_HasEndedExactlyAtMinStep(t *testing.T) {
	s := newTestStaircase(t, DefaultConfig())

	x := 50.0
	for i := 0; i < 500; i++ {
		assert.Equal(t, s.Dx() == 1, s.HasEnded())
		if s.HasEnded() {
			break
		}
		var err error
		x, err = s.Update(x > 25, x)
		require.NoError(t, err)
	}
	require.True(t, s.HasEnded())

	// idempotent
	for i := 0; i < 3; i++ {
		assert.True(t, s.HasEnded())
	}
}

func TestStaircase_UpdateAfterEnd(t *testing.T) {
	s := newTestStaircase(t, DefaultConfig())
	x := 50.0
	for !s.HasEnded() {
		x, _ = s.Update(x > 20, x)
	}
	before := s.State()

	got, err := s.Update(true, x)
	assert.ErrorIs(t, err, core.ErrEnded)
	assert.Equal(t, before.Xt, got)
	assert.Equal(t, before, s.State())
}

func TestStaircase_RejectsNonFiniteLevel(t *testing.T) {
	s := newTestStaircase(t, DefaultConfig())
	before := s.State()

	_, err := s.Update(true, math.NaN())
	require.Error(t, err)
	assert.True(t, core.IsDomainError(err))
	assert.Equal(t, before, s.State())
}

func TestStaircase_InvariantGuard(t *testing.T) {
	s := &Staircase{dx: 16, minDx: 1, maxDx: 32, repeatedNum: 1, pt: 0.75, w: math.NaN()}

	_, err := s.Step(true, 10)
	require.Error(t, err)
	assert.True(t, core.IsInvariantError(err))
	assert.Zero(t, s.Trials(), "a failed decision must not be recorded")
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{InitialStep: 16, MinStep: 0, TargetProportion: 0.75, DeviationLimit: 1},
		{InitialStep: 1, MinStep: 1, TargetProportion: 0.75, DeviationLimit: 1},
		{InitialStep: 16, MinStep: 1, MaxStep: 8, TargetProportion: 0.75, DeviationLimit: 1},
		{InitialStep: 16, MinStep: 1, TargetProportion: 1, DeviationLimit: 1},
		{InitialStep: 16, MinStep: 1, TargetProportion: 0.75, DeviationLimit: 0},
		{InitialStep: 16, MinStep: 1, TargetProportion: math.NaN(), DeviationLimit: 1},
	}
	for i, cfg := range bad {
		err := cfg.Validate()
		assert.Error(t, err, "case %d", i)
		assert.True(t, core.IsConfigError(err), "case %d", i)
	}

	s, err := New(Config{InitialStep: 10, MinStep: 1, TargetProportion: 0.5, DeviationLimit: 1.5})
	require.NoError(t, err)
	assert.Equal(t, 20, s.State().MaxDx, "zero MaxStep defaults to twice the initial step")
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "down", Down.String())
	assert.Equal(t, "up", Up.String())
	assert.Equal(t, "unknown", Direction(7).String())
}
