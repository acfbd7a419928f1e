package config

import (
	"os"
	"path/filepath"
	"testing"

	"psyfit/app"
	"psyfit/internal/errors"
	"psyfit/internal/mle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, app.MethodBestPEST, cfg.Method)
	assert.Equal(t, app.DefaultEstimatorSettings(app.MethodBestPEST), cfg.Estimators)
	assert.True(t, cfg.Session.IntegerLevels)
	assert.True(t, cfg.Session.ProbeExtremes)
	assert.Equal(t, 50.0, cfg.Session.StartLevel)
	assert.Equal(t, 100, cfg.Simulation.Runs)
	assert.Equal(t, 20.0, cfg.Simulation.Truth.M)
}

func TestLoad_HybridStartsAboveInitialGuess(t *testing.T) {
	t.Setenv("PSY_METHOD", "hybrid")
	t.Setenv("PSY_INITIAL_M", "25")
	t.Setenv("PSY_MIN_STEP", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, app.MethodHybrid, cfg.Method)
	assert.Equal(t, 33.0, cfg.Session.StartLevel)
	assert.False(t, cfg.Session.IntegerLevels)
	assert.True(t, cfg.Estimators.Hybrid.FitScale)
	assert.False(t, cfg.Estimators.Likelihood.FitScale)
	assert.Equal(t, 1.5, cfg.Estimators.Hybrid.DeviationLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PSY_METHOD", "staircase")
	t.Setenv("PSY_INITIAL_STEP", "8")
	t.Setenv("PSY_MIN_STEP", "2")
	t.Setenv("PSY_MAX_STEP", "16")
	t.Setenv("PSY_DEVIATION_LIMIT", "2")
	t.Setenv("PSY_MAX_LEVEL", "80")
	t.Setenv("PSY_ROUND_LEVELS", "true")
	t.Setenv("PSY_OPTIMIZER", "LBFGS")
	t.Setenv("PSY_FIT_SCALE", "true")
	t.Setenv("PSY_SEED", "18446744073709551615")
	t.Setenv("PSY_TRUE_M", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, app.MethodStaircase, cfg.Method)
	assert.Equal(t, 8, cfg.Estimators.Staircase.InitialStep)
	assert.Equal(t, 2, cfg.Estimators.Staircase.MinStep)
	assert.Equal(t, 16, cfg.Estimators.Staircase.MaxStep)
	assert.Equal(t, 2.0, cfg.Estimators.Staircase.DeviationLimit)
	assert.Equal(t, 2.0, cfg.Estimators.Hybrid.DeviationLimit)
	assert.Equal(t, 80.0, cfg.Session.MaxLevel)
	assert.Equal(t, 80.0, cfg.Session.StartLevel)
	assert.True(t, cfg.Session.IntegerLevels)
	assert.Equal(t, mle.OptimizerLBFGS, cfg.Estimators.Likelihood.Optimizer)
	assert.True(t, cfg.Estimators.Likelihood.FitScale)
	assert.Equal(t, uint64(18446744073709551615), cfg.Simulation.Seed)
	assert.Equal(t, 25.0, cfg.Simulation.Truth.M)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"malformed int", map[string]string{"PSY_RUNS": "many"}},
		{"malformed bool", map[string]string{"PSY_FIT_SCALE": "sometimes"}},
		{"unknown optimizer", map[string]string{"PSY_OPTIMIZER": "newton"}},
		{"unknown method", map[string]string{"PSY_METHOD": "quest"}},
		{"target out of range", map[string]string{"PSY_METHOD": "pest", "PSY_TARGET_PROPORTION": "1.5"}},
		{"initial step below min", map[string]string{"PSY_METHOD": "pest", "PSY_INITIAL_STEP": "1", "PSY_MIN_STEP": "2"}},
		{"hybrid without min step", map[string]string{"PSY_METHOD": "hybrid", "PSY_MIN_STEP": "0"}},
		{"inverted levels", map[string]string{"PSY_MIN_LEVEL": "60"}},
		{"start outside range", map[string]string{"PSY_START_LEVEL": "100"}},
		{"no workers", map[string]string{"PSY_WORKERS": "0"}},
		{"flat truth", map[string]string{"PSY_TRUE_S": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err), err.Error())
		})
	}
}

func TestLoad_ValidatesSelectedMethodOnly(t *testing.T) {
	tests := []struct {
		name   string
		method app.Method
		env    map[string]string
	}{
		// MIN_STEP is shared; 20 exceeds the staircase's default initial step of 16
		{"hybrid with large min step", app.MethodHybrid, map[string]string{"PSY_MIN_STEP": "20"}},
		{"best_pest ignores staircase step", app.MethodBestPEST, map[string]string{"PSY_INITIAL_STEP": "0"}},
		{"best_pest ignores target", app.MethodBestPEST, map[string]string{"PSY_TARGET_PROPORTION": "1.5"}},
		{"pest ignores likelihood", app.MethodStaircase, map[string]string{"PSY_INITIAL_S": "0", "PSY_LEARNING_RATE": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadMethod(string(tt.method))
			require.NoError(t, err)
			assert.Equal(t, tt.method, cfg.Method)
		})
	}
}

func TestLoad_HybridLargeStepClampsStart(t *testing.T) {
	t.Setenv("PSY_MIN_STEP", "20")
	cfg, err := LoadMethod("hybrid")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Estimators.Hybrid.MinStep)
	// 30 + 4·20 lies above the default range
	assert.Equal(t, 50.0, cfg.Session.StartLevel)

	_, err = app.NewEstimatorFactory(cfg.Estimators)
	assert.NoError(t, err)
}

func TestLoad_NegativeLevels(t *testing.T) {
	t.Setenv("PSY_MIN_LEVEL", "-60")
	t.Setenv("PSY_MAX_LEVEL", "0")
	cfg, err := LoadMethod("pest")
	require.NoError(t, err)
	assert.Equal(t, -60.0, cfg.Session.MinLevel)
	assert.Equal(t, 0.0, cfg.Session.StartLevel)
}

func TestLoad_MalformedValueNamesKey(t *testing.T) {
	t.Setenv("PSY_RUNS", "many")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `PSY_RUNS="many"`)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psyfit.env")
	require.NoError(t, os.WriteFile(path, []byte("PSY_RUNS=7\nPSY_WORKERS=9\n"), 0o600))
	t.Setenv("PSY_WORKERS", "3")
	t.Cleanup(func() { os.Unsetenv("PSY_RUNS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Simulation.Runs)
	assert.Equal(t, 3, cfg.Simulation.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestConfig_HashInput(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	a := cfg.HashInput()
	assert.Equal(t, "best_pest", a["method"])
	assert.Contains(t, a, "likelihood")

	t.Setenv("PSY_METHOD", "hybrid")
	cfg, err = Load()
	require.NoError(t, err)
	b := cfg.HashInput()
	assert.Contains(t, b, "hybrid")
	assert.NotContains(t, b, "likelihood")
}

func TestLoadMethod_OverridesEnv(t *testing.T) {
	t.Setenv("PSY_METHOD", "hybrid")
	cfg, err := LoadMethod("pest")
	require.NoError(t, err)
	assert.Equal(t, app.MethodStaircase, cfg.Method)
	assert.Equal(t, app.MethodStaircase, cfg.Estimators.Method)

	cfg, err = LoadMethod("")
	require.NoError(t, err)
	assert.Equal(t, app.MethodHybrid, cfg.Method)
}
