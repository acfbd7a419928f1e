package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"psyfit/app"
	"psyfit/internal/errors"
	"psyfit/internal/mle"
	"psyfit/internal/session"
	"psyfit/internal/simulation"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every configuration key
const EnvPrefix = "PSY_"

// Config represents the complete application configuration
type Config struct {
	Method     app.Method            `validate:"required,oneof=pest best_pest hybrid"`
	Estimators app.EstimatorSettings `validate:"-"`
	Session    session.Config        `validate:"required"`
	Simulation simulation.Config     `validate:"required"`
}

// Load reads configuration from environment variables and validates it.
// Variables already set win over those in the optional env files.
func Load(envFiles ...string) (*Config, error) {
	return LoadMethod("", envFiles...)
}

// LoadMethod is Load with the method forced; an empty method defers to PSY_METHOD.
func LoadMethod(method string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, errors.Wrap(err, "failed to load env files")
	}

	env := &envReader{}
	if method == "" {
		method = env.getEnvOrDefault("METHOD", string(app.MethodBestPEST))
	}
	parsed, err := app.ParseMethod(method)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load method")
	}

	config := &Config{Method: parsed}
	config.Estimators = loadEstimatorSettings(env, parsed)
	config.Session = loadSessionConfig(env, parsed, config.Estimators)
	config.Simulation = loadSimulationConfig(env)

	if err := env.err(); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		// a missing default .env is not an error
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	return godotenv.Load(files...)
}

func loadEstimatorSettings(env *envReader, method app.Method) app.EstimatorSettings {
	s := app.DefaultEstimatorSettings(method)

	st := &s.Staircase
	st.InitialStep = env.getEnvIntOrDefault("INITIAL_STEP", st.InitialStep)
	st.MinStep = env.getEnvIntOrDefault("MIN_STEP", st.MinStep)
	st.MaxStep = env.getEnvIntOrDefault("MAX_STEP", st.MaxStep)
	st.TargetProportion = env.getEnvFloatOrDefault("TARGET_PROPORTION", st.TargetProportion)
	st.DeviationLimit = env.getEnvFloatOrDefault("DEVIATION_LIMIT", st.DeviationLimit)

	l := &s.Likelihood
	l.InitialM = env.getEnvFloatOrDefault("INITIAL_M", l.InitialM)
	l.InitialS = env.getEnvFloatOrDefault("INITIAL_S", l.InitialS)
	l.MaxTrials = env.getEnvIntOrDefault("MAX_TRIALS", l.MaxTrials)
	l.FitConfig = loadFitConfig(env, l.FitConfig)

	h := &s.Hybrid
	h.InitialM = env.getEnvFloatOrDefault("INITIAL_M", h.InitialM)
	h.MinStep = env.getEnvIntOrDefault("MIN_STEP", h.MinStep)
	h.TargetProportion = env.getEnvFloatOrDefault("TARGET_PROPORTION", h.TargetProportion)
	h.DeviationLimit = env.getEnvFloatOrDefault("DEVIATION_LIMIT", h.DeviationLimit)
	h.MaxTrials = env.getEnvIntOrDefault("MAX_TRIALS", h.MaxTrials)
	h.FitConfig = loadFitConfig(env, h.FitConfig)

	return s
}

// loadFitConfig overrides the per-method fit defaults
func loadFitConfig(env *envReader, fit mle.FitConfig) mle.FitConfig {
	fit.A = env.getEnvFloatOrDefault("SLOPE_COEFF", fit.A)
	fit.B = env.getEnvFloatOrDefault("BIAS", fit.B)
	fit.LearningRate = env.getEnvFloatOrDefault("LEARNING_RATE", fit.LearningRate)
	fit.ConvergenceEps = env.getEnvFloatOrDefault("CONVERGENCE_EPS", fit.ConvergenceEps)
	fit.MaxIterations = env.getEnvIntOrDefault("MAX_ITERATIONS", fit.MaxIterations)
	fit.FitScale = env.getEnvBoolOrDefault("FIT_SCALE", fit.FitScale)
	if kind := env.getEnvOrDefault("OPTIMIZER", ""); kind != "" {
		k, err := mle.ParseOptimizerKind(kind)
		env.record("OPTIMIZER", kind, err)
		if err == nil {
			fit.Optimizer = k
		}
	}
	return fit
}

// loadSessionConfig applies the start level each method is usually run with:
// Best-PEST probes the range ends on integer levels, the hybrid starts
// 4·MinStep above its initial guess, PEST starts at the top of the range.
func loadSessionConfig(env *envReader, method app.Method, est app.EstimatorSettings) session.Config {
	cfg := session.DefaultConfig()
	cfg.MinLevel = env.getEnvFloatOrDefault("MIN_LEVEL", cfg.MinLevel)
	cfg.MaxLevel = env.getEnvFloatOrDefault("MAX_LEVEL", cfg.MaxLevel)

	cfg.StartLevel = cfg.MaxLevel
	switch method {
	case app.MethodBestPEST:
		cfg.IntegerLevels = true
		cfg.ProbeExtremes = true
	case app.MethodHybrid:
		// a derived start outside the range is clamped; an explicit one is rejected
		cfg.StartLevel = cfg.Clamp(est.Hybrid.InitialM + 4*float64(est.Hybrid.MinStep))
	}
	cfg.StartLevel = env.getEnvFloatOrDefault("START_LEVEL", cfg.StartLevel)
	cfg.IntegerLevels = env.getEnvBoolOrDefault("ROUND_LEVELS", cfg.IntegerLevels)
	cfg.ProbeExtremes = env.getEnvBoolOrDefault("PROBE_EXTREMES", cfg.ProbeExtremes)
	cfg.MaxTrials = env.getEnvIntOrDefault("MAX_SESSION_TRIALS", cfg.MaxTrials)
	return cfg
}

func loadSimulationConfig(env *envReader) simulation.Config {
	cfg := simulation.DefaultConfig()
	cfg.Seed = env.getEnvUint64OrDefault("SEED", cfg.Seed)
	cfg.Runs = env.getEnvIntOrDefault("RUNS", cfg.Runs)
	cfg.Workers = env.getEnvIntOrDefault("WORKERS", cfg.Workers)
	cfg.Truth.M = env.getEnvFloatOrDefault("TRUE_M", cfg.Truth.M)
	cfg.Truth.S = env.getEnvFloatOrDefault("TRUE_S", cfg.Truth.S)
	cfg.Truth.A = env.getEnvFloatOrDefault("TRUE_A", cfg.Truth.A)
	cfg.Truth.B = env.getEnvFloatOrDefault("TRUE_B", cfg.Truth.B)
	return cfg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateConfig checks the tags of the session, the simulation and the
// selected method's settings only; the other methods' blocks are ignored.
func validateConfig(config *Config) error {
	if err := structErrors(validate.Struct(config)); err != nil {
		return err
	}
	name, block := config.Estimators.Selected()
	if err := structErrors(validate.Struct(block)); err != nil {
		return errors.Wrap(err, name+" settings")
	}

	// cross-field rules the tags cannot express
	if _, err := app.NewEstimatorFactory(config.Estimators); err != nil {
		return errors.Wrap(errors.ConfigInvalid(err.Error()), "estimator settings")
	}
	if err := config.Session.Validate(); err != nil {
		return errors.Wrap(errors.ConfigInvalid(err.Error()), "session settings")
	}
	if err := config.Simulation.Validate(); err != nil {
		return errors.Wrap(errors.ConfigInvalid(err.Error()), "simulation settings")
	}
	if s := config.Session; s.StartLevel < s.MinLevel || s.StartLevel > s.MaxLevel {
		return errors.ConfigInvalid(fmt.Sprintf("start level %g outside [%g, %g]", s.StartLevel, s.MinLevel, s.MaxLevel))
	}
	return nil
}

func structErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return errors.ConfigInvalid(strings.Join(msgs, "; "))
	}
	return errors.Wrap(err, "validator")
}

// envReader reads PSY_-prefixed variables and remembers malformed values
type envReader struct {
	errs []error
}

func (e *envReader) record(key, value string, err error) {
	if err != nil {
		e.errs = append(e.errs, errors.ConfigInvalid(fmt.Sprintf("%s%s=%q: %v", EnvPrefix, key, value, err)))
	}
}

func (e *envReader) err() error {
	return stderrors.Join(e.errs...)
}

// Helper functions for environment variable parsing
func (e *envReader) getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		intValue, err := strconv.Atoi(value)
		e.record(key, value, err)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e *envReader) getEnvUint64OrDefault(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		uintValue, err := strconv.ParseUint(value, 10, 64)
		e.record(key, value, err)
		if err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func (e *envReader) getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		floatValue, err := strconv.ParseFloat(value, 64)
		e.record(key, value, err)
		if err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func (e *envReader) getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		e.record(key, value, err)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// HashInput flattens the settings of the selected method for batch hashing
func (c *Config) HashInput() map[string]interface{} {
	in := map[string]interface{}{"method": string(c.Method)}
	if name, block := c.Estimators.Selected(); block != nil {
		in[name] = fmt.Sprintf("%+v", block)
	}
	return in
}
