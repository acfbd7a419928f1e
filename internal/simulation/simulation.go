// Package simulation runs batches of sessions against simulated observers and
// summarizes how well an estimation method recovers the true threshold.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"psyfit/adapters/observer"
	"psyfit/domain/core"
	"psyfit/domain/psychometric"
	"psyfit/internal"
	"psyfit/internal/session"
	"psyfit/ports"

	"golang.org/x/sync/errgroup"
)

// streamKey names the RNG streams of simulated observers
const streamKey = "simulation/observer"

// EstimatorFactory builds a fresh estimator per run
type EstimatorFactory interface {
	New() (ports.EstimatorPort, error)
	TargetProportion() float64
}

// Config describes one batch.
type Config struct {
	Runs    int                 `validate:"gt=0"`
	Workers int                 `validate:"gt=0"`
	Seed    uint64
	Truth   psychometric.Params
}

// DefaultConfig simulates the two-interval observer M=20, S=1.5
func DefaultConfig() Config {
	return Config{
		Runs:    100,
		Workers: 4,
		Seed:    1,
		Truth:   psychometric.TwoAFC(20, 1.5),
	}
}

// Validate checks the batch size and the simulated observer
func (c Config) Validate() error {
	if c.Runs <= 0 {
		return core.NewConfigError("runs", "must be positive")
	}
	if c.Workers <= 0 {
		return core.NewConfigError("workers", "must be positive")
	}
	if err := c.Truth.Validate(); err != nil {
		return fmt.Errorf("true parameters: %w", err)
	}
	return nil
}

// RunResult is the outcome of one simulated session
type RunResult struct {
	Index    int            `json:"index"`
	Session  core.SessionID `json:"session"`
	Estimate float64        `json:"estimate"`
	Trials   int            `json:"trials"`
	Correct  int            `json:"correct"`
	Ended    bool           `json:"ended"`
}

// Report aggregates a batch
type Report struct {
	BatchID       core.BatchID    `json:"batch_id"`
	ConfigHash    core.ConfigHash `json:"config_hash"`
	TrueThreshold float64         `json:"true_threshold"`
	Runs          []RunResult     `json:"runs"`
	Summary       Summary         `json:"summary"`
	StartedAt     core.Timestamp  `json:"started_at"`
	Duration      time.Duration   `json:"duration"`
}

// Estimates returns the per-run estimates in run order
func (r *Report) Estimates() []float64 {
	out := make([]float64, len(r.Runs))
	for i, run := range r.Runs {
		out[i] = run.Estimate
	}
	return out
}

// Runner executes batches. It is safe to reuse across batches.
type Runner struct {
	factory EstimatorFactory
	session session.Config
	rng     ports.RNGPort
	logger  *slog.Logger
	// settings feed the batch config hash
	settings map[string]interface{}
}

// NewRunner wires a runner. settings are hashed into every report so that
// batches can be matched to the configuration that produced them.
func NewRunner(factory EstimatorFactory, sessionCfg session.Config, rng ports.RNGPort, settings map[string]interface{}, logger *slog.Logger) (*Runner, error) {
	if factory == nil || rng == nil {
		return nil, core.NewConfigError("simulation", "estimator factory and rng are required")
	}
	if err := sessionCfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DiscardLogger()
	}
	return &Runner{
		factory:  factory,
		session:  sessionCfg,
		rng:      rng,
		settings: settings,
		logger:   logger,
	}, nil
}

// Run simulates cfg.Runs independent sessions on at most cfg.Workers
// goroutines. Every run draws from its own stream, so the report depends
// only on the seed and the configuration.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	threshold, err := cfg.Truth.Threshold(r.factory.TargetProportion())
	if err != nil {
		return nil, fmt.Errorf("true threshold: %w", err)
	}

	report := &Report{
		BatchID:       core.NewBatchID(),
		ConfigHash:    core.ComputeConfigHash(r.hashInput(cfg)),
		TrueThreshold: threshold,
		StartedAt:     core.Now(),
	}
	logger := r.logger.With("batch", report.BatchID.String())
	logger.Info("batch started", "runs", cfg.Runs, "workers", cfg.Workers, "seed", cfg.Seed)

	results := make([]RunResult, cfg.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Runs; i++ {
		g.Go(func() error {
			res, err := r.runOne(gctx, cfg, i, logger)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("batch failed", internal.Err(err))
		return nil, err
	}

	report.Runs = results
	report.Summary, err = Summarize(results, threshold)
	if err != nil {
		return nil, err
	}
	report.Duration = report.StartedAt.Since()
	logger.Info("batch finished",
		"median", report.Summary.Median,
		"rmse", report.Summary.RMSE,
		"unfinished", report.Summary.Runs-report.Summary.Ended,
		"duration", report.Duration)
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, cfg Config, index int, logger *slog.Logger) (RunResult, error) {
	src, err := r.rng.Stream(ctx, streamKey, index, cfg.Seed)
	if err != nil {
		return RunResult{}, err
	}
	obs, err := observer.NewSimulated(cfg.Truth, src)
	if err != nil {
		return RunResult{}, err
	}
	est, err := r.factory.New()
	if err != nil {
		return RunResult{}, err
	}
	s, err := session.New(r.session, est, obs, logger.With("run", index))
	if err != nil {
		return RunResult{}, err
	}
	res, err := s.Run(ctx)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{
		Index:    index,
		Session:  res.ID,
		Estimate: res.Estimate,
		Trials:   res.Trials(),
		Correct:  res.Correct(),
		Ended:    res.Ended,
	}, nil
}

func (r *Runner) hashInput(cfg Config) map[string]interface{} {
	in := make(map[string]interface{}, len(r.settings)+8)
	for k, v := range r.settings {
		in[k] = v
	}
	in["sim.runs"] = cfg.Runs
	in["sim.seed"] = cfg.Seed
	in["sim.true_m"] = cfg.Truth.M
	in["sim.true_s"] = cfg.Truth.S
	in["sim.true_a"] = cfg.Truth.A
	in["sim.true_b"] = cfg.Truth.B
	in["session"] = fmt.Sprintf("%+v", r.session)
	return in
}
