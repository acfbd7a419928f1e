package main

import (
	"fmt"
	"io"

	"psyfit/adapters/observer"
	"psyfit/adapters/rng"
	"psyfit/app"
	"psyfit/internal"
	"psyfit/internal/errors"
	"psyfit/internal/hdi"
	"psyfit/internal/hybrid"
	"psyfit/internal/mle"
	"psyfit/internal/session"
	"psyfit/ports"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

// simulateOutput is the JSON shape of a simulated session
type simulateOutput struct {
	Method        app.Method      `json:"method"`
	TrueThreshold float64         `json:"true_threshold"`
	Session       *session.Result `json:"session"`
	Interval      *hdi.Interval   `json:"interval,omitempty"`
	Fit           *mle.FitResult  `json:"fit,omitempty"`
	Warning       string          `json:"warning,omitempty"`
}

func newSimulateCmd(opts *globalOptions) *cobra.Command {
	var method string
	var seed uint64
	var alpha float64
	var gridPoints int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one session against a simulated observer",
		Long: `Run one adaptive session against an observer whose responses are drawn
from a known psychometric function (PSY_TRUE_M, PSY_TRUE_S, PSY_TRUE_A,
PSY_TRUE_B), then compare the estimate with the true threshold.

For Best-PEST the highest-density interval of the normalized likelihood over
the level range is reported as well.

Example: psyfit simulate --method best_pest --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(method)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Simulation.Seed = seed
			}
			logger := opts.logger(cmd.ErrOrStderr())

			factory, err := app.NewEstimatorFactory(cfg.Estimators)
			if err != nil {
				return errors.Wrap(err, "failed to build estimator")
			}
			est, err := factory.New()
			if err != nil {
				return errors.Wrap(err, "failed to build estimator")
			}
			src, err := rng.NewSeededAdapter().SeededStream(cmd.Context(), "simulate", cfg.Simulation.Seed)
			if err != nil {
				return err
			}
			obs, err := observer.NewSimulated(cfg.Simulation.Truth, src)
			if err != nil {
				return errors.Wrap(err, "failed to build observer")
			}
			threshold, err := obs.Threshold(factory.TargetProportion())
			if err != nil {
				return errors.Wrap(errors.InvalidInput(err.Error()), "true threshold")
			}

			s, err := session.New(cfg.Session, est, obs, logger)
			if err != nil {
				return err
			}
			res, err := s.Run(cmd.Context())
			if err != nil {
				return errors.Classify(err, "session")
			}

			out := simulateOutput{Method: factory.Method(), TrueThreshold: threshold, Session: res}
			describeEstimator(&out, est, cfg.Session, alpha, gridPoints)
			if out.Fit != nil {
				if err := out.Fit.Err(); err != nil {
					logger.Warn("last fit stopped early", internal.Err(err))
				}
			}

			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printSimulation(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "", "pest, best_pest or hybrid (default: PSY_METHOD)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed (default: PSY_SEED)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Credible interval excludes this mass")
	cmd.Flags().IntVar(&gridPoints, "grid-points", 491, "Likelihood grid size over the level range")

	return cmd
}

// describeEstimator adds method specific diagnostics to out
func describeEstimator(out *simulateOutput, est ports.EstimatorPort, sc session.Config, alpha float64, gridPoints int) {
	switch e := est.(type) {
	case *mle.Estimator:
		fit := e.LastFit()
		out.Fit = &fit
		if gridPoints < 2 {
			return
		}
		coords := floats.Span(make([]float64, gridPoints), sc.MinLevel, sc.MaxLevel)
		if iv, err := e.CredibleInterval(coords, alpha); err == nil {
			out.Interval = &iv
		}
	case *hybrid.Estimator:
		fit := e.LastFit()
		out.Fit = &fit
		if w := e.ValidateParameter(); w != nil {
			out.Warning = w.Error()
		}
	}
}

func printSimulation(w io.Writer, out simulateOutput) {
	res := out.Session
	fmt.Fprintf(w, "method:          %s\n", out.Method)
	fmt.Fprintf(w, "session:         %s\n", res.ID)
	fmt.Fprintf(w, "trials:          %d (%d correct)\n", res.Trials(), res.Correct())
	if !res.Ended {
		fmt.Fprintf(w, "                 trial cap reached before the estimator ended\n")
	}
	fmt.Fprintf(w, "levels:          %v\n", res.Levels)
	fmt.Fprintf(w, "true threshold:  %.4f\n", out.TrueThreshold)
	fmt.Fprintf(w, "estimate:        %.4f (error %+.4f)\n", res.Estimate, res.Estimate-out.TrueThreshold)
	if out.Fit != nil {
		fmt.Fprintf(w, "fit:             %s\n", out.Fit)
	}
	if out.Interval != nil {
		fmt.Fprintf(w, "interval:        %s (width %.4f)\n", out.Interval, out.Interval.Width())
	}
	if out.Warning != "" {
		fmt.Fprintf(w, "warning:         %s\n", out.Warning)
	}
}
