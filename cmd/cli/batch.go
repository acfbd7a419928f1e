package main

import (
	"fmt"
	"io"

	"psyfit/adapters/rng"
	"psyfit/app"
	"psyfit/internal/errors"
	"psyfit/internal/simulation"

	"github.com/spf13/cobra"
)

func newBatchCmd(opts *globalOptions) *cobra.Command {
	var method string
	var seed uint64
	var runs, workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Simulate many sessions and summarize the estimates",
		Long: `Simulate independent sessions concurrently and report how the estimates
spread around the true threshold. Results depend only on the seed and the
configuration, not on the number of workers.

Example: psyfit batch --method hybrid --runs 200 --workers 8 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(method)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("seed") {
				cfg.Simulation.Seed = seed
			}
			if flags.Changed("runs") {
				cfg.Simulation.Runs = runs
			}
			if flags.Changed("workers") {
				cfg.Simulation.Workers = workers
			}
			if err := cfg.Simulation.Validate(); err != nil {
				return errors.Wrap(errors.ConfigInvalid(err.Error()), "batch flags")
			}

			factory, err := app.NewEstimatorFactory(cfg.Estimators)
			if err != nil {
				return errors.Wrap(err, "failed to build estimator")
			}
			runner, err := simulation.NewRunner(factory, cfg.Session, rng.NewSeededAdapter(), cfg.HashInput(), opts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			report, err := runner.Run(cmd.Context(), cfg.Simulation)
			if err != nil {
				return errors.Classify(err, "batch")
			}

			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), factory.Method(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "", "pest, best_pest or hybrid (default: PSY_METHOD)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Base random seed (default: PSY_SEED)")
	cmd.Flags().IntVar(&runs, "runs", 100, "Number of sessions (default: PSY_RUNS)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent sessions (default: PSY_WORKERS)")

	return cmd
}

func printReport(w io.Writer, method app.Method, r *simulation.Report) {
	s := r.Summary
	fmt.Fprintf(w, "batch:           %s\n", r.BatchID)
	fmt.Fprintf(w, "config hash:     %s\n", r.ConfigHash.String())
	fmt.Fprintf(w, "method:          %s\n", method)
	fmt.Fprintf(w, "runs:            %d (%d ended, mean %.1f trials)\n", s.Runs, s.Ended, s.MeanTrials)
	fmt.Fprintf(w, "true threshold:  %.4f\n", r.TrueThreshold)
	fmt.Fprintf(w, "mean ± sd:       %.4f ± %.4f\n", s.Mean, s.StdDev)
	fmt.Fprintf(w, "median:          %.4f\n", s.Median)
	fmt.Fprintf(w, "p5 .. p95:       %.4f .. %.4f\n", s.P5, s.P95)
	fmt.Fprintf(w, "min .. max:      %.4f .. %.4f\n", s.Min, s.Max)
	fmt.Fprintf(w, "bias:            %+.4f\n", s.Bias)
	fmt.Fprintf(w, "rmse:            %.4f\n", s.RMSE)
	if sh := s.Shape; sh != nil {
		fmt.Fprintf(w, "q1 .. q3:        %.4f .. %.4f\n", sh.Q1, sh.Q3)
		fmt.Fprintf(w, "skew / kurtosis: %.3f / %.3f (normality p=%.3g)\n", sh.Skewness, sh.ExcessKurtosis, sh.NormalityP)
		fmt.Fprintf(w, "outliers:        %d mild, %d extreme\n", sh.MildOutliers, sh.ExtremeOutliers)
	}
	fmt.Fprintf(w, "duration:        %s\n", r.Duration)
}
