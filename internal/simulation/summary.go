package simulation

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Summary describes the spread of estimates around the true threshold.
// Percentiles use the nearest-rank definition so small batches are valid.
type Summary struct {
	Runs       int     `json:"runs"`
	Ended      int     `json:"ended"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Median     float64 `json:"median"`
	P5         float64 `json:"p5"`
	P95        float64 `json:"p95"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Bias       float64 `json:"bias"`
	RMSE       float64 `json:"rmse"`
	MeanTrials float64 `json:"mean_trials"`
	// Shape is nil for batches too small to describe
	Shape      *Shape  `json:"shape,omitempty"`
}

// Summarize computes batch statistics of the estimates against truth.
func Summarize(runs []RunResult, truth float64) (Summary, error) {
	if len(runs) == 0 {
		return Summary{}, fmt.Errorf("summarize: no runs")
	}

	estimates := make(stats.Float64Data, len(runs))
	sqErr := make(stats.Float64Data, len(runs))
	trials := make(stats.Float64Data, len(runs))
	sum := Summary{Runs: len(runs)}
	for i, r := range runs {
		estimates[i] = r.Estimate
		d := r.Estimate - truth
		sqErr[i] = d * d
		trials[i] = float64(r.Trials)
		if r.Ended {
			sum.Ended++
		}
	}

	var err error
	if sum.Mean, err = stats.Mean(estimates); err != nil {
		return Summary{}, fmt.Errorf("mean: %w", err)
	}
	if sum.StdDev, err = stats.StandardDeviation(estimates); err != nil {
		return Summary{}, fmt.Errorf("standard deviation: %w", err)
	}
	if sum.Median, err = stats.Median(estimates); err != nil {
		return Summary{}, fmt.Errorf("median: %w", err)
	}
	if sum.P5, err = stats.PercentileNearestRank(estimates, 5); err != nil {
		return Summary{}, fmt.Errorf("p5: %w", err)
	}
	if sum.P95, err = stats.PercentileNearestRank(estimates, 95); err != nil {
		return Summary{}, fmt.Errorf("p95: %w", err)
	}
	if sum.Min, err = stats.Min(estimates); err != nil {
		return Summary{}, fmt.Errorf("min: %w", err)
	}
	if sum.Max, err = stats.Max(estimates); err != nil {
		return Summary{}, fmt.Errorf("max: %w", err)
	}
	mse, err := stats.Mean(sqErr)
	if err != nil {
		return Summary{}, fmt.Errorf("mse: %w", err)
	}
	sum.RMSE = math.Sqrt(mse)
	sum.Bias = sum.Mean - truth
	if sum.MeanTrials, err = stats.Mean(trials); err != nil {
		return Summary{}, fmt.Errorf("mean trials: %w", err)
	}
	if len(estimates) >= minShapeRuns {
		shape, err := AnalyzeShape(estimates)
		if err != nil {
			return Summary{}, err
		}
		sum.Shape = &shape
	}
	return sum, nil
}
