package simulation

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// minShapeRuns is the smallest batch whose shape is reported
const minShapeRuns = 4

// Shape describes how the estimates of a batch are distributed. Moments are
// population moments; outliers use Tukey fences on the quartiles.
type Shape struct {
	Q1              float64 `json:"q1"`
	Q3              float64 `json:"q3"`
	IQR             float64 `json:"iqr"`
	Skewness        float64 `json:"skewness"`
	ExcessKurtosis  float64 `json:"excess_kurtosis"`
	MildOutliers    int     `json:"mild_outliers"`
	ExtremeOutliers int     `json:"extreme_outliers"`
	// NormalityP is the Jarque-Bera p-value
	NormalityP      float64 `json:"normality_p"`
}

// AnalyzeShape computes the shape of data; it needs at least four values.
func AnalyzeShape(data []float64) (Shape, error) {
	if len(data) < minShapeRuns {
		return Shape{}, fmt.Errorf("shape needs at least %d values, got %d", minShapeRuns, len(data))
	}
	in := stats.Float64Data(data)

	qs, err := stats.Quartile(in)
	if err != nil {
		return Shape{}, fmt.Errorf("quartiles: %w", err)
	}
	iqr, err := stats.InterQuartileRange(in)
	if err != nil {
		return Shape{}, fmt.Errorf("iqr: %w", err)
	}
	outliers, err := stats.QuartileOutliers(in)
	if err != nil {
		return Shape{}, fmt.Errorf("outliers: %w", err)
	}
	mean, err := stats.Mean(in)
	if err != nil {
		return Shape{}, fmt.Errorf("mean: %w", err)
	}

	shape := Shape{
		Q1:              qs.Q1,
		Q3:              qs.Q3,
		IQR:             iqr,
		MildOutliers:    len(outliers.Mild),
		ExtremeOutliers: len(outliers.Extreme),
		NormalityP:      1,
	}

	var m2, m3, m4 float64
	for _, x := range data {
		d := x - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(data))
	m2, m3, m4 = m2/n, m3/n, m4/n
	if m2 == 0 {
		// constant estimates have no shape
		return shape, nil
	}
	shape.Skewness = m3 / math.Pow(m2, 1.5)
	shape.ExcessKurtosis = m4/(m2*m2) - 3

	jb := n / 6 * (shape.Skewness*shape.Skewness + shape.ExcessKurtosis*shape.ExcessKurtosis/4)
	shape.NormalityP = distuv.ChiSquared{K: 2}.Survival(jb)
	return shape, nil
}
