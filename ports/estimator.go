package ports

// EstimatorPort is a sequential threshold estimator. Update consumes one
// response at the presented level and returns the next level to present.
type EstimatorPort interface {
	Update(isCorrect bool, x float64) (float64, error)
	HasEnded() bool
	Estimate() float64
	Trials() int
}
