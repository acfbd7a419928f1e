// Package trial records the responses an estimator has seen.
package trial

import "fmt"

// Trial is one recorded response. T and C are the cumulative trial and
// correct counts at the moment the trial was recorded, not per-level tallies.
type Trial struct {
	X float64 `json:"x"`
	T int     `json:"t"`
	C int     `json:"c"`
}

func (t Trial) String() string {
	return fmt.Sprintf("(X=%g, T=%d, C=%d)", t.X, t.T, t.C)
}

// History is an append-only sequence of trials owned by one estimator.
// The zero value is ready to use.
type History struct {
	trials  []Trial
	total   int
	correct int
}

// NewHistory creates a history with room for capacity trials
func NewHistory(capacity int) *History {
	if capacity < 0 {
		capacity = 0
	}
	return &History{trials: make([]Trial, 0, capacity)}
}

// Record increments the cumulative counters and appends the resulting trial.
func (h *History) Record(isCorrect bool, x float64) Trial {
	h.total++
	if isCorrect {
		h.correct++
	}
	tr := Trial{X: x, T: h.total, C: h.correct}
	h.trials = append(h.trials, tr)
	return tr
}

// Len returns the number of recorded trials
func (h *History) Len() int { return len(h.trials) }

// At returns the i-th trial
func (h *History) At(i int) Trial { return h.trials[i] }

// Total returns the cumulative trial count
func (h *History) Total() int { return h.total }

// Correct returns the cumulative correct count
func (h *History) Correct() int { return h.correct }

// Last returns the most recent trial, if any
func (h *History) Last() (Trial, bool) {
	if len(h.trials) == 0 {
		return Trial{}, false
	}
	return h.trials[len(h.trials)-1], true
}

// All returns a copy of the recorded trials
func (h *History) All() []Trial {
	out := make([]Trial, len(h.trials))
	copy(out, h.trials)
	return out
}

// Levels returns the stimulus level of every trial, in order
func (h *History) Levels() []float64 {
	out := make([]float64, len(h.trials))
	for i, tr := range h.trials {
		out[i] = tr.X
	}
	return out
}

// ProportionCorrect returns C/T over the whole history, or 0 when empty.
func (h *History) ProportionCorrect() float64 {
	if h.total == 0 {
		return 0
	}
	return float64(h.correct) / float64(h.total)
}
