// Package staircase implements PEST (Parameter Estimation by Sequential
// Testing), a non-parametric rule deciding when and by how much to change
// the stimulus level from runs of responses at a single level.
//
// A decision is taken once the deviation I = Pt·T' − C' (T', C' counted since
// the last level change) leaves the band (−W, W). Steps halve on reversals,
// stay the same on the second step in one direction, and grow on longer runs,
// except that the third step after a reversal caused by a doubled step keeps
// its size. The run ends when the step size reaches its minimum.
package staircase

import (
	"math"

	"psyfit/domain/core"
)

// Config holds the staircase parameters
type Config struct {
	InitialStep      int     `json:"initial_step" validate:"gtfield=MinStep"` // starting step size
	MinStep          int     `json:"min_step" validate:"gt=0"`                // run ends when the step reaches this size
	MaxStep          int     `json:"max_step" validate:"gte=0"`               // upper clamp; 0 means 2×InitialStep
	TargetProportion float64 `json:"target_proportion" validate:"gt=0,lt=1"`  // Pt: 0.75 for 2AFC, 0.5 for yes/no
	DeviationLimit   float64 `json:"deviation_limit" validate:"gt=0"`         // W, usually 1.0–2.0
}

// DefaultConfig returns the classic PEST settings for a 2AFC task.
func DefaultConfig() Config {
	return Config{
		InitialStep:      16,
		MinStep:          1,
		MaxStep:          32,
		TargetProportion: 0.75,
		DeviationLimit:   1.0,
	}
}

// Validate checks the configuration for values the rule cannot work with.
func (c Config) Validate() error {
	switch {
	case c.MinStep <= 0:
		return core.NewConfigError("min_step", "must be positive")
	case c.InitialStep <= c.MinStep:
		return core.NewConfigError("initial_step", "must exceed min_step")
	case c.MaxStep != 0 && c.MaxStep < c.InitialStep:
		return core.NewConfigError("max_step", "must be at least initial_step")
	case !(c.TargetProportion > 0 && c.TargetProportion < 1):
		return core.NewConfigError("target_proportion", "must be in (0, 1)")
	case !(c.DeviationLimit > 0) || math.IsInf(c.DeviationLimit, 0):
		return core.NewConfigError("deviation_limit", "must be positive and finite")
	}
	return nil
}

func (c Config) maxStep() int {
	if c.MaxStep == 0 {
		return 2 * c.InitialStep
	}
	return c.MaxStep
}

// State is a snapshot of the staircase internals
type State struct {
	Xt                           float64   `json:"xt"`
	Dx                           int       `json:"dx"`
	MinDx                        int       `json:"min_dx"`
	MaxDx                        int       `json:"max_dx"`
	RepeatedNum                  int       `json:"repeated_num"`
	DoubledDx                    bool      `json:"doubled_dx"`
	SwitchedDirectionByDoubledDx bool      `json:"switched_direction_by_doubled_dx"`
	PreDirection                 Direction `json:"pre_direction"`
	ConsecutiveT                 int       `json:"consecutive_t"`
	ConsecutiveC                 int       `json:"consecutive_c"`
	Pt                           float64   `json:"pt"`
	W                            float64   `json:"w"`
	T                            int       `json:"t"`
	C                            int       `json:"c"`
	Reversals                    int       `json:"reversals"`
}

// Staircase is a PEST state machine over one stimulus level.
// It is not safe for concurrent use.
type Staircase struct {
	xt    float64
	dx    int
	minDx int
	maxDx int

	repeatedNum                  int
	doubledDx                    bool
	switchedDirectionByDoubledDx bool
	preDirection                 Direction

	// tallies since the last level change
	consecutiveT int
	consecutiveC int

	pt float64
	w  float64

	t         int
	c         int
	reversals int
}

// New creates a staircase. The first decision is compared against Down.
func New(cfg Config) (*Staircase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Staircase{
		dx:           cfg.InitialStep,
		minDx:        cfg.MinStep,
		maxDx:        cfg.maxStep(),
		repeatedNum:  1,
		preDirection: Down,
		pt:           cfg.TargetProportion,
		w:            cfg.DeviationLimit,
	}, nil
}

// Update records a response at level x and returns the next level.
// Once the run has ended it returns core.ErrEnded without changing state.
func (s *Staircase) Update(isCorrect bool, x float64) (float64, error) {
	if s.HasEnded() {
		return s.xt, core.ErrEnded
	}
	return s.Step(isCorrect, x)
}

// Step applies the PEST rule regardless of whether the run has ended.
// Composite estimators that keep their own stop condition use it directly.
func (s *Staircase) Step(isCorrect bool, x float64) (float64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return s.xt, core.NewDomainError("x", x, math.Inf(-1), math.Inf(1))
	}

	consT := s.consecutiveT + 1
	consC := s.consecutiveC
	if isCorrect {
		consC++
	}

	deviation := s.pt*float64(consT) - float64(consC)

	var direction Direction
	switch {
	case math.Abs(deviation) < s.w:
		s.commit(isCorrect, consT, consC)
		s.xt = x
		return s.xt, nil
	case deviation <= -s.w:
		direction = Down
	case deviation >= s.w:
		direction = Up
	default:
		return s.xt, core.NewInvariantError("deviation %v fits no branch of W=%v (Pt=%v)", deviation, s.w, s.pt)
	}

	// a decision consumes the run at this level
	s.commit(isCorrect, 0, 0)
	s.findDx(direction)
	s.preDirection = direction

	if s.dx > s.maxDx {
		s.dx = s.maxDx
	}

	s.xt = direction.apply(x, s.dx)
	return s.xt, nil
}

func (s *Staircase) commit(isCorrect bool, consT, consC int) {
	s.t++
	if isCorrect {
		s.c++
	}
	s.consecutiveT = consT
	s.consecutiveC = consC
}

// findDx updates the step size for a newly decided direction.
func (s *Staircase) findDx(direction Direction) {
	if direction != s.preDirection {
		if s.doubledDx {
			s.switchedDirectionByDoubledDx = true
		}
		s.repeatedNum = 1
		s.dx /= 2
		s.reversals++
		return
	}

	s.repeatedNum++
	switch {
	case s.repeatedNum == 2:
		s.doubledDx = false
	case s.repeatedNum >= 4:
		s.dx = 2 * s.repeatedNum
		s.doubledDx = true
	case s.repeatedNum == 3:
		if !s.switchedDirectionByDoubledDx {
			s.dx = 2 * s.repeatedNum
		}
		s.doubledDx = false
	}
}

// HasEnded reports whether the step size has shrunk to its minimum.
func (s *Staircase) HasEnded() bool {
	return s.dx == s.minDx
}

// Xt returns the current target level
func (s *Staircase) Xt() float64 { return s.xt }

// Estimate is the threshold estimate, the current target level
func (s *Staircase) Estimate() float64 { return s.xt }

// Dx returns the current step size
func (s *Staircase) Dx() int { return s.dx }

// Trials returns the total number of responses
func (s *Staircase) Trials() int { return s.t }

// Correct returns the total number of correct responses
func (s *Staircase) Correct() int { return s.c }

// Reversals returns how many direction changes have occurred
func (s *Staircase) Reversals() int { return s.reversals }

// State returns a snapshot of the internals
func (s *Staircase) State() State {
	return State{
		Xt:                           s.xt,
		Dx:                           s.dx,
		MinDx:                        s.minDx,
		MaxDx:                        s.maxDx,
		RepeatedNum:                  s.repeatedNum,
		DoubledDx:                    s.doubledDx,
		SwitchedDirectionByDoubledDx: s.switchedDirectionByDoubledDx,
		PreDirection:                 s.preDirection,
		ConsecutiveT:                 s.consecutiveT,
		ConsecutiveC:                 s.consecutiveC,
		Pt:                           s.pt,
		W:                            s.w,
		T:                            s.t,
		C:                            s.c,
		Reversals:                    s.reversals,
	}
}
