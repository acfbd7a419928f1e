// Package session drives one threshold measurement: it presents levels to an
// observer, feeds the responses to an estimator and stops when the estimator
// ends or the trial cap is reached.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"psyfit/domain/core"
	"psyfit/internal"
	"psyfit/ports"
)

// Config bounds the levels a session may present. Levels may be negative,
// for example attenuation in dB.
type Config struct {
	MinLevel   float64
	MaxLevel   float64 `validate:"gtfield=MinLevel"`
	StartLevel float64
	// IntegerLevels truncates every level the estimator proposes toward zero.
	IntegerLevels bool
	// ProbeExtremes presents MaxLevel on the first trial and MinLevel on the
	// second, whatever the estimator proposes.
	ProbeExtremes bool
	// MaxTrials caps the session when the estimator never ends
	MaxTrials int `validate:"gt=0"`
}

// DefaultConfig matches a 1..50 level range starting at the top
func DefaultConfig() Config {
	return Config{
		MinLevel:   1,
		MaxLevel:   50,
		StartLevel: 50,
		MaxTrials:  500,
	}
}

// Validate checks the level range and trial cap
func (c Config) Validate() error {
	if math.IsNaN(c.MinLevel) || math.IsNaN(c.MaxLevel) || c.MaxLevel <= c.MinLevel {
		return core.NewConfigError("level range", fmt.Sprintf("need min < max, got [%g, %g]", c.MinLevel, c.MaxLevel))
	}
	if math.IsNaN(c.StartLevel) || math.IsInf(c.StartLevel, 0) {
		return core.NewConfigError("start level", "must be finite")
	}
	if c.MaxTrials <= 0 {
		return core.NewConfigError("max trials", "must be positive")
	}
	return nil
}

// Clamp restricts x to [MinLevel, MaxLevel]
func (c Config) Clamp(x float64) float64 {
	return math.Min(math.Max(x, c.MinLevel), c.MaxLevel)
}

// Result records one completed session.
type Result struct {
	ID        core.SessionID `json:"id"`
	Levels    []float64      `json:"levels"`
	Responses []bool         `json:"responses"`
	Estimate  float64        `json:"estimate"`
	// Ended is false when the trial cap stopped the session
	Ended     bool           `json:"ended"`
	StartedAt core.Timestamp `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// Trials returns the number of presented trials
func (r *Result) Trials() int { return len(r.Levels) }

// Correct returns the number of correct responses
func (r *Result) Correct() int {
	n := 0
	for _, ok := range r.Responses {
		if ok {
			n++
		}
	}
	return n
}

// Session pairs an estimator with an observer.
type Session struct {
	id        core.SessionID
	cfg       Config
	estimator ports.EstimatorPort
	observer  ports.ObserverPort
	logger    *slog.Logger
}

// New creates a session. A nil logger discards output.
func New(cfg Config, estimator ports.EstimatorPort, observer ports.ObserverPort, logger *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if estimator == nil || observer == nil {
		return nil, core.NewConfigError("session", "estimator and observer are required")
	}
	if logger == nil {
		logger = internal.DiscardLogger()
	}
	id := core.NewSessionID()
	return &Session{
		id:        id,
		cfg:       cfg,
		estimator: estimator,
		observer:  observer,
		logger:    logger.With("session", id.String()),
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() core.SessionID { return s.id }

// Run presents trials until the estimator ends, the trial cap is hit or ctx
// is cancelled. On error the partial result is returned alongside it.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	started := core.Now()
	res := &Result{ID: s.id, StartedAt: started}
	defer func() { res.Duration = started.Since() }()

	s.logger.Debug("session started", "start", s.cfg.StartLevel, "min", s.cfg.MinLevel, "max", s.cfg.MaxLevel)

	next := s.cfg.StartLevel
	for t := 0; t < s.cfg.MaxTrials; t++ {
		if err := ctx.Err(); err != nil {
			res.Estimate = s.estimator.Estimate()
			return res, fmt.Errorf("session %s cancelled after %d trials: %w", s.id, t, err)
		}

		x := s.level(t, next)
		correct, err := s.observer.Respond(ctx, x)
		if err != nil {
			res.Estimate = s.estimator.Estimate()
			return res, fmt.Errorf("observer at trial %d: %w", t+1, err)
		}
		res.Levels = append(res.Levels, x)
		res.Responses = append(res.Responses, correct)

		next, err = s.estimator.Update(correct, x)
		if err != nil {
			res.Estimate = s.estimator.Estimate()
			return res, fmt.Errorf("estimator at trial %d: %w", t+1, err)
		}
		if s.cfg.IntegerLevels {
			next = math.Trunc(next)
		}
		s.logger.Log(ctx, internal.LevelTrace, "trial", "n", t+1, "x", x, "correct", correct, "next", next)

		if s.estimator.HasEnded() {
			res.Ended = true
			break
		}
	}

	res.Estimate = s.estimator.Estimate()
	if !res.Ended {
		s.logger.Warn("trial cap reached before the estimator ended", "trials", res.Trials(), "estimate", res.Estimate)
	} else {
		s.logger.Info("session finished", "trials", res.Trials(), "correct", res.Correct(), "estimate", res.Estimate)
	}
	return res, nil
}

// level returns the level presented on trial t (zero based)
func (s *Session) level(t int, proposed float64) float64 {
	if s.cfg.ProbeExtremes {
		switch t {
		case 0:
			return s.cfg.MaxLevel
		case 1:
			return s.cfg.MinLevel
		}
	}
	return s.cfg.Clamp(proposed)
}
