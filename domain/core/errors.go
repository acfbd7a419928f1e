package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Range errors: a query fell outside the valid domain of a function or grid
	ErrDomain            = errors.New("value outside valid domain")
	ErrProbabilityDomain = fmt.Errorf("%w: probability", ErrDomain)
	ErrGridDomain        = fmt.Errorf("%w: grid coordinate", ErrDomain)

	// Distribution errors
	ErrInvalidDistribution = errors.New("invalid distribution")

	// Invariant errors are fatal: the estimator state is no longer trustworthy
	ErrInvariant = errors.New("internal invariant violated")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid estimator configuration")

	// Lifecycle errors
	ErrEnded = errors.New("estimation has already ended")

	// Numerical errors (advisory, never fatal)
	ErrNotConverged = errors.New("optimizer did not converge")
)

// Error constructors with context
func NewDomainError(what string, value float64, lo, hi float64) error {
	return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrDomain, what, value, lo, hi)
}

func NewProbabilityError(p, lo, hi float64) error {
	return fmt.Errorf("%w: p=%g must lie strictly inside (%g, %g)", ErrProbabilityDomain, p, lo, hi)
}

func NewGridError(x, lo, hi float64) error {
	return fmt.Errorf("%w: x=%g must be in [%g, %g]", ErrGridDomain, x, lo, hi)
}

func NewInvariantError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, field, reason)
}

// Error checking helpers
func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain)
}

func IsDistributionError(err error) bool {
	return errors.Is(err, ErrInvalidDistribution)
}

func IsInvariantError(err error) bool {
	return errors.Is(err, ErrInvariant)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

func IsEnded(err error) bool {
	return errors.Is(err, ErrEnded)
}
