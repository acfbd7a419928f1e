package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"psyfit/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCodeAndChain(t *testing.T) {
	sentinel := stderrors.New("bad range")
	base := &AppError{Code: CodeConfigInvalid, Message: "session", Cause: sentinel}

	wrapped := Wrap(fmt.Errorf("loading: %w", base), "configuration validation failed")
	assert.Equal(t, CodeConfigInvalid, GetCode(wrapped))
	assert.ErrorIs(t, wrapped, sentinel)
	assert.Equal(t, "configuration validation failed: loading: session: bad range", wrapped.Error())

	plain := Wrap(sentinel, "run")
	assert.Equal(t, CodeInternalError, GetCode(plain))
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
	assert.Equal(t, "run 3: bad range", Wrapf(sentinel, "run %d", 3).Error())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"cancelled", fmt.Errorf("session s1 cancelled after 3 trials: %w", context.Canceled), CodeCancelled},
		{"deadline", context.DeadlineExceeded, CodeCancelled},
		{"config", core.NewConfigError("min_step", "must be positive"), CodeConfigInvalid},
		{"domain", core.NewProbabilityError(0.3, 0.5, 1), CodeInvalidInput},
		{"distribution", fmt.Errorf("%w: empty grid", core.ErrInvalidDistribution), CodeInvalidInput},
		{"invariant", core.NewInvariantError("no deviation branch"), CodeEstimationFailed},
		{"ended", fmt.Errorf("estimator at trial 51: %w", core.ErrEnded), CodeEstimationFailed},
		{"observer", stderrors.New("device unplugged"), CodeInternalError},
		{"app error kept", InvalidInput("nan level"), CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(tt.err, "session")
			assert.Equal(t, tt.want, GetCode(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Nil(t, Classify(nil, "session"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(Wrap(ConfigInvalid("runs must be positive"), "batch flags")))
	assert.Equal(t, 130, ExitCode(Classify(context.Canceled, "batch")))
	assert.Equal(t, 1, ExitCode(InvalidInput("p2 must be positive")))
	assert.Equal(t, 1, ExitCode(stderrors.New("plain")))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
}
