package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"psyfit/domain/core"
)

// Code classifies an application error for callers that branch on it, such
// as the CLI exit status.
type Code string

const (
	CodeConfigInvalid    Code = "CONFIG_INVALID"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeEstimationFailed Code = "ESTIMATION_FAILED"
	CodeCancelled        Code = "CANCELLED"
	CodeInternalError    Code = "INTERNAL_ERROR"
	CodeUnknown          Code = "UNKNOWN"
)

// AppError is an error with a code and a message, optionally wrapping the
// error that caused it.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Wrap adds context to err and keeps the code of the nearest AppError in
// the chain, or INTERNAL_ERROR when there is none.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	code := CodeInternalError
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		code = appErr.Code
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf is Wrap with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Classify wraps an error coming out of the estimation core with the code
// its sentinel implies. An AppError already in the chain keeps its code.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return Wrap(err, message)
	}
	return &AppError{Code: codeOf(err), Message: message, Cause: err}
}

func codeOf(err error) Code {
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	case core.IsConfigError(err):
		return CodeConfigInvalid
	case core.IsDomainError(err), core.IsDistributionError(err):
		return CodeInvalidInput
	case core.IsInvariantError(err), core.IsEnded(err), stderrors.Is(err, core.ErrNotConverged):
		return CodeEstimationFailed
	default:
		return CodeInternalError
	}
}

// GetCode returns the code of the nearest AppError, otherwise UNKNOWN
func GetCode(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// ExitCode maps an error to a process exit status: 0 for nil, 2 for bad
// configuration, 130 for cancellation, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case CodeConfigInvalid:
		return 2
	case CodeCancelled:
		return 130
	default:
		return 1
	}
}

func ConfigInvalid(message string) *AppError {
	return &AppError{Code: CodeConfigInvalid, Message: message}
}

func InvalidInput(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message}
}
