package pipeline

import (
	"errors"
	"fmt"
)

// ErrorType classifies a step failure.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeExecution  ErrorType = "execution"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeFatal      ErrorType = "fatal"
)

// StepError is the typed failure a step reports. It distinguishes
// recoverable failures (Retryable) from fatal ones; the runner retries the
// former with backoff and aborts on the latter.
type StepError struct {
	Type      ErrorType
	Step      string
	Message   string
	Cause     error
	Retryable bool
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e == nil {
		return "unknown step error"
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError reports a precondition failure; never retried.
func NewValidationError(step, message string) *StepError {
	return &StepError{Type: ErrorTypeValidation, Step: step, Message: message}
}

// NewExecutionError reports a runtime failure of a step.
func NewExecutionError(step string, cause error, retryable bool) *StepError {
	return &StepError{
		Type:      ErrorTypeExecution,
		Step:      step,
		Message:   "step execution failed",
		Cause:     cause,
		Retryable: retryable,
	}
}

// NewTimeoutError reports that a step exceeded its timeout; retryable.
func NewTimeoutError(step string, timeout string) *StepError {
	return &StepError{
		Type:      ErrorTypeTimeout,
		Step:      step,
		Message:   fmt.Sprintf("step exceeded timeout of %s", timeout),
		Retryable: true,
	}
}

// NewFatalError reports an unrecoverable failure; the run aborts.
func NewFatalError(message string, cause error) *StepError {
	return &StepError{Type: ErrorTypeFatal, Message: message, Cause: cause}
}

// IsRetryable reports whether err is a retryable StepError.
func IsRetryable(err error) bool {
	var se *StepError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}
