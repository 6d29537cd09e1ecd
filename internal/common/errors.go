// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Common application errors.
var (
	// Startup errors.
	ErrModelLoad   = errors.New("model load failed")
	ErrCaptureOpen = errors.New("capture device failed to open")

	// Classification errors.
	ErrClassificationFailed = errors.New("classification failed")
	ErrMalformedResult      = errors.New("malformed classification result")
	ErrFrameNotReady        = errors.New("frame not ready")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// StartupError is fatal to a session: the model or the capture device
// never became ready.
type StartupError struct {
	Err       error
	Component string
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("%s startup failed: %v", e.Component, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// NewStartupError wraps err as a startup failure of the named component.
func NewStartupError(component string, err error) error {
	return &StartupError{
		Component: component,
		Err:       err,
	}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
