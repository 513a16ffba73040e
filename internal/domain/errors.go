package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by services and adapters. The HTTP layer owns the
// mapping onto status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrNoTemplate   = errors.New("no matching template")
	ErrBadTemplate  = errors.New("bad template")
	ErrAuth         = errors.New("authentication failed")
)

// PublishError reports a failed attempt to push a reply to the platform.
// Retryable separates transient faults (timeout, 429, 5xx) from terminal
// ones; the operator decides whether to approve again.
type PublishError struct {
	Retryable bool
	Err       error
}

func (e *PublishError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("publish failed (retryable): %v", e.Err)
	}
	return fmt.Sprintf("publish failed: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
