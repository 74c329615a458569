// Package domain holds the error taxonomy shared by services, repositories
// and HTTP handlers. Handlers translate these to status codes at the boundary.
package domain

import (
	"errors"
	"fmt"
)

// sentinel errors for common failure modes
var (
	// ErrValidation marks malformed input (bad email, short password).
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks state collisions: duplicate email, duplicate
	// upvote, re-activation of an already active account.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a missing row (token, message, user).
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an ownership or visibility violation.
	ErrForbidden = errors.New("forbidden")
	// ErrBadCredentials marks failed authentication, including correct
	// passwords on accounts that were never activated.
	ErrBadCredentials = errors.New("invalid credentials or inactive account")
)

// DeliveryError reports a failed activation mail. The registration itself
// has already been committed, so the caller surfaces ActivationURL to the
// user as the degraded fallback.
type DeliveryError struct {
	ActivationURL string
	Err           error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("unable to send email: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
