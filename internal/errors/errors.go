package errors

import (
	"errors"
	"fmt"
)

// Boundary errors. Every authentication failure wraps ErrAuthenticationFailed so
// callers at the edge can collapse them without losing the internal reason.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAdminAccessDenied    = errors.New("admin access denied")
	ErrStorageUnavailable   = errors.New("storage unavailable")
)

// Authentication failure reasons
var (
	ErrMalformed          = fmt.Errorf("%w: malformed token", ErrAuthenticationFailed)
	ErrExpired            = fmt.Errorf("%w: token expired", ErrAuthenticationFailed)
	ErrRevoked            = fmt.Errorf("%w: session revoked", ErrAuthenticationFailed)
	ErrReplayDetected     = fmt.Errorf("%w: credential replay detected", ErrAuthenticationFailed)
	ErrCredentialNotFound = fmt.Errorf("%w: credential not found", ErrAuthenticationFailed)
	ErrSignatureMismatch  = fmt.Errorf("%w: signature mismatch", ErrAuthenticationFailed)
	ErrPrincipalNotFound  = fmt.Errorf("%w: principal not found", ErrAuthenticationFailed)
)

// Repository errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
)

// General errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
)

// Storage marks err as a backing store failure for op. ErrNotFound passes
// through untouched so lookups can still tell "absent" from "can't check".
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
