package auth

import (
	"errors"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// Errors returned by the session manager. The authentication reasons all wrap
// ErrAuthenticationFailed; use PublicError before showing one to a client.
var (
	ErrAuthenticationFailed = autherrors.ErrAuthenticationFailed
	ErrAdminAccessDenied    = autherrors.ErrAdminAccessDenied
	ErrStorageUnavailable   = autherrors.ErrStorageUnavailable
	ErrInvalidRequest       = autherrors.ErrInvalidRequest
	ErrInternal             = autherrors.ErrInternal

	ErrMalformed          = autherrors.ErrMalformed
	ErrExpired            = autherrors.ErrExpired
	ErrRevoked            = autherrors.ErrRevoked
	ErrReplayDetected     = autherrors.ErrReplayDetected
	ErrCredentialNotFound = autherrors.ErrCredentialNotFound
	ErrSignatureMismatch  = autherrors.ErrSignatureMismatch
	ErrPrincipalNotFound  = autherrors.ErrPrincipalNotFound
)

// PublicError collapses err to the error a client is allowed to see. The
// individual authentication reasons become ErrAuthenticationFailed; admin
// denial and storage outages stay distinct.
func PublicError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAdminAccessDenied):
		return ErrAdminAccessDenied
	case errors.Is(err, ErrStorageUnavailable):
		return ErrStorageUnavailable
	case errors.Is(err, ErrAuthenticationFailed):
		return ErrAuthenticationFailed
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, autherrors.ErrAlreadyExists):
		return ErrInvalidRequest
	}
	return ErrInternal
}
