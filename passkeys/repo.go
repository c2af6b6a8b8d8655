package passkeys

import (
	"context"
	"time"
)

// Repo persists passkey credentials.
type Repo interface {
	// Create stores a new credential, errors.ErrAlreadyExists when the ID is taken
	Create(ctx context.Context, credential *Credential) error

	// Get returns errors.ErrNotFound for an unknown ID
	Get(ctx context.Context, credentialID string) (*Credential, error)

	ListByPrincipal(ctx context.Context, principalID string) ([]*Credential, error)

	// UpdateCounter moves the counter from expected to next and stamps usedAt.
	// It returns errors.ErrConflict when the stored counter is no longer expected.
	UpdateCounter(ctx context.Context, credentialID string, expected, next uint32, usedAt time.Time) error
}
