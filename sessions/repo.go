package sessions

import (
	"context"
	"time"
)

// Repo persists session records. Lookups that find nothing live return
// errors.ErrNotFound; any other error means the store could not answer.
type Repo interface {
	// Upsert inserts or replaces the record for (PrincipalID, DeviceID). On
	// replace the original ID and CreatedAt are kept and written back to record.
	Upsert(ctx context.Context, record *Record) error

	// FindByToken returns the record holding token if it expires after now
	FindByToken(ctx context.Context, token string, now time.Time) (*Record, error)

	// DeleteByToken removes the record holding token. Deleting nothing is not an error.
	DeleteByToken(ctx context.Context, token string) (int64, error)

	// RevokeAll removes every record of the principal and reports how many went
	RevokeAll(ctx context.Context, principalID string) (int64, error)

	// SweepExpired removes records whose expiry is at or before now
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	// ListByPrincipal returns the principal's live records, oldest first
	ListByPrincipal(ctx context.Context, principalID string, now time.Time) ([]*Record, error)
}
