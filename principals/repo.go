package principals

import "context"

// Repo is the principal lookup surface of the data store. Missing principals
// are reported with errors.ErrNotFound.
type Repo interface {
	// Upsert rejects a wallet already linked to another principal with
	// errors.ErrAlreadyExists
	Upsert(ctx context.Context, principal *Principal) error
	GetByID(ctx context.Context, id string) (*Principal, error)
	// GetByWallet matches the linked wallet case-insensitively
	GetByWallet(ctx context.Context, address string) (*Principal, error)
}
