package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/principals"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const principalColumns = `id, role, wallet_address, embedded_wallet_address, kyc_level, created_at, updated_at`

// PrincipalRepo is the principals.Repo view of the store
type PrincipalRepo struct {
	*Store
}

var _ principals.Repo = PrincipalRepo{}

func (s *Store) Principals() PrincipalRepo {
	return PrincipalRepo{Store: s}
}

// Upsert inserts or updates a principal. A missing ID is generated. A linked
// wallet already held by another principal is ErrAlreadyExists.
func (s PrincipalRepo) Upsert(ctx context.Context, principal *principals.Principal) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if principal == nil {
		return fmt.Errorf("principal is required")
	}
	if !principal.Role.Valid() {
		return fmt.Errorf("invalid role %q", principal.Role)
	}
	if strings.TrimSpace(principal.ID) == "" {
		principal.ID = uuid.New().String()
	}
	now := s.nowFunc().UTC()
	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = now
	}
	principal.UpdatedAt = now

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO principals (id, role, wallet_address, wallet_normalized, embedded_wallet_address, kyc_level, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    role = excluded.role,
    wallet_address = excluded.wallet_address,
    wallet_normalized = excluded.wallet_normalized,
    embedded_wallet_address = excluded.embedded_wallet_address,
    kyc_level = excluded.kyc_level,
    updated_at = excluded.updated_at`,
		principal.ID,
		string(principal.Role),
		principal.WalletAddress,
		principals.NormalizeWallet(principal.WalletAddress),
		principal.EmbeddedWalletAddress,
		principal.KycLevel,
		toMillis(principal.CreatedAt),
		toMillis(principal.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return autherrors.Wrapf(autherrors.ErrAlreadyExists, "wallet %q is linked to another principal", principal.WalletAddress)
		}
		return fmt.Errorf("upsert principal: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// PutPrincipal seeds a principal
func (s *Store) PutPrincipal(ctx context.Context, principal *principals.Principal) error {
	return s.Principals().Upsert(ctx, principal)
}

func (s PrincipalRepo) GetByID(ctx context.Context, id string) (*principals.Principal, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = ?`, id)
	return scanPrincipal(row)
}

// GetByWallet returns the principal linked to address. Linked wallets are unique.
func (s PrincipalRepo) GetByWallet(ctx context.Context, address string) (*principals.Principal, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	normalized := principals.NormalizeWallet(address)
	if normalized == "" {
		return nil, autherrors.ErrNotFound
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+principalColumns+` FROM principals
WHERE wallet_normalized = ?`, normalized)
	return scanPrincipal(row)
}

func scanPrincipal(row *sql.Row) (*principals.Principal, error) {
	var (
		p         principals.Principal
		role      string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&p.ID, &role, &p.WalletAddress, &p.EmbeddedWalletAddress, &p.KycLevel, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, autherrors.ErrNotFound
		}
		return nil, fmt.Errorf("get principal: %w", err)
	}
	p.Role = principals.RoleType(role)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}
