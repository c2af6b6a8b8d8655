package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/passkeys"
)

const passkeyColumns = `credential_id, principal_id, public_key, counter, device_type, created_at, last_used_at`

// PasskeyRepo is the passkeys.Repo view of the store
type PasskeyRepo struct {
	*Store
}

var _ passkeys.Repo = PasskeyRepo{}

func (s *Store) Passkeys() PasskeyRepo {
	return PasskeyRepo{Store: s}
}

func (s PasskeyRepo) Create(ctx context.Context, credential *passkeys.Credential) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(credential.ID) == "" {
		return fmt.Errorf("credential id is required")
	}

	lastUsed := sql.NullInt64{}
	if credential.LastUsedAt != nil {
		lastUsed = sql.NullInt64{Int64: toMillis(*credential.LastUsedAt), Valid: true}
	}
	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO passkey_credentials (`+passkeyColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(credential_id) DO NOTHING`,
		credential.ID,
		credential.PrincipalID,
		credential.PublicKey,
		int64(credential.Counter),
		credential.DeviceType,
		toMillis(credential.CreatedAt),
		lastUsed,
	)
	if err != nil {
		return fmt.Errorf("put passkey: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("put passkey: %w", err)
	}
	if inserted == 0 {
		return autherrors.Wrapf(autherrors.ErrAlreadyExists, "put passkey %q", credential.ID)
	}
	return nil
}

func (s PasskeyRepo) Get(ctx context.Context, credentialID string) (*passkeys.Credential, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+passkeyColumns+` FROM passkey_credentials WHERE credential_id = ?`, credentialID)
	credential, err := scanPasskey(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, autherrors.ErrNotFound
		}
		return nil, fmt.Errorf("get passkey: %w", err)
	}
	return credential, nil
}

func (s PasskeyRepo) ListByPrincipal(ctx context.Context, principalID string) ([]*passkeys.Credential, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+passkeyColumns+` FROM passkey_credentials
WHERE principal_id = ?
ORDER BY created_at, credential_id`, principalID)
	if err != nil {
		return nil, fmt.Errorf("list passkeys: %w", err)
	}
	defer rows.Close()

	var credentials []*passkeys.Credential
	for rows.Next() {
		credential, err := scanPasskey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan passkey: %w", err)
		}
		credentials = append(credentials, credential)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list passkeys: %w", err)
	}
	return credentials, nil
}

// UpdateCounter is a compare-and-set on the counter column.
func (s PasskeyRepo) UpdateCounter(ctx context.Context, credentialID string, expected, next uint32, usedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE passkey_credentials
SET counter = ?, last_used_at = ?
WHERE credential_id = ? AND counter = ?`,
		int64(next), toMillis(usedAt), credentialID, int64(expected))
	if err != nil {
		return fmt.Errorf("update passkey counter: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update passkey counter: %w", err)
	}
	if updated == 1 {
		return nil
	}

	if _, err := s.Get(ctx, credentialID); err != nil {
		return err
	}
	return autherrors.Wrapf(autherrors.ErrConflict, "update passkey %q counter from %d", credentialID, expected)
}

func scanPasskey(row rowScanner) (*passkeys.Credential, error) {
	var (
		c         passkeys.Credential
		counter   int64
		createdAt int64
		lastUsed  sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.PrincipalID, &c.PublicKey, &counter, &c.DeviceType, &createdAt, &lastUsed); err != nil {
		return nil, err
	}
	c.Counter = uint32(counter)
	c.CreatedAt = fromMillis(createdAt)
	if lastUsed.Valid {
		t := fromMillis(lastUsed.Int64)
		c.LastUsedAt = &t
	}
	return &c, nil
}
