package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
)

const sessionColumns = `id, principal_id, device_id, token, kyc_level, expires_at, created_at, updated_at`

// SessionRepo is the sessions.Repo view of the store
type SessionRepo struct {
	*Store
}

var _ sessions.Repo = SessionRepo{}

func (s *Store) Sessions() SessionRepo {
	return SessionRepo{Store: s}
}

// Upsert stores record in its (principal, device) slot in one statement. The
// slot keeps its first ID and created_at.
func (s SessionRepo) Upsert(ctx context.Context, record *sessions.Record) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	record.DeviceID = sessions.NormalizeDeviceID(record.DeviceID)

	var id string
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
INSERT INTO sessions (`+sessionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(principal_id, device_id) DO UPDATE SET
    token = excluded.token,
    kyc_level = excluded.kyc_level,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at
RETURNING id, created_at`,
		record.ID,
		record.PrincipalID,
		record.DeviceID,
		record.Token,
		record.KycLevel,
		toMillis(record.ExpiresAt),
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	).Scan(&id, &createdAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	record.ID = id
	record.CreatedAt = fromMillis(createdAt)
	return nil
}

func (s SessionRepo) FindByToken(ctx context.Context, token string, now time.Time) (*sessions.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = ? AND expires_at > ?`,
		token, toMillis(now))

	record, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, autherrors.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return record, nil
}

func (s SessionRepo) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return s.deleteSessions(ctx, `DELETE FROM sessions WHERE token = ?`, token)
}

func (s SessionRepo) RevokeAll(ctx context.Context, principalID string) (int64, error) {
	return s.deleteSessions(ctx, `DELETE FROM sessions WHERE principal_id = ?`, principalID)
}

func (s SessionRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.deleteSessions(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
}

func (s SessionRepo) ListByPrincipal(ctx context.Context, principalID string, now time.Time) ([]*sessions.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+sessionColumns+` FROM sessions
WHERE principal_id = ? AND expires_at > ?
ORDER BY created_at, id`, principalID, toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []*sessions.Record
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return records, nil
}

func (s SessionRepo) deleteSessions(ctx context.Context, query string, arg any) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*sessions.Record, error) {
	var (
		r                               sessions.Record
		expiresAt, createdAt, updatedAt int64
	)
	if err := row.Scan(&r.ID, &r.PrincipalID, &r.DeviceID, &r.Token, &r.KycLevel, &expiresAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.ExpiresAt = fromMillis(expiresAt)
	r.CreatedAt = fromMillis(createdAt)
	r.UpdatedAt = fromMillis(updatedAt)
	return &r, nil
}
