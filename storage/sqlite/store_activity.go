package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// Order is the slice of an order the KYC rules read.
type Order struct {
	ID          string
	PrincipalID string
	TotalCents  int64
	Status      string
	CreatedAt   time.Time
}

// RecordOrder stores an order. A missing ID is generated.
func (s *Store) RecordOrder(ctx context.Context, order Order) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO orders (id, principal_id, total_cents, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		order.ID, order.PrincipalID, order.TotalCents, strings.ToLower(strings.TrimSpace(order.Status)), toMillis(order.CreatedAt))
	if err != nil {
		return fmt.Errorf("record order: %w", err)
	}
	return nil
}

// SetMerchantVerificationStatus records the merchant's current verification status
func (s *Store) SetMerchantVerificationStatus(ctx context.Context, principalID, status string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO merchant_profiles (principal_id, verification_status, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(principal_id) DO UPDATE SET
    verification_status = excluded.verification_status,
    updated_at = excluded.updated_at`,
		principalID, status, toMillis(s.nowFunc()))
	if err != nil {
		return fmt.Errorf("set merchant status: %w", err)
	}
	return nil
}

func (s *Store) SumCompletedOrderTotals(ctx context.Context, principalID string, since time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var total int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT COALESCE(SUM(total_cents), 0) FROM orders
WHERE principal_id = ? AND status IN ('completed', 'confirmed') AND created_at >= ?`,
		principalID, toMillis(since)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum orders: %w", err)
	}
	return total, nil
}

func (s *Store) GetMerchantVerificationStatus(ctx context.Context, principalID string) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	var status string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT verification_status FROM merchant_profiles WHERE principal_id = ?`, principalID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", autherrors.ErrNotFound
		}
		return "", fmt.Errorf("get merchant status: %w", err)
	}
	return status, nil
}
