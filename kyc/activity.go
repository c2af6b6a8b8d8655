package kyc

import (
	"context"
	"strings"
	"time"
)

// MerchantVerified is the only merchant verification status that clears the check
const MerchantVerified = "verified"

// ActivitySource answers the read-only questions the evaluator asks about a
// principal's activity. Amounts are in cents.
type ActivitySource interface {
	// SumCompletedOrderTotals totals completed and confirmed orders created at or after since
	SumCompletedOrderTotals(ctx context.Context, principalID string, since time.Time) (int64, error)
	// GetMerchantVerificationStatus returns errors.ErrNotFound for a merchant with no profile
	GetMerchantVerificationStatus(ctx context.Context, principalID string) (string, error)
}

// IsMerchantVerified compares a stored status, ignoring case and padding.
func IsMerchantVerified(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), MerchantVerified)
}
