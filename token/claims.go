package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Scopes carried in the "scope" claim
const (
	ScopeSession = "session"
	ScopeAdmin   = "admin"
)

// Claims is the session claim set. Subject is the principal ID and ID (jti)
// identifies the session row the token belongs to.
type Claims struct {
	Role     string `json:"role"`
	KycLevel string `json:"kyc"`
	DeviceID string `json:"dev"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// NewClaims stamps issued-at and expiry. Timestamps are second precision on
// the wire, so ExpiresAt on the result is already truncated.
func NewClaims(principalID, role, kycLevel, deviceID, scope string, issuedAt time.Time, ttl time.Duration) Claims {
	return Claims{
		Role:     role,
		KycLevel: kycLevel,
		DeviceID: deviceID,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
}

// Expiry returns the expiry time, or the zero time when absent.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
