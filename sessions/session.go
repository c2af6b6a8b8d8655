package sessions

import (
	"strings"
	"time"
)

// DefaultDeviceID is recorded when a login does not name its device
const DefaultDeviceID = "default"

// Record is the server-side half of a session. There is at most one record per
// (PrincipalID, DeviceID); a new login from the same device replaces the token.
type Record struct {
	ID          string    `json:"id"`           // Stable id of the device slot
	PrincipalID string    `json:"principal_id"` // Owner of the session
	DeviceID    string    `json:"device_id"`    // Normalized, never empty once stored
	Token       string    `json:"-"`            // Signed session token
	KycLevel    string    `json:"kyc_level"`    // KYC level granted at issuance
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"` // First login from this device
	UpdatedAt   time.Time `json:"updated_at"` // Last re-issue
}

// Active reports whether the record is still live at now.
func (r *Record) Active(now time.Time) bool {
	return r.ExpiresAt.After(now)
}

// NormalizeDeviceID trims id and substitutes DefaultDeviceID when it is blank.
func NormalizeDeviceID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultDeviceID
	}
	return id
}
