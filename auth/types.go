package auth

import (
	"time"

	"github.com/jrsteele09/go-session-auth/kyc"
	"github.com/jrsteele09/go-session-auth/passkeys"
	"github.com/jrsteele09/go-session-auth/principals"
	"github.com/jrsteele09/go-session-auth/sessions"
)

// SessionRequest asks for a session for an already authenticated principal.
// An empty KycLevel falls back to the level recorded on the principal.
type SessionRequest struct {
	PrincipalID string    `json:"principal_id"`
	DeviceID    string    `json:"device_id,omitempty"`
	KycLevel    kyc.Level `json:"kyc_level,omitempty"`
}

// IssuedSession is a freshly signed session. AdminToken is set only for admin
// principals and is accepted only together with Token.
type IssuedSession struct {
	Token      string           `json:"token"`
	AdminToken string           `json:"admin_token,omitempty"`
	ExpiresAt  time.Time        `json:"expires_at"`
	Record     *sessions.Record `json:"session"`
}

// SessionView is what a successful validation knows about the caller.
type SessionView struct {
	SessionID     string                `json:"session_id"`
	PrincipalID   string                `json:"principal_id"`
	Role          principals.RoleType   `json:"role"`
	DeviceID      string                `json:"device_id"`
	KycLevel      kyc.Level             `json:"kyc_level,omitempty"` // Granted at issuance
	RequiresKyc   bool                  `json:"requires_kyc"`
	Kyc           kyc.Requirement       `json:"kyc"` // Recomputed on this call
	ExpiresAt     time.Time             `json:"expires_at"`
	ShouldRefresh bool                  `json:"should_refresh"`
	Principal     *principals.Principal `json:"-"`

	tokenID string
}

// PasskeyLogin is a passkey assertion plus the device the session is for
type PasskeyLogin struct {
	Assertion passkeys.Assertion `json:"assertion"`
	DeviceID  string             `json:"device_id,omitempty"`
}
