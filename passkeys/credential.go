package passkeys

import (
	"encoding/binary"
	"time"
)

// Credential is a registered public-key credential. ID is globally unique and
// Counter only ever moves forward.
type Credential struct {
	ID          string     `json:"id"`
	PrincipalID string     `json:"principal_id"`
	PublicKey   []byte     `json:"-"` // COSE_Key encoding
	Counter     uint32     `json:"counter"`
	DeviceType  string     `json:"device_type,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
}

// Registration is what the client submits to enrol a credential
type Registration struct {
	CredentialID string `json:"credential_id"`
	PublicKey    []byte `json:"public_key"`
	Counter      uint32 `json:"counter"`
	DeviceType   string `json:"device_type,omitempty"`
}

// Assertion is one use of a credential. Signature covers SignedPayload(Challenge, Counter).
type Assertion struct {
	CredentialID string `json:"credential_id"`
	Counter      uint32 `json:"counter"`
	Challenge    []byte `json:"challenge"`
	Signature    []byte `json:"signature"`
}

// SignedPayload is challenge followed by the counter as four big-endian bytes.
func SignedPayload(challenge []byte, counter uint32) []byte {
	payload := make([]byte, len(challenge), len(challenge)+4)
	copy(payload, challenge)
	return binary.BigEndian.AppendUint32(payload, counter)
}
