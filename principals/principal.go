package principals

import (
	"strings"
	"time"
)

// RoleType is the single role a principal holds.
type RoleType string

const (
	RoleCustomer RoleType = "customer"
	RoleMerchant RoleType = "merchant"
	RoleAdmin    RoleType = "admin"
)

// Valid reports whether r is one of the known roles.
func (r RoleType) Valid() bool {
	switch r {
	case RoleCustomer, RoleMerchant, RoleAdmin:
		return true
	}
	return false
}

// Principal is a user identity. ID is immutable; Role and the wallet
// addresses change only through privileged operations.
type Principal struct {
	ID                    string    `json:"id"`
	Role                  RoleType  `json:"role"`
	WalletAddress         string    `json:"wallet_address,omitempty"`          // Linked external wallet
	EmbeddedWalletAddress string    `json:"embedded_wallet_address,omitempty"` // Wallet provisioned by the platform
	KycLevel              string    `json:"kyc_level,omitempty"`               // Highest KYC tier completed
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// HasWallet reports whether address matches the linked wallet, ignoring case
// and surrounding whitespace. An empty address never matches.
func (p *Principal) HasWallet(address string) bool {
	return WalletsEqual(p.WalletAddress, address)
}

// WalletsEqual compares two wallet addresses case-insensitively. Empty never matches.
func WalletsEqual(a, b string) bool {
	a, b = NormalizeWallet(a), NormalizeWallet(b)
	return a != "" && a == b
}

func NormalizeWallet(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
