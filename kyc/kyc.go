package kyc

import "time"

// Level is a KYC tier. The zero value means no verification is required.
type Level string

const (
	LevelNone     Level = ""
	LevelBasic    Level = "basic"
	LevelEnhanced Level = "enhanced"
	LevelFull     Level = "full"
)

// Rank orders levels by strictness. Unknown levels rank with LevelNone.
func (l Level) Rank() int {
	switch l {
	case LevelBasic:
		return 1
	case LevelEnhanced:
		return 2
	case LevelFull:
		return 3
	}
	return 0
}

// Reason names the rule that produced a requirement
type Reason string

const (
	ReasonAdminAccess          Reason = "admin_access"
	ReasonTransactionLimit     Reason = "transaction_limit"
	ReasonMerchantVerification Reason = "merchant_verification"
)

// Requirement is computed on every call and never stored.
type Requirement struct {
	Required bool       `json:"required"`
	Level    Level      `json:"level,omitempty"`
	Reason   Reason     `json:"reason,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// NotRequired is the requirement for a principal no rule applies to
func NotRequired() Requirement {
	return Requirement{}
}

// stricter returns whichever of a and b demands the higher level, keeping a on ties.
func stricter(a, b Requirement) Requirement {
	if b.Level.Rank() > a.Level.Rank() {
		return b
	}
	return a
}
