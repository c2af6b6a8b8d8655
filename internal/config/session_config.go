package config

import (
	"fmt"
	"time"
)

type SessionConfig interface {
	GetAdminSessionTTL() time.Duration
	GetMerchantSessionTTL() time.Duration
	GetCustomerSessionTTL() time.Duration
	GetTrusteeWallet() string
	GetValidationTimeout() time.Duration
	GetSweepInterval() time.Duration
	GetRotationInterval() time.Duration
}

type Sessions struct {
	AdminTTL          time.Duration `env:"SESSION_TTL_ADMIN"          envDefault:"4h"`
	MerchantTTL       time.Duration `env:"SESSION_TTL_MERCHANT"       envDefault:"72h"`
	CustomerTTL       time.Duration `env:"SESSION_TTL_CUSTOMER"       envDefault:"168h"`
	TrusteeWallet     string        `env:"TRUSTEE_WALLET_ADDRESS"`
	ValidationTimeout time.Duration `env:"SESSION_VALIDATION_TIMEOUT" envDefault:"2s"`
	SweepInterval     time.Duration `env:"SESSION_SWEEP_INTERVAL"     envDefault:"15m"`
	RotationInterval  time.Duration `env:"SECRET_ROTATION_INTERVAL"   envDefault:"2160h"`
}

var _ SessionConfig = Sessions{}

func (s Sessions) GetAdminSessionTTL() time.Duration {
	return s.AdminTTL
}

func (s Sessions) GetMerchantSessionTTL() time.Duration {
	return s.MerchantTTL
}

func (s Sessions) GetCustomerSessionTTL() time.Duration {
	return s.CustomerTTL
}

// GetTrusteeWallet returns the only wallet allowed to hold admin sessions.
// Empty means no admin session can be created.
func (s Sessions) GetTrusteeWallet() string {
	return s.TrusteeWallet
}

func (s Sessions) GetValidationTimeout() time.Duration {
	return s.ValidationTimeout
}

func (s Sessions) GetSweepInterval() time.Duration {
	return s.SweepInterval
}

func (s Sessions) GetRotationInterval() time.Duration {
	return s.RotationInterval
}

func (s Sessions) validate() error {
	if s.AdminTTL <= 0 || s.MerchantTTL <= 0 || s.CustomerTTL <= 0 {
		return fmt.Errorf("session lifetimes must be positive")
	}
	if s.AdminTTL >= s.CustomerTTL || s.AdminTTL >= s.MerchantTTL {
		return fmt.Errorf("SESSION_TTL_ADMIN (%s) must be shorter than SESSION_TTL_MERCHANT (%s) and SESSION_TTL_CUSTOMER (%s)", s.AdminTTL, s.MerchantTTL, s.CustomerTTL)
	}
	return nil
}
