package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	SecretsConfig
	AuthConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDatabasePath() string
	GetLogLevel() string
	GetEnv() string
}

// AuthConfig is the policy the session manager is built with.
type AuthConfig interface {
	SessionConfig
	KycConfig
}

type mainConfig struct {
	EnvVars
	Secrets
	Auth
}

// Auth groups the session and KYC policy. It can be built directly (see
// DefaultAuth) when no environment is involved.
type Auth struct {
	Sessions
	Kyc
}

var _ AuthConfig = Auth{}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config.Load] parse env: %w", err)
	}
	if err := c.Secrets.validate(); err != nil {
		return nil, fmt.Errorf("[config.Load] %w", err)
	}
	if err := c.Sessions.validate(); err != nil {
		return nil, fmt.Errorf("[config.Load] %w", err)
	}
	return c, nil
}

// DefaultAuth returns the policy used when every variable is left unset.
func DefaultAuth() Auth {
	return Auth{
		Sessions: Sessions{
			AdminTTL:          4 * time.Hour,
			MerchantTTL:       72 * time.Hour,
			CustomerTTL:       7 * 24 * time.Hour,
			ValidationTimeout: 2 * time.Second,
			SweepInterval:     15 * time.Minute,
			RotationInterval:  90 * 24 * time.Hour,
		},
		Kyc: Kyc{
			MonthlyThresholdCents: 100000,
			WindowDays:            30,
			AdminGrace:            24 * time.Hour,
		},
	}
}
