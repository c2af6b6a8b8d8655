package config

import (
	"fmt"
	"strings"
	"time"
)

type SecretsConfig interface {
	GetCurrentSecret() string
	GetPreviousSecrets() []string
	// GetRotatedAt reports when the current secret became active, if known.
	GetRotatedAt() (time.Time, bool)
}

type Secrets struct {
	Current   string   `env:"SESSION_SECRET"`
	Previous  []string `env:"SESSION_SECRET_PREVIOUS"   envSeparator:","`
	RotatedAt string   `env:"SESSION_SECRET_ROTATED_AT"`
}

var _ SecretsConfig = Secrets{}

func (s Secrets) GetCurrentSecret() string {
	return s.Current
}

// GetPreviousSecrets returns the retained secrets, newest first, without blanks.
func (s Secrets) GetPreviousSecrets() []string {
	previous := make([]string, 0, len(s.Previous))
	for _, p := range s.Previous {
		if p = strings.TrimSpace(p); p != "" {
			previous = append(previous, p)
		}
	}
	return previous
}

func (s Secrets) GetRotatedAt() (time.Time, bool) {
	if strings.TrimSpace(s.RotatedAt) == "" {
		return time.Time{}, false
	}
	rotatedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(s.RotatedAt))
	if err != nil {
		return time.Time{}, false
	}
	return rotatedAt, true
}

func (s Secrets) validate() error {
	if strings.TrimSpace(s.Current) == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if strings.TrimSpace(s.RotatedAt) != "" {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(s.RotatedAt)); err != nil {
			return fmt.Errorf("SESSION_SECRET_ROTATED_AT must be RFC3339: %w", err)
		}
	}
	return nil
}
