package token

import (
	"bytes"
	"errors"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/config"
)

// SigningSecret is a symmetric signing key. Only the current secret is Active;
// retained secrets stay valid for verification during the rotation grace window.
type SigningSecret struct {
	Key       []byte
	CreatedAt time.Time
	Active    bool
}

// SecretStore resolves the signing secrets. It is a pure lookup; rotation
// happens out of band by replacing the store's source (configuration).
type SecretStore interface {
	Current() SigningSecret
	// Previous returns the retained secrets, newest first
	Previous() []SigningSecret
	// RotatedAt reports when the current secret was activated, if recorded
	RotatedAt() (time.Time, bool)
}

var ErrEmptySecret = errors.New("signing secret is empty")

// StaticSecretStore is a SecretStore fixed at construction time.
type StaticSecretStore struct {
	current   SigningSecret
	previous  []SigningSecret
	rotatedAt time.Time
}

var _ SecretStore = (*StaticSecretStore)(nil)

// NewStaticSecretStore builds a store from raw keys. A zero rotatedAt means the
// rotation date is unknown. Previous keys that are empty or equal to the
// current key are dropped.
func NewStaticSecretStore(current []byte, rotatedAt time.Time, previous ...[]byte) (*StaticSecretStore, error) {
	if len(current) == 0 {
		return nil, ErrEmptySecret
	}
	s := &StaticSecretStore{
		current:   SigningSecret{Key: bytes.Clone(current), CreatedAt: rotatedAt, Active: true},
		rotatedAt: rotatedAt,
	}
	for _, key := range previous {
		if len(key) == 0 || bytes.Equal(key, current) {
			continue
		}
		s.previous = append(s.previous, SigningSecret{Key: bytes.Clone(key)})
	}
	return s, nil
}

// NewSecretStoreFromConfig is the startup path: secrets are loaded once and
// handed to the components that need them.
func NewSecretStoreFromConfig(c config.SecretsConfig) (*StaticSecretStore, error) {
	rotatedAt, _ := c.GetRotatedAt()
	previous := make([][]byte, 0, len(c.GetPreviousSecrets()))
	for _, p := range c.GetPreviousSecrets() {
		previous = append(previous, []byte(p))
	}
	return NewStaticSecretStore([]byte(c.GetCurrentSecret()), rotatedAt, previous...)
}

func (s *StaticSecretStore) Current() SigningSecret {
	return s.current
}

func (s *StaticSecretStore) Previous() []SigningSecret {
	return append([]SigningSecret(nil), s.previous...)
}

func (s *StaticSecretStore) RotatedAt() (time.Time, bool) {
	return s.rotatedAt, !s.rotatedAt.IsZero()
}
