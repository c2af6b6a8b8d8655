package token

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const scopedKeyLength = 32

// DeriveScopedKey derives a purpose-bound key from secret with HKDF-SHA256.
// Tokens signed with a scoped key never verify under the parent secret or
// under a different scope.
func DeriveScopedKey(secret SigningSecret, scope string) (SigningSecret, error) {
	if len(secret.Key) == 0 {
		return SigningSecret{}, ErrEmptySecret
	}
	derived := make([]byte, scopedKeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret.Key, nil, []byte("session-auth/"+scope)), derived); err != nil {
		return SigningSecret{}, fmt.Errorf("[token.DeriveScopedKey] %w", err)
	}
	return SigningSecret{Key: derived, CreatedAt: secret.CreatedAt, Active: secret.Active}, nil
}

// DeriveScopedKeys maps DeriveScopedKey over candidates, keeping order.
func DeriveScopedKeys(candidates []SigningSecret, scope string) ([]SigningSecret, error) {
	scoped := make([]SigningSecret, 0, len(candidates))
	for _, c := range candidates {
		s, err := DeriveScopedKey(c, scope)
		if err != nil {
			return nil, err
		}
		scoped = append(scoped, s)
	}
	return scoped, nil
}
