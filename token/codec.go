package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// VerifyOutcome is a successfully verified token together with the position
// of the candidate secret that validated it.
type VerifyOutcome struct {
	Claims      Claims
	SecretIndex int
}

// ShouldRefresh reports whether the token was signed by a retained secret and
// should be re-issued under the current one.
func (o *VerifyOutcome) ShouldRefresh() bool {
	return o != nil && o.SecretIndex > 0
}

// Codec signs claim sets and verifies tokens against an ordered list of
// candidate secrets. It holds no state besides the clock.
type Codec struct {
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc sets the clock used for expiry checks
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(options ...CodecOption) *Codec {
	c := &Codec{nowFunc: time.Now}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Sign signs claims with secret using HS256.
func (c *Codec) Sign(claims Claims, secret SigningSecret) (string, error) {
	if claims.ExpiresAt == nil {
		return "", fmt.Errorf("[Codec.Sign] claims must carry an expiry")
	}
	return NewHMACSigner(secret.Key).Sign(&claims)
}

// Verify tries each candidate in order and returns the first that validates.
// It fails closed: a structurally broken token, an unknown signer or an empty
// candidate list is ErrMalformed; a token whose signature matched but whose
// expiry passed is ErrExpired. No partial claims are ever returned.
func (c *Codec) Verify(raw string, candidates []SigningSecret) (*VerifyOutcome, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(candidates) == 0 {
		return nil, autherrors.ErrMalformed
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowFunc),
	)

	for i, secret := range candidates {
		if len(secret.Key) == 0 {
			continue
		}
		var claims Claims
		_, err := parser.ParseWithClaims(raw, &claims, NewHMACSigner(secret.Key).GetVerificationKey)
		switch {
		case err == nil:
			if strings.TrimSpace(claims.Subject) == "" {
				return nil, autherrors.ErrMalformed
			}
			return &VerifyOutcome{Claims: claims, SecretIndex: i}, nil
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			continue
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, autherrors.ErrExpired
		default:
			return nil, fmt.Errorf("%w: %v", autherrors.ErrMalformed, err)
		}
	}
	return nil, autherrors.ErrMalformed
}
