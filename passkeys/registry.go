package passkeys

import (
	"context"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/principals"
	"github.com/pkg/errors"
)

// Registry enrols credentials and verifies assertions against them. Every
// verification failure wraps errors.ErrAuthenticationFailed.
type Registry struct {
	credentials Repo
	principals  principals.Repo
	nowFunc     func() time.Time
}

type RegistryOption func(*Registry)

// WithNowFunc sets the clock used for CreatedAt and LastUsedAt
func WithNowFunc(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowFunc = now
	}
}

func NewRegistry(credentials Repo, principalRepo principals.Repo, options ...RegistryOption) (*Registry, error) {
	if credentials == nil {
		return nil, errors.New("[NewRegistry] credentials repo is required")
	}
	if principalRepo == nil {
		return nil, errors.New("[NewRegistry] principals repo is required")
	}
	r := &Registry{credentials: credentials, principals: principalRepo, nowFunc: time.Now}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Register stores a credential for principalID after checking the public key
// parses as a supported COSE key.
func (r *Registry) Register(ctx context.Context, principalID string, reg Registration) (*Credential, error) {
	credentialID := strings.TrimSpace(reg.CredentialID)
	if credentialID == "" {
		return nil, errors.Wrap(autherrors.ErrInvalidRequest, "[Registry.Register] credential id is required")
	}
	if _, err := webauthncose.ParsePublicKey(reg.PublicKey); err != nil {
		return nil, errors.Wrapf(autherrors.ErrInvalidRequest, "[Registry.Register] unsupported public key: %v", err)
	}
	if _, err := r.principals.GetByID(ctx, principalID); err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, errors.Wrap(autherrors.ErrInvalidRequest, "[Registry.Register] unknown principal")
		}
		return nil, autherrors.Storage("passkeys.principal", err)
	}

	credential := &Credential{
		ID:          credentialID,
		PrincipalID: principalID,
		PublicKey:   append([]byte(nil), reg.PublicKey...),
		Counter:     reg.Counter,
		DeviceType:  reg.DeviceType,
		CreatedAt:   r.nowFunc().UTC(),
	}
	if err := r.credentials.Create(ctx, credential); err != nil {
		if errors.Is(err, autherrors.ErrAlreadyExists) {
			return nil, errors.Wrap(err, "[Registry.Register] credential id already registered")
		}
		return nil, autherrors.Storage("passkeys.create", err)
	}
	return credential, nil
}

// Verify checks the assertion signature and advances the stored counter. A
// counter that does not strictly increase, or that another verification
// advanced first, is a replay.
func (r *Registry) Verify(ctx context.Context, assertion Assertion) (*principals.Principal, error) {
	credential, err := r.credentials.Get(ctx, assertion.CredentialID)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, autherrors.ErrCredentialNotFound
		}
		return nil, autherrors.Storage("passkeys.get", err)
	}

	key, err := webauthncose.ParsePublicKey(credential.PublicKey)
	if err != nil {
		return nil, autherrors.ErrSignatureMismatch
	}
	valid, err := webauthncose.VerifySignature(key, SignedPayload(assertion.Challenge, assertion.Counter), assertion.Signature)
	if err != nil || !valid {
		return nil, autherrors.ErrSignatureMismatch
	}

	if assertion.Counter <= credential.Counter {
		return nil, autherrors.ErrReplayDetected
	}

	principal, err := r.principals.GetByID(ctx, credential.PrincipalID)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, autherrors.ErrCredentialNotFound
		}
		return nil, autherrors.Storage("passkeys.principal", err)
	}

	if err := r.credentials.UpdateCounter(ctx, credential.ID, credential.Counter, assertion.Counter, r.nowFunc().UTC()); err != nil {
		if errors.Is(err, autherrors.ErrConflict) {
			return nil, autherrors.ErrReplayDetected
		}
		return nil, autherrors.Storage("passkeys.update_counter", err)
	}
	return principal, nil
}

// Credentials lists the principal's registered credentials
func (r *Registry) Credentials(ctx context.Context, principalID string) ([]*Credential, error) {
	list, err := r.credentials.ListByPrincipal(ctx, principalID)
	if err != nil {
		return nil, autherrors.Storage("passkeys.list", err)
	}
	return list, nil
}
