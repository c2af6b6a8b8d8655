package auth

import (
	"context"

	"github.com/jrsteele09/go-session-auth/passkeys"
	"github.com/jrsteele09/go-session-auth/principals"
)

// RegisterPasskey enrols a credential for the principal. A credential ID that
// is already registered is rejected.
func (m *SessionManager) RegisterPasskey(ctx context.Context, principalID string, reg passkeys.Registration) (*passkeys.Credential, error) {
	credential, err := m.passkeys.Register(ctx, principalID, reg)
	if err != nil {
		return nil, m.fail("register_passkey", principalID, err)
	}
	m.logger.Info().Str("principal_id", principalID).Str("credential_id", credential.ID).Msg("passkey registered")
	return credential, nil
}

// VerifyPasskey checks an assertion and returns the credential's owner
func (m *SessionManager) VerifyPasskey(ctx context.Context, assertion passkeys.Assertion) (*principals.Principal, error) {
	principal, err := m.passkeys.Verify(ctx, assertion)
	if err != nil {
		return nil, m.fail("verify_passkey", "", err)
	}
	return principal, nil
}

// LoginWithPasskey verifies the assertion and creates a session for its owner
func (m *SessionManager) LoginWithPasskey(ctx context.Context, login PasskeyLogin) (*IssuedSession, error) {
	principal, err := m.VerifyPasskey(ctx, login.Assertion)
	if err != nil {
		return nil, err
	}
	return m.CreateSession(ctx, SessionRequest{PrincipalID: principal.ID, DeviceID: login.DeviceID})
}

// Passkeys lists the principal's registered credentials
func (m *SessionManager) Passkeys(ctx context.Context, principalID string) ([]*passkeys.Credential, error) {
	list, err := m.passkeys.Credentials(ctx, principalID)
	if err != nil {
		return nil, m.fail("list_passkeys", principalID, err)
	}
	return list, nil
}
