package auth

import (
	"context"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/principals"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/pkg/errors"
)

// authorizeAdmin allows an admin session only for the principal that holds
// the configured trustee wallet.
func (m *SessionManager) authorizeAdmin(ctx context.Context, principal *principals.Principal) error {
	if m.trusteeWallet == "" {
		return errors.Wrap(ErrAdminAccessDenied, "no trustee wallet configured")
	}
	if !principal.HasWallet(m.trusteeWallet) {
		return errors.Wrap(ErrAdminAccessDenied, "wallet does not match trustee")
	}
	trustee, err := m.repos.Principals.GetByWallet(ctx, m.trusteeWallet)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return errors.Wrap(ErrAdminAccessDenied, "trustee wallet is not linked")
		}
		return autherrors.Storage("principals.get_by_wallet", err)
	}
	if trustee.ID != principal.ID {
		return errors.Wrap(ErrAdminAccessDenied, "trustee wallet belongs to another principal")
	}
	return nil
}

// signAdminCredential signs a copy of the session claims with the admin
// derivation of the current secret. It shares the session's jti and expiry.
func (m *SessionManager) signAdminCredential(session token.Claims) (string, error) {
	key, err := token.DeriveScopedKey(m.rotation.CurrentSecret(), token.ScopeAdmin)
	if err != nil {
		return "", err
	}
	claims := session
	claims.Scope = token.ScopeAdmin
	return m.codec.Sign(claims, key)
}

// ValidateAdminCredential validates the session and then the admin
// credential issued with it. Any problem with the credential, or a principal
// that no longer holds the trustee wallet, is ErrAdminAccessDenied.
func (m *SessionManager) ValidateAdminCredential(ctx context.Context, sessionToken, adminToken string) (*SessionView, error) {
	view, err := m.ValidateSession(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	if view.Role != principals.RoleAdmin {
		return nil, m.fail("validate_admin", view.PrincipalID, errors.Wrap(ErrAdminAccessDenied, "not an admin session"))
	}

	candidates, err := token.DeriveScopedKeys(m.rotation.CandidateSecrets(), token.ScopeAdmin)
	if err != nil {
		return nil, errors.Wrap(err, "[ValidateAdminCredential]")
	}
	outcome, err := m.codec.Verify(adminToken, candidates)
	if err != nil {
		return nil, m.fail("validate_admin", view.PrincipalID, errors.Wrapf(ErrAdminAccessDenied, "admin credential: %v", err))
	}
	claims := outcome.Claims
	if claims.Scope != token.ScopeAdmin || claims.Subject != view.PrincipalID || claims.ID != view.tokenID {
		return nil, m.fail("validate_admin", view.PrincipalID, errors.Wrap(ErrAdminAccessDenied, "admin credential does not belong to session"))
	}

	if err := m.authorizeAdmin(ctx, view.Principal); err != nil {
		return nil, m.fail("validate_admin", view.PrincipalID, err)
	}
	return view, nil
}
