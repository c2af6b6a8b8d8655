package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/config"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/kyc"
	"github.com/jrsteele09/go-session-auth/passkeys"
	"github.com/jrsteele09/go-session-auth/principals"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultValidationTimeout = 2 * time.Second

// SessionManager issues, validates and revokes sessions. It holds no session
// state of its own; every answer comes from the signing secrets and the repos.
type SessionManager struct {
	repos             Repos
	codec             *token.Codec
	rotation          *token.RotationPolicy
	evaluator         *kyc.Evaluator
	passkeys          *passkeys.Registry
	lifetimes         Lifetimes
	trusteeWallet     string
	validationTimeout time.Duration
	nowTime           func() time.Time // nowTime function (injectable for testing)
	logger            zerolog.Logger
}

// SessionManagerOption defines a function type to modify the SessionManager instance.
type SessionManagerOption func(*SessionManager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionManagerOption {
	return func(m *SessionManager) {
		m.nowTime = nowFunc
	}
}

// WithLogger sets the logger failure reasons are written to
func WithLogger(logger zerolog.Logger) SessionManagerOption {
	return func(m *SessionManager) {
		m.logger = logger
	}
}

func errRequired(what string) error {
	return errors.Errorf("[NewSessionManager] %s is required", what)
}

// NewSessionManager wires the manager from its repos, the signing secrets and
// the session/KYC policy.
func NewSessionManager(repos Repos, secrets token.SecretStore, cfg config.AuthConfig, options ...SessionManagerOption) (*SessionManager, error) {
	if err := repos.validate(); err != nil {
		return nil, err
	}
	if secrets == nil {
		return nil, errRequired("secret store")
	}
	if cfg == nil {
		return nil, errRequired("auth config")
	}
	lifetimes := LifetimesFromConfig(cfg)
	if err := lifetimes.validate(); err != nil {
		return nil, errors.Wrap(err, "[NewSessionManager]")
	}

	m := &SessionManager{
		repos:             repos,
		rotation:          token.NewRotationPolicy(secrets, cfg.GetRotationInterval()),
		lifetimes:         lifetimes,
		trusteeWallet:     strings.TrimSpace(cfg.GetTrusteeWallet()),
		validationTimeout: cfg.GetValidationTimeout(),
		nowTime:           time.Now,
		logger:            zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.validationTimeout <= 0 {
		m.validationTimeout = defaultValidationTimeout
	}

	now := func() time.Time { return m.nowTime() }
	m.codec = token.NewCodec(token.WithNowFunc(now))

	var err error
	if m.evaluator, err = kyc.NewEvaluator(repos.Activity, m.trusteeWallet, cfg, kyc.WithNowFunc(now)); err != nil {
		return nil, errors.Wrap(err, "[NewSessionManager]")
	}
	if m.passkeys, err = passkeys.NewRegistry(repos.Passkeys, repos.Principals, passkeys.WithNowFunc(now)); err != nil {
		return nil, errors.Wrap(err, "[NewSessionManager]")
	}
	return m, nil
}

// CreateSession signs a session for the principal with the current secret and
// upserts it for the device, replacing any earlier session on that device.
// Admins must hold the trustee wallet and also receive an admin credential.
func (m *SessionManager) CreateSession(ctx context.Context, req SessionRequest) (*IssuedSession, error) {
	principal, err := m.repos.Principals.GetByID(ctx, req.PrincipalID)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, m.fail("create_session", req.PrincipalID, ErrPrincipalNotFound)
		}
		return nil, m.fail("create_session", req.PrincipalID, autherrors.Storage("principals.get", err))
	}

	granted := req.KycLevel
	if granted == kyc.LevelNone {
		granted = kyc.Level(principal.KycLevel)
	}
	if granted != kyc.LevelNone && granted.Rank() == 0 {
		return nil, errors.Wrapf(ErrInvalidRequest, "[CreateSession] unknown kyc level %q", granted)
	}

	ttl, err := m.lifetimes.For(principal.Role)
	if err != nil {
		return nil, errors.Wrap(err, "[CreateSession]")
	}
	if principal.IsAdmin() {
		if err := m.authorizeAdmin(ctx, principal); err != nil {
			return nil, m.fail("create_session", principal.ID, err)
		}
	}

	now := m.nowTime()
	deviceID := sessions.NormalizeDeviceID(req.DeviceID)
	claims := token.NewClaims(principal.ID, string(principal.Role), string(granted), deviceID, token.ScopeSession, now, ttl)
	raw, err := m.codec.Sign(claims, m.rotation.CurrentSecret())
	if err != nil {
		return nil, errors.Wrap(err, "[CreateSession] sign")
	}

	record := &sessions.Record{
		ID:          claims.ID,
		PrincipalID: principal.ID,
		DeviceID:    deviceID,
		Token:       raw,
		KycLevel:    string(granted),
		ExpiresAt:   claims.Expiry(),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := m.repos.Sessions.Upsert(ctx, record); err != nil {
		return nil, m.fail("create_session", principal.ID, autherrors.Storage("sessions.upsert", err))
	}

	issued := &IssuedSession{Token: raw, ExpiresAt: record.ExpiresAt, Record: record}
	if principal.IsAdmin() {
		if issued.AdminToken, err = m.signAdminCredential(claims); err != nil {
			return nil, errors.Wrap(err, "[CreateSession] admin credential")
		}
	}

	m.logger.Info().
		Str("principal_id", principal.ID).
		Str("role", string(principal.Role)).
		Str("device_id", deviceID).
		Time("expires_at", record.ExpiresAt).
		Msg("session created")
	return issued, nil
}

// ValidateSession verifies raw against the current and retained secrets, then
// checks the session is still stored and recomputes the KYC requirement. The
// two reads run in parallel under the validation timeout.
func (m *SessionManager) ValidateSession(ctx context.Context, raw string) (*SessionView, error) {
	outcome, err := m.codec.Verify(raw, m.rotation.CandidateSecrets())
	if err != nil {
		return nil, m.fail("validate_session", "", err)
	}
	claims := outcome.Claims
	if claims.Scope != token.ScopeSession {
		return nil, m.fail("validate_session", claims.Subject, ErrMalformed)
	}

	ctx, cancel := context.WithTimeout(ctx, m.validationTimeout)
	defer cancel()
	now := m.nowTime()

	var (
		record      *sessions.Record
		principal   *principals.Principal
		requirement kyc.Requirement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := m.repos.Sessions.FindByToken(gctx, raw, now)
		if err != nil {
			if errors.Is(err, autherrors.ErrNotFound) {
				return ErrRevoked
			}
			return autherrors.Storage("sessions.find", err)
		}
		record = r
		return nil
	})
	g.Go(func() error {
		p, err := m.repos.Principals.GetByID(gctx, claims.Subject)
		if err != nil {
			if errors.Is(err, autherrors.ErrNotFound) {
				return ErrRevoked
			}
			return autherrors.Storage("principals.get", err)
		}
		req, err := m.evaluator.Evaluate(gctx, p)
		if err != nil {
			return err
		}
		principal, requirement = p, req
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, m.fail("validate_session", claims.Subject, err)
	}

	if record.PrincipalID != claims.Subject || string(principal.Role) != claims.Role {
		return nil, m.fail("validate_session", claims.Subject, ErrRevoked)
	}

	return &SessionView{
		SessionID:     record.ID,
		PrincipalID:   principal.ID,
		Role:          principal.Role,
		DeviceID:      record.DeviceID,
		KycLevel:      kyc.Level(record.KycLevel),
		RequiresKyc:   requirement.Required,
		Kyc:           requirement,
		ExpiresAt:     claims.Expiry(),
		ShouldRefresh: m.rotation.ShouldRefresh(outcome),
		Principal:     principal,
		tokenID:       claims.ID,
	}, nil
}

// Refresh validates raw and issues a replacement signed with the current
// secret for the same device. The old token stops validating immediately.
func (m *SessionManager) Refresh(ctx context.Context, raw string) (*IssuedSession, error) {
	view, err := m.ValidateSession(ctx, raw)
	if err != nil {
		return nil, err
	}
	return m.CreateSession(ctx, SessionRequest{
		PrincipalID: view.PrincipalID,
		DeviceID:    view.DeviceID,
		KycLevel:    view.KycLevel,
	})
}

// Logout ends the session holding raw. Other devices are untouched and
// logging out twice is not an error.
func (m *SessionManager) Logout(ctx context.Context, raw string) error {
	outcome, err := m.codec.Verify(raw, m.rotation.CandidateSecrets())
	if err != nil && !errors.Is(err, ErrExpired) {
		return m.fail("logout", "", err)
	}
	removed, err := m.repos.Sessions.DeleteByToken(ctx, raw)
	if err != nil {
		return m.fail("logout", "", autherrors.Storage("sessions.delete", err))
	}
	if outcome != nil {
		m.logger.Info().Str("principal_id", outcome.Claims.Subject).Int64("removed", removed).Msg("session logged out")
	}
	return nil
}

// RevokeAll deletes every session of the principal. Tokens issued before the
// call fail validation afterwards. Repeating it is harmless.
func (m *SessionManager) RevokeAll(ctx context.Context, principalID string) (int64, error) {
	removed, err := m.repos.Sessions.RevokeAll(ctx, principalID)
	if err != nil {
		return 0, m.fail("revoke_all", principalID, autherrors.Storage("sessions.revoke_all", err))
	}
	m.logger.Info().Str("principal_id", principalID).Int64("removed", removed).Msg("sessions revoked")
	return removed, nil
}

// ActiveSessions lists the principal's live sessions, one per device
func (m *SessionManager) ActiveSessions(ctx context.Context, principalID string) ([]*sessions.Record, error) {
	list, err := m.repos.Sessions.ListByPrincipal(ctx, principalID, m.nowTime())
	if err != nil {
		return nil, m.fail("active_sessions", principalID, autherrors.Storage("sessions.list", err))
	}
	return list, nil
}

// SweepExpired removes expired session records. It is idempotent and meant to
// be called on a schedule owned by the caller.
func (m *SessionManager) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := m.repos.Sessions.SweepExpired(ctx, m.nowTime())
	if err != nil {
		return 0, m.fail("sweep_expired", "", autherrors.Storage("sessions.sweep", err))
	}
	if removed > 0 {
		m.logger.Debug().Int64("removed", removed).Msg("expired sessions swept")
	}
	return removed, nil
}

// EvaluateKyc computes the principal's current KYC requirement
func (m *SessionManager) EvaluateKyc(ctx context.Context, principalID string) (kyc.Requirement, error) {
	principal, err := m.repos.Principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return kyc.Requirement{}, m.fail("evaluate_kyc", principalID, ErrPrincipalNotFound)
		}
		return kyc.Requirement{}, m.fail("evaluate_kyc", principalID, autherrors.Storage("principals.get", err))
	}
	req, err := m.evaluator.Evaluate(ctx, principal)
	if err != nil {
		return kyc.Requirement{}, m.fail("evaluate_kyc", principalID, err)
	}
	return req, nil
}

// RotationStatus reports the age of the current signing secret
func (m *SessionManager) RotationStatus() token.RotationStatus {
	return m.rotation.Status(m.nowTime())
}

// fail logs the internal reason and returns err unchanged.
func (m *SessionManager) fail(op, principalID string, err error) error {
	event := m.logger.Warn()
	if errors.Is(err, ErrStorageUnavailable) {
		event = m.logger.Error()
	}
	event.Str("op", op).Err(err)
	if principalID != "" {
		event.Str("principal_id", principalID)
	}
	event.Msg("auth failure")
	return err
}
