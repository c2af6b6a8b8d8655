package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	fakeactivity "github.com/jrsteele09/go-session-auth/kyc/repofake"
	"github.com/jrsteele09/go-session-auth/passkeys/passkeytest"
	fakepasskeyrepo "github.com/jrsteele09/go-session-auth/passkeys/repofakes"
	"github.com/jrsteele09/go-session-auth/principals"
	fakeprincipalrepo "github.com/jrsteele09/go-session-auth/principals/repofake"
	"github.com/jrsteele09/go-session-auth/server"
	fakesessionrepo "github.com/jrsteele09/go-session-auth/sessions/repofakes"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	trusteeWallet = "0xTrustee"
	customerID    = "customer-1"
	adminID       = "admin-1"
	secretV1      = "secret-v1-0123456789abcdef"
	secretV2      = "secret-v2-0123456789abcdef"
)

var startTime = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type testServer struct {
	principalRepo *fakeprincipalrepo.FakePrincipalRepo
	sessionRepo   *fakesessionrepo.FakeSessionRepo
	passkeyRepo   *fakepasskeyrepo.FakePasskeyRepo
	activity      *fakeactivity.FakeActivitySource
	cfg           config.Auth
	now           time.Time
	logs          *bytes.Buffer
	manager       *auth.SessionManager
	srv           *server.Server
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		principalRepo: fakeprincipalrepo.NewFakePrincipalRepo(),
		sessionRepo:   fakesessionrepo.NewFakeSessionRepo(),
		passkeyRepo:   fakepasskeyrepo.NewFakePasskeyRepo(),
		activity:      fakeactivity.NewFakeActivitySource(),
		cfg:           config.DefaultAuth(),
		now:           startTime,
		logs:          &bytes.Buffer{},
	}
	ts.cfg.TrusteeWallet = trusteeWallet

	for _, p := range []*principals.Principal{
		{ID: customerID, Role: principals.RoleCustomer, KycLevel: "basic"},
		{ID: adminID, Role: principals.RoleAdmin, WalletAddress: trusteeWallet},
	} {
		require.NoError(t, ts.principalRepo.Upsert(context.Background(), p))
	}
	ts.use(t, ts.newManager(t, secretV1))
	return ts
}

func (ts *testServer) newManager(t *testing.T, current string, previous ...string) *auth.SessionManager {
	t.Helper()
	prev := make([][]byte, 0, len(previous))
	for _, p := range previous {
		prev = append(prev, []byte(p))
	}
	store, err := token.NewStaticSecretStore([]byte(current), startTime, prev...)
	require.NoError(t, err)
	manager, err := auth.NewSessionManager(auth.Repos{
		Principals: ts.principalRepo,
		Sessions:   ts.sessionRepo,
		Passkeys:   ts.passkeyRepo,
		Activity:   ts.activity,
	}, store, ts.cfg, auth.WithNowTime(func() time.Time { return ts.now }))
	require.NoError(t, err)
	return manager
}

// use points the HTTP server at manager
func (ts *testServer) use(t *testing.T, manager *auth.SessionManager) {
	t.Helper()
	srv, err := server.New(config.EnvVars{Env: "TEST"}, manager, zerolog.New(ts.logs))
	require.NoError(t, err)
	ts.manager = manager
	ts.srv = srv
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T, principalID, deviceID string) *auth.IssuedSession {
	t.Helper()
	issued, err := ts.manager.CreateSession(context.Background(), auth.SessionRequest{PrincipalID: principalID, DeviceID: deviceID})
	require.NoError(t, err)
	return issued
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func TestNew_Validation(t *testing.T) {
	ts := setupTestServer(t)
	_, err := server.New(nil, ts.manager, zerolog.Nop())
	require.Error(t, err)
	_, err = server.New(config.EnvVars{}, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestNew_LogsRoutesInDev(t *testing.T) {
	ts := setupTestServer(t)
	var logs bytes.Buffer
	_, err := server.New(config.EnvVars{Env: "DEV"}, ts.manager, zerolog.New(&logs))
	require.NoError(t, err)

	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		messages = append(messages, entry["message"].(string))
	}
	all := strings.Join(messages, "\n")
	require.Contains(t, all, server.RouteAdminRotation)
	require.Contains(t, all, server.Green+" GET")
	require.Contains(t, all, server.Yellow+" DELETE")
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)
	rec := ts.do(t, http.MethodGet, server.RouteHealth, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.NotEmpty(t, rec.Header().Get(server.HeaderRequestID))
}

func TestPasskeyLoginAndSession(t *testing.T) {
	ts := setupTestServer(t)
	authenticator := passkeytest.NewAuthenticator(t, "cred-1")
	_, err := ts.manager.RegisterPasskey(context.Background(), customerID, authenticator.Registration(t, 0))
	require.NoError(t, err)

	login := auth.PasskeyLogin{Assertion: authenticator.Assert(t, []byte("challenge"), 1), DeviceID: "phone"}
	rec := ts.do(t, http.MethodPost, server.RoutePasskeyLogin, "", login)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	issued := decode[auth.IssuedSession](t, rec)
	require.NotEmpty(t, issued.Token)
	require.Empty(t, issued.AdminToken)

	rec = ts.do(t, http.MethodGet, server.RouteSession, issued.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "false", rec.Header().Get(server.HeaderSessionRefresh))
	view := decode[map[string]any](t, rec)
	require.Equal(t, customerID, view["principal_id"])
	require.Equal(t, "phone", view["device_id"])
	require.Equal(t, "customer", view["role"])

	t.Run("replayed assertion is unauthorized", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, server.RoutePasskeyLogin, "", login)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "unauthorized", errorCode(t, rec))
		require.NotContains(t, rec.Body.String(), "replay", "internal reason must not leak")
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, server.RoutePasskeyLogin, strings.NewReader("{"))
		rec := httptest.NewRecorder()
		ts.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_request", errorCode(t, rec))
	})
}

func TestRequireSession_Rejections(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, server.RouteSession, "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, server.RouteSession, "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	issued := ts.login(t, customerID, "phone")
	ts.now = ts.now.Add(8 * 24 * time.Hour)
	rec = ts.do(t, http.MethodGet, server.RouteSession, issued.Token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code, "expired")
}

func TestRefreshAfterRotation(t *testing.T) {
	ts := setupTestServer(t)
	old := ts.login(t, customerID, "phone")

	ts.use(t, ts.newManager(t, secretV2, secretV1))

	rec := ts.do(t, http.MethodGet, server.RouteSession, old.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", rec.Header().Get(server.HeaderSessionRefresh))

	rec = ts.do(t, http.MethodPost, server.RouteSessionRefresh, old.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fresh := decode[auth.IssuedSession](t, rec)
	require.NotEqual(t, old.Token, fresh.Token)

	rec = ts.do(t, http.MethodGet, server.RouteSession, fresh.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "false", rec.Header().Get(server.HeaderSessionRefresh))

	rec = ts.do(t, http.MethodGet, server.RouteSession, old.Token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code, "refresh replaces the device session")
}

func TestLogout(t *testing.T) {
	ts := setupTestServer(t)
	phone := ts.login(t, customerID, "phone")
	laptop := ts.login(t, customerID, "laptop")

	rec := ts.do(t, http.MethodDelete, server.RouteSession, phone.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, server.RouteSession, phone.Token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = ts.do(t, http.MethodGet, server.RouteSession, laptop.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, server.RouteSession, phone.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, "logout is idempotent")

	rec = ts.do(t, http.MethodDelete, server.RouteSession, "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRevokeAllAndActiveSessions(t *testing.T) {
	ts := setupTestServer(t)
	phone := ts.login(t, customerID, "phone")
	laptop := ts.login(t, customerID, "laptop")

	rec := ts.do(t, http.MethodGet, server.RouteSessions, phone.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string][]map[string]any](t, rec)
	require.Len(t, list["sessions"], 2)
	require.NotContains(t, rec.Body.String(), laptop.Token, "tokens are never listed")

	rec = ts.do(t, http.MethodPost, server.RouteSessionRevokeAll, phone.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, decode[map[string]int64](t, rec)["revoked"])

	for _, tok := range []string{phone.Token, laptop.Token} {
		rec = ts.do(t, http.MethodGet, server.RouteSession, tok, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestKyc(t *testing.T) {
	ts := setupTestServer(t)
	issued := ts.login(t, customerID, "phone")

	rec := ts.do(t, http.MethodGet, server.RouteKyc, issued.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, decode[map[string]any](t, rec)["required"])

	ts.activity.RecordOrder(customerID, 150000, "completed", startTime.Add(-24*time.Hour))
	rec = ts.do(t, http.MethodGet, server.RouteKyc, issued.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	req := decode[map[string]any](t, rec)
	require.Equal(t, true, req["required"])
	require.Equal(t, "enhanced", req["level"])
}

func TestPasskeyRegistration(t *testing.T) {
	ts := setupTestServer(t)
	issued := ts.login(t, customerID, "phone")
	authenticator := passkeytest.NewAuthenticator(t, "cred-9")

	rec := ts.do(t, http.MethodPost, server.RoutePasskeys, "", authenticator.Registration(t, 0))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, server.RoutePasskeys, issued.Token, authenticator.Registration(t, 0))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cred := decode[map[string]any](t, rec)
	require.Equal(t, "cred-9", cred["id"])
	require.Equal(t, customerID, cred["principal_id"])

	rec = ts.do(t, http.MethodPost, server.RoutePasskeys, issued.Token, authenticator.Registration(t, 0))
	require.Equal(t, http.StatusBadRequest, rec.Code, "duplicate credential id")

	rec = ts.do(t, http.MethodGet, server.RoutePasskeys, issued.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[map[string][]map[string]any](t, rec)["passkeys"], 1)
}

func TestAdminRotation(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.login(t, adminID, "console")
	require.NotEmpty(t, admin.AdminToken)

	rec := ts.do(t, http.MethodGet, server.RouteAdminRotation, admin.Token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code, "admin credential missing")
	require.Equal(t, "forbidden", errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, server.RouteAdminRotation, admin.Token, nil, server.HeaderAdminCredential, admin.AdminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[token.RotationStatus](t, rec)
	require.True(t, status.Known)
	require.False(t, status.Due)

	customer := ts.login(t, customerID, "phone")
	rec = ts.do(t, http.MethodGet, server.RouteAdminRotation, customer.Token, nil, server.HeaderAdminCredential, admin.AdminToken)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, server.RouteAdminRotation, "", nil, server.HeaderAdminCredential, admin.AdminToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStorageUnavailable(t *testing.T) {
	ts := setupTestServer(t)
	issued := ts.login(t, customerID, "phone")

	ts.sessionRepo.Err = errors.New("disk on fire")
	rec := ts.do(t, http.MethodGet, server.RouteSession, issued.Token, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "storage_unavailable", errorCode(t, rec))
	require.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestRouting(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", errorCode(t, rec))

	rec = ts.do(t, http.MethodPut, server.RouteSession, "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	ts := setupTestServer(t)
	handler := server.ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, ts.srv.APIMiddleware()...)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "server_error", errorCode(t, rec))
	require.Contains(t, ts.logs.String(), "handler panicked")
	require.Contains(t, ts.logs.String(), `"status":500`)
}
