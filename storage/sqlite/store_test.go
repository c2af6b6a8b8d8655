package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/kyc"
	"github.com/jrsteele09/go-session-auth/passkeys"
	"github.com/jrsteele09/go-session-auth/passkeys/passkeytest"
	"github.com/jrsteele09/go-session-auth/principals"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/sessions/sessiontest"
	"github.com/jrsteele09/go-session-auth/storage/sqlite"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for _, id := range []string{"p1", "p2"} {
		require.NoError(t, store.PutPrincipal(context.Background(), &principals.Principal{ID: id, Role: principals.RoleCustomer}))
	}
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	require.Error(t, err)
}

func TestOpen_MigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.db")
	first, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.PutPrincipal(context.Background(), &principals.Principal{ID: "p1", Role: principals.RoleAdmin}))
	require.NoError(t, first.Close())

	second, err := sqlite.Open(path)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.DB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	require.Equal(t, 1, applied)

	p, err := second.Principals().GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, principals.RoleAdmin, p.Role)
}

func TestStoreNilSafe(t *testing.T) {
	var store *sqlite.Store
	require.Nil(t, store.DB())
	require.NoError(t, store.Close())
}

func TestSessionRepo_Contract(t *testing.T) {
	sessiontest.RunRepoContract(t, func(t *testing.T) sessions.Repo {
		return openTempStore(t).Sessions()
	})
}

func TestPasskeyRepo_Contract(t *testing.T) {
	passkeytest.RunRepoContract(t, func(t *testing.T) passkeys.Repo {
		return openTempStore(t).Passkeys()
	})
}

func TestPasskeyRepo_UpdateCounterUnknown(t *testing.T) {
	repo := openTempStore(t).Passkeys()
	err := repo.UpdateCounter(context.Background(), "missing", 0, 1, time.Now())
	require.ErrorIs(t, err, autherrors.ErrNotFound)
}

func TestPrincipalRepo(t *testing.T) {
	store := openTempStore(t)
	repo := store.Principals()
	ctx := context.Background()

	admin := &principals.Principal{Role: principals.RoleAdmin, WalletAddress: "0xAbCdEf", KycLevel: "full"}
	require.NoError(t, repo.Upsert(ctx, admin))
	require.NotEmpty(t, admin.ID)

	got, err := repo.GetByWallet(ctx, "  0xabcdef ")
	require.NoError(t, err)
	require.Equal(t, admin.ID, got.ID)
	require.Equal(t, "0xAbCdEf", got.WalletAddress)
	require.Equal(t, "full", got.KycLevel)

	_, err = repo.GetByWallet(ctx, "")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, autherrors.ErrNotFound)

	admin.WalletAddress = ""
	require.NoError(t, repo.Upsert(ctx, admin))
	_, err = repo.GetByWallet(ctx, "0xabcdef")
	require.ErrorIs(t, err, autherrors.ErrNotFound, "unlinked wallet")

	require.Error(t, repo.Upsert(ctx, &principals.Principal{Role: "owner"}))
}

func TestActivitySource(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 30, 12, 0, 0, 0, time.UTC)

	for _, o := range []sqlite.Order{
		{PrincipalID: "p1", TotalCents: 60000, Status: "completed", CreatedAt: now.Add(-time.Hour)},
		{PrincipalID: "p1", TotalCents: 60000, Status: "Confirmed", CreatedAt: now.Add(-29 * 24 * time.Hour)},
		{PrincipalID: "p1", TotalCents: 99999, Status: "refunded", CreatedAt: now.Add(-time.Hour)},
		{PrincipalID: "p1", TotalCents: 99999, Status: "completed", CreatedAt: now.Add(-31 * 24 * time.Hour)},
		{PrincipalID: "p2", TotalCents: 99999, Status: "completed", CreatedAt: now.Add(-time.Hour)},
	} {
		require.NoError(t, store.RecordOrder(ctx, o))
	}

	total, err := store.SumCompletedOrderTotals(ctx, "p1", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 120000, total)

	total, err = store.SumCompletedOrderTotals(ctx, "nobody", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Zero(t, total)

	_, err = store.GetMerchantVerificationStatus(ctx, "p2")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
	require.NoError(t, store.SetMerchantVerificationStatus(ctx, "p2", "pending"))
	require.NoError(t, store.SetMerchantVerificationStatus(ctx, "p2", "verified"))
	status, err := store.GetMerchantVerificationStatus(ctx, "p2")
	require.NoError(t, err)
	require.Equal(t, "verified", status)
}

func TestSessionManagerOverSQLite(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.PutPrincipal(ctx, &principals.Principal{ID: "c1", Role: principals.RoleCustomer}))
	require.NoError(t, store.RecordOrder(ctx, sqlite.Order{PrincipalID: "c1", TotalCents: 120000, Status: "completed", CreatedAt: now.Add(-24 * time.Hour)}))

	secrets, err := token.NewStaticSecretStore([]byte("sqlite-test-secret"), now)
	require.NoError(t, err)
	manager, err := auth.NewSessionManager(auth.Repos{
		Principals: store.Principals(),
		Sessions:   store.Sessions(),
		Passkeys:   store.Passkeys(),
		Activity:   store,
	}, secrets, config.DefaultAuth(), auth.WithNowTime(func() time.Time { return now }))
	require.NoError(t, err)

	authenticator := passkeytest.NewAuthenticator(t, "cred-sqlite")
	_, err = manager.RegisterPasskey(ctx, "c1", authenticator.Registration(t, 0))
	require.NoError(t, err)

	assertion := authenticator.Assert(t, []byte("challenge"), 1)
	issued, err := manager.LoginWithPasskey(ctx, auth.PasskeyLogin{Assertion: assertion, DeviceID: "phone"})
	require.NoError(t, err)
	_, err = manager.LoginWithPasskey(ctx, auth.PasskeyLogin{Assertion: assertion, DeviceID: "phone"})
	require.ErrorIs(t, err, auth.ErrReplayDetected)

	view, err := manager.ValidateSession(ctx, issued.Token)
	require.NoError(t, err)
	require.True(t, view.RequiresKyc)
	require.Equal(t, kyc.ReasonTransactionLimit, view.Kyc.Reason)

	removed, err := manager.RevokeAll(ctx, "c1")
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
	_, err = manager.ValidateSession(ctx, issued.Token)
	require.ErrorIs(t, err, auth.ErrRevoked)
}

func TestPrincipalRepo_WalletIsUnique(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.PutPrincipal(ctx, &principals.Principal{ID: "admin", Role: principals.RoleAdmin, WalletAddress: "0xTRUSTEE"}))
	err := store.PutPrincipal(ctx, &principals.Principal{ID: "cust", Role: principals.RoleCustomer, WalletAddress: " 0xtrustee "})
	require.ErrorIs(t, err, autherrors.ErrAlreadyExists)

	_, err = store.Principals().GetByID(ctx, "cust")
	require.ErrorIs(t, err, autherrors.ErrNotFound, "rejected upsert leaves no row")

	holder, err := store.Principals().GetByWallet(ctx, "0xTrustee")
	require.NoError(t, err)
	require.Equal(t, "admin", holder.ID)

	cfg := config.DefaultAuth()
	cfg.TrusteeWallet = "0xTRUSTEE"
	secrets, err := token.NewStaticSecretStore([]byte("sqlite-test-secret"), now)
	require.NoError(t, err)
	manager, err := auth.NewSessionManager(auth.Repos{
		Principals: store.Principals(),
		Sessions:   store.Sessions(),
		Passkeys:   store.Passkeys(),
		Activity:   store,
	}, secrets, cfg, auth.WithNowTime(func() time.Time { return now }))
	require.NoError(t, err)

	issued, err := manager.CreateSession(ctx, auth.SessionRequest{PrincipalID: "admin", DeviceID: "console"})
	require.NoError(t, err)
	require.NotEmpty(t, issued.AdminToken)

	// Re-saving the holder with the same wallet is not a collision
	require.NoError(t, store.PutPrincipal(ctx, &principals.Principal{ID: "admin", Role: principals.RoleAdmin, WalletAddress: "0xtrustee"}))
}
