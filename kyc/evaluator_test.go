package kyc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/config"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/kyc"
	fakeactivity "github.com/jrsteele09/go-session-auth/kyc/repofake"
	"github.com/jrsteele09/go-session-auth/principals"
	"github.com/stretchr/testify/require"
)

const trustee = "0xAbC0000000000000000000000000000000000001"

var evalNow = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

func newEvaluator(t *testing.T, activity kyc.ActivitySource) *kyc.Evaluator {
	t.Helper()
	e, err := kyc.NewEvaluator(activity, trustee, config.DefaultAuth().Kyc, kyc.WithNowFunc(func() time.Time { return evalNow }))
	require.NoError(t, err)
	return e
}

func TestEvaluate_CustomerOverThreshold(t *testing.T) {
	activity := fakeactivity.NewFakeActivitySource()
	activity.RecordOrder("c1", 70000, "completed", evalNow.Add(-3*24*time.Hour))
	activity.RecordOrder("c1", 50000, "confirmed", evalNow.Add(-10*24*time.Hour))
	activity.RecordOrder("c1", 900000, "cancelled", evalNow.Add(-time.Hour))
	activity.RecordOrder("c1", 900000, "completed", evalNow.Add(-31*24*time.Hour))

	req, err := newEvaluator(t, activity).Evaluate(context.Background(), &principals.Principal{ID: "c1", Role: principals.RoleCustomer})
	require.NoError(t, err)
	require.True(t, req.Required)
	require.Equal(t, kyc.LevelEnhanced, req.Level)
	require.Equal(t, kyc.ReasonTransactionLimit, req.Reason)
	require.Nil(t, req.Deadline)
	require.Zero(t, activity.Calls["GetMerchantVerificationStatus"])
}

func TestEvaluate_CustomerAtThresholdNotRequired(t *testing.T) {
	activity := fakeactivity.NewFakeActivitySource()
	activity.RecordOrder("c1", 100000, "completed", evalNow.Add(-time.Hour))

	req, err := newEvaluator(t, activity).Evaluate(context.Background(), &principals.Principal{ID: "c1", Role: principals.RoleCustomer})
	require.NoError(t, err)
	require.Equal(t, kyc.NotRequired(), req)
}

func TestEvaluate_Merchant(t *testing.T) {
	activity := fakeactivity.NewFakeActivitySource()
	evaluator := newEvaluator(t, activity)
	merchant := &principals.Principal{ID: "m1", Role: principals.RoleMerchant}

	req, err := evaluator.Evaluate(context.Background(), merchant)
	require.NoError(t, err)
	require.Equal(t, kyc.ReasonMerchantVerification, req.Reason, "missing profile counts as unverified")

	activity.SetMerchantVerificationStatus("m1", "pending")
	req, err = evaluator.Evaluate(context.Background(), merchant)
	require.NoError(t, err)
	require.True(t, req.Required)
	require.Equal(t, kyc.LevelEnhanced, req.Level)
	require.Equal(t, kyc.ReasonMerchantVerification, req.Reason)

	activity.SetMerchantVerificationStatus("m1", " Verified ")
	req, err = evaluator.Evaluate(context.Background(), merchant)
	require.NoError(t, err)
	require.False(t, req.Required)
	require.Zero(t, activity.Calls["SumCompletedOrderTotals"])
}

func TestEvaluate_Admin(t *testing.T) {
	evaluator := newEvaluator(t, fakeactivity.NewFakeActivitySource())

	req, err := evaluator.Evaluate(context.Background(), &principals.Principal{ID: "a1", Role: principals.RoleAdmin, WalletAddress: "0xdead"})
	require.NoError(t, err)
	require.True(t, req.Required)
	require.Equal(t, kyc.LevelFull, req.Level)
	require.Equal(t, kyc.ReasonAdminAccess, req.Reason)
	require.NotNil(t, req.Deadline)
	require.Equal(t, evalNow.Add(24*time.Hour), *req.Deadline)

	req, err = evaluator.Evaluate(context.Background(), &principals.Principal{ID: "a2", Role: principals.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, kyc.LevelFull, req.Level, "admin without wallet")

	req, err = evaluator.Evaluate(context.Background(), &principals.Principal{ID: "a3", Role: principals.RoleAdmin, WalletAddress: "0xabc0000000000000000000000000000000000001"})
	require.NoError(t, err)
	require.False(t, req.Required, "trustee matches ignoring case")
}

func TestEvaluate_Deterministic(t *testing.T) {
	activity := fakeactivity.NewFakeActivitySource()
	activity.RecordOrder("c1", 120000, "completed", evalNow.Add(-time.Hour))
	evaluator := newEvaluator(t, activity)
	customer := &principals.Principal{ID: "c1", Role: principals.RoleCustomer}

	first, err := evaluator.Evaluate(context.Background(), customer)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := evaluator.Evaluate(context.Background(), customer)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestEvaluate_StoreFailure(t *testing.T) {
	activity := fakeactivity.NewFakeActivitySource()
	activity.Err = errors.New("connection refused")

	_, err := newEvaluator(t, activity).Evaluate(context.Background(), &principals.Principal{ID: "c1", Role: principals.RoleCustomer})
	require.ErrorIs(t, err, autherrors.ErrStorageUnavailable)

	_, err = newEvaluator(t, activity).Evaluate(context.Background(), &principals.Principal{ID: "m1", Role: principals.RoleMerchant})
	require.ErrorIs(t, err, autherrors.ErrStorageUnavailable)

	_, err = newEvaluator(t, activity).Evaluate(context.Background(), nil)
	require.ErrorIs(t, err, autherrors.ErrInvalidRequest)
}

func TestLevel_Rank(t *testing.T) {
	require.Greater(t, kyc.LevelFull.Rank(), kyc.LevelEnhanced.Rank())
	require.Greater(t, kyc.LevelEnhanced.Rank(), kyc.LevelBasic.Rank())
	require.Equal(t, 0, kyc.LevelNone.Rank())
	require.Equal(t, 0, kyc.Level("platinum").Rank())
}
