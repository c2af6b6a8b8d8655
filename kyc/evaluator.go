package kyc

import (
	"context"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/config"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/internal/utils"
	"github.com/jrsteele09/go-session-auth/principals"
	"github.com/pkg/errors"
)

// Evaluator applies the role decision table to a principal. It keeps no
// state between calls, so the same inputs always give the same answer.
type Evaluator struct {
	activity       ActivitySource
	trusteeWallet  string
	thresholdCents int64
	window         time.Duration
	adminGrace     time.Duration
	nowFunc        func() time.Time
}

type EvaluatorOption func(*Evaluator)

// WithNowFunc sets the clock used for the trailing window and the admin deadline
func WithNowFunc(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		e.nowFunc = now
	}
}

// NewEvaluator builds an evaluator from the KYC policy and the trustee wallet.
func NewEvaluator(activity ActivitySource, trusteeWallet string, cfg config.KycConfig, options ...EvaluatorOption) (*Evaluator, error) {
	if activity == nil {
		return nil, errors.New("[NewEvaluator] activity source is required")
	}
	e := &Evaluator{
		activity:       activity,
		trusteeWallet:  trusteeWallet,
		thresholdCents: cfg.GetMonthlyThresholdCents(),
		window:         time.Duration(cfg.GetKycWindowDays()) * 24 * time.Hour,
		adminGrace:     cfg.GetAdminKycGrace(),
		nowFunc:        time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	return e, nil
}

// Evaluate returns the strictest requirement that applies. Only the signal
// the principal's role needs is read. Store failures are wrapped with
// errors.ErrStorageUnavailable.
func (e *Evaluator) Evaluate(ctx context.Context, principal *principals.Principal) (Requirement, error) {
	if principal == nil {
		return Requirement{}, errors.Wrap(autherrors.ErrInvalidRequest, "[Evaluator.Evaluate] principal is nil")
	}
	now := e.nowFunc()
	req := NotRequired()

	switch principal.Role {
	case principals.RoleAdmin:
		req = stricter(req, e.adminRequirement(principal, now))

	case principals.RoleCustomer:
		total, err := e.activity.SumCompletedOrderTotals(ctx, principal.ID, now.Add(-e.window))
		if err != nil {
			return Requirement{}, autherrors.Storage("kyc.order_totals", err)
		}
		if total > e.thresholdCents {
			req = stricter(req, Requirement{Required: true, Level: LevelEnhanced, Reason: ReasonTransactionLimit})
		}

	case principals.RoleMerchant:
		status, err := e.activity.GetMerchantVerificationStatus(ctx, principal.ID)
		if err != nil && !errors.Is(err, autherrors.ErrNotFound) {
			return Requirement{}, autherrors.Storage("kyc.merchant_status", err)
		}
		if !IsMerchantVerified(status) {
			req = stricter(req, Requirement{Required: true, Level: LevelEnhanced, Reason: ReasonMerchantVerification})
		}
	}
	return req, nil
}

func (e *Evaluator) adminRequirement(principal *principals.Principal, now time.Time) Requirement {
	if principals.WalletsEqual(principal.WalletAddress, e.trusteeWallet) {
		return NotRequired()
	}
	return Requirement{
		Required: true,
		Level:    LevelFull,
		Reason:   ReasonAdminAccess,
		Deadline: utils.TimePtrUTC(now.Add(e.adminGrace)),
	}
}
