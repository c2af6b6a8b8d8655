package auth

import (
	"time"

	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/principals"
	"github.com/pkg/errors"
)

// Lifetimes maps each role to its session duration. Admin sessions are always
// the shortest-lived.
type Lifetimes struct {
	Admin    time.Duration
	Merchant time.Duration
	Customer time.Duration
}

func LifetimesFromConfig(c config.SessionConfig) Lifetimes {
	return Lifetimes{
		Admin:    c.GetAdminSessionTTL(),
		Merchant: c.GetMerchantSessionTTL(),
		Customer: c.GetCustomerSessionTTL(),
	}
}

// For returns the lifetime of role
func (l Lifetimes) For(role principals.RoleType) (time.Duration, error) {
	switch role {
	case principals.RoleAdmin:
		return l.Admin, nil
	case principals.RoleMerchant:
		return l.Merchant, nil
	case principals.RoleCustomer:
		return l.Customer, nil
	}
	return 0, errors.Wrapf(ErrInvalidRequest, "unknown role %q", role)
}

func (l Lifetimes) validate() error {
	if l.Admin <= 0 || l.Merchant <= 0 || l.Customer <= 0 {
		return errors.New("session lifetimes must be positive")
	}
	if l.Admin >= l.Customer || l.Admin >= l.Merchant {
		return errors.Errorf("admin lifetime %s must be shorter than every other role", l.Admin)
	}
	return nil
}
