package auth

import (
	"github.com/jrsteele09/go-session-auth/kyc"
	"github.com/jrsteele09/go-session-auth/passkeys"
	"github.com/jrsteele09/go-session-auth/principals"
	"github.com/jrsteele09/go-session-auth/sessions"
)

// Repos holds all repository dependencies for the SessionManager
type Repos struct {
	Principals principals.Repo    // Principal lookups, including by trustee wallet
	Sessions   sessions.Repo      // Live session records
	Passkeys   passkeys.Repo      // Registered passkey credentials
	Activity   kyc.ActivitySource // Order totals and merchant verification status
}

func (r Repos) validate() error {
	switch {
	case r.Principals == nil:
		return errRequired("Principals repo")
	case r.Sessions == nil:
		return errRequired("Sessions repo")
	case r.Passkeys == nil:
		return errRequired("Passkeys repo")
	case r.Activity == nil:
		return errRequired("Activity source")
	}
	return nil
}
