package token

import (
	"bytes"
	"time"
)

const DefaultRotationInterval = 90 * 24 * time.Hour

// RotationStatus is the age report for the current secret. When Known is
// false the rotation date was never recorded and Due is always false.
type RotationStatus struct {
	Known     bool          `json:"known"`
	Due       bool          `json:"due"`
	RotatedAt time.Time     `json:"rotated_at,omitempty"`
	Age       time.Duration `json:"age"`
	Interval  time.Duration `json:"interval"`
}

// RotationPolicy decides which secrets a token may verify against and when
// the current secret is due for rotation. It never evicts a retained secret;
// operators remove it once every token signed under it has expired.
type RotationPolicy struct {
	store    SecretStore
	interval time.Duration
}

func NewRotationPolicy(store SecretStore, interval time.Duration) *RotationPolicy {
	if interval <= 0 {
		interval = DefaultRotationInterval
	}
	return &RotationPolicy{store: store, interval: interval}
}

// CandidateSecrets returns the current secret followed by retained ones,
// oldest last.
func (p *RotationPolicy) CandidateSecrets() []SigningSecret {
	current := p.store.Current()
	candidates := []SigningSecret{current}
	for _, prev := range p.store.Previous() {
		if len(prev.Key) == 0 || bytes.Equal(prev.Key, current.Key) {
			continue
		}
		candidates = append(candidates, prev)
	}
	return candidates
}

// CurrentSecret is the only secret new tokens are signed with.
func (p *RotationPolicy) CurrentSecret() SigningSecret {
	return p.store.Current()
}

func (p *RotationPolicy) Status(now time.Time) RotationStatus {
	rotatedAt, known := p.store.RotatedAt()
	if !known {
		return RotationStatus{Interval: p.interval}
	}
	age := now.Sub(rotatedAt)
	return RotationStatus{
		Known:     true,
		Due:       age >= p.interval,
		RotatedAt: rotatedAt,
		Age:       age,
		Interval:  p.interval,
	}
}

func (p *RotationPolicy) IsRotationDue(now time.Time) bool {
	return p.Status(now).Due
}

// ShouldRefresh reports whether outcome was validated by a non-current secret.
func (p *RotationPolicy) ShouldRefresh(outcome *VerifyOutcome) bool {
	return outcome.ShouldRefresh()
}
