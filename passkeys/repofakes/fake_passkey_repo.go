package fakepasskeyrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/internal/utils"
	"github.com/jrsteele09/go-session-auth/passkeys"
)

var _ passkeys.Repo = (*FakePasskeyRepo)(nil)

type FakePasskeyRepo struct {
	credentials map[string]passkeys.Credential
	lock        sync.RWMutex

	// Err, when set, is returned from every call to simulate an unavailable store
	Err error
}

func NewFakePasskeyRepo() *FakePasskeyRepo {
	return &FakePasskeyRepo{credentials: make(map[string]passkeys.Credential)}
}

func (r *FakePasskeyRepo) Create(_ context.Context, credential *passkeys.Credential) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.Err != nil {
		return r.Err
	}

	if _, ok := r.credentials[credential.ID]; ok {
		return autherrors.ErrAlreadyExists
	}
	r.credentials[credential.ID] = *credential
	return nil
}

func (r *FakePasskeyRepo) Get(_ context.Context, credentialID string) (*passkeys.Credential, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}

	c, ok := r.credentials[credentialID]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	return &c, nil
}

func (r *FakePasskeyRepo) ListByPrincipal(_ context.Context, principalID string) ([]*passkeys.Credential, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}

	var list []*passkeys.Credential
	for _, c := range r.credentials {
		if c.PrincipalID == principalID {
			cred := c
			list = append(list, &cred)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (r *FakePasskeyRepo) UpdateCounter(_ context.Context, credentialID string, expected, next uint32, usedAt time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.Err != nil {
		return r.Err
	}

	c, ok := r.credentials[credentialID]
	if !ok {
		return autherrors.ErrNotFound
	}
	if c.Counter != expected {
		return autherrors.ErrConflict
	}
	c.Counter = next
	c.LastUsedAt = utils.TimePtrUTC(usedAt)
	r.credentials[credentialID] = c
	return nil
}
