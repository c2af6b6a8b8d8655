package fakeprincipalrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/principals"
)

var _ principals.Repo = (*FakePrincipalRepo)(nil)

type FakePrincipalRepo struct {
	principals map[string]principals.Principal
	wallets    map[string]string // normalized wallet to principal id
	lock       sync.RWMutex

	// Err, when set, is returned from every call to simulate an unavailable store
	Err error
}

func NewFakePrincipalRepo() *FakePrincipalRepo {
	return &FakePrincipalRepo{
		principals: make(map[string]principals.Principal),
		wallets:    make(map[string]string),
	}
}

func (r *FakePrincipalRepo) Upsert(_ context.Context, principal *principals.Principal) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.Err != nil {
		return r.Err
	}

	wallet := principals.NormalizeWallet(principal.WalletAddress)
	if holder, ok := r.wallets[wallet]; ok && wallet != "" && holder != principal.ID {
		return autherrors.ErrAlreadyExists
	}
	if principal.ID == "" {
		principal.ID = uuid.New().String()
	}
	if existing, ok := r.principals[principal.ID]; ok {
		delete(r.wallets, principals.NormalizeWallet(existing.WalletAddress))
	}
	r.principals[principal.ID] = *principal
	if wallet != "" {
		r.wallets[wallet] = principal.ID
	}
	return nil
}

func (r *FakePrincipalRepo) GetByID(_ context.Context, id string) (*principals.Principal, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}

	p, ok := r.principals[id]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	return &p, nil
}

func (r *FakePrincipalRepo) GetByWallet(_ context.Context, address string) (*principals.Principal, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}

	id, ok := r.wallets[principals.NormalizeWallet(address)]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	p := r.principals[id]
	return &p, nil
}
