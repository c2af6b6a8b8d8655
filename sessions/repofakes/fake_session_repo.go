package fakesessionrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type deviceKey struct {
	principalID string
	deviceID    string
}

type FakeSessionRepo struct {
	records map[deviceKey]sessions.Record
	tokens  map[string]deviceKey // Map tokens to their device slot
	lock    sync.RWMutex

	// Err, when set, is returned from every call to simulate an unavailable store
	Err error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		records: make(map[deviceKey]sessions.Record),
		tokens:  make(map[string]deviceKey),
	}
}

func (sr *FakeSessionRepo) Upsert(_ context.Context, record *sessions.Record) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	if sr.Err != nil {
		return sr.Err
	}

	record.DeviceID = sessions.NormalizeDeviceID(record.DeviceID)
	key := deviceKey{principalID: record.PrincipalID, deviceID: record.DeviceID}

	if owner, ok := sr.tokens[record.Token]; ok && owner != key {
		return autherrors.ErrAlreadyExists
	}
	if existing, ok := sr.records[key]; ok {
		delete(sr.tokens, existing.Token)
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	}

	sr.records[key] = *record
	sr.tokens[record.Token] = key
	return nil
}

func (sr *FakeSessionRepo) FindByToken(_ context.Context, token string, now time.Time) (*sessions.Record, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	if sr.Err != nil {
		return nil, sr.Err
	}

	key, ok := sr.tokens[token]
	if !ok {
		return nil, autherrors.ErrNotFound
	}
	record := sr.records[key]
	if !record.Active(now) {
		return nil, autherrors.ErrNotFound
	}
	return &record, nil
}

func (sr *FakeSessionRepo) DeleteByToken(_ context.Context, token string) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	if sr.Err != nil {
		return 0, sr.Err
	}

	key, ok := sr.tokens[token]
	if !ok {
		return 0, nil
	}
	delete(sr.tokens, token)
	delete(sr.records, key)
	return 1, nil
}

func (sr *FakeSessionRepo) RevokeAll(_ context.Context, principalID string) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	if sr.Err != nil {
		return 0, sr.Err
	}

	var removed int64
	for key, record := range sr.records {
		if key.principalID == principalID {
			delete(sr.tokens, record.Token)
			delete(sr.records, key)
			removed++
		}
	}
	return removed, nil
}

func (sr *FakeSessionRepo) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	if sr.Err != nil {
		return 0, sr.Err
	}

	var removed int64
	for key, record := range sr.records {
		if !record.Active(now) {
			delete(sr.tokens, record.Token)
			delete(sr.records, key)
			removed++
		}
	}
	return removed, nil
}

func (sr *FakeSessionRepo) ListByPrincipal(_ context.Context, principalID string, now time.Time) ([]*sessions.Record, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	if sr.Err != nil {
		return nil, sr.Err
	}

	var live []*sessions.Record
	for key, record := range sr.records {
		if key.principalID == principalID && record.Active(now) {
			r := record
			live = append(live, &r)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].CreatedAt.Before(live[j].CreatedAt)
	})
	return live, nil
}

// Len returns the number of stored records, live or not
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.records)
}
