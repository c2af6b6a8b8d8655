package fakeactivity

import (
	"context"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/kyc"
)

var _ kyc.ActivitySource = (*FakeActivitySource)(nil)

type order struct {
	totalCents int64
	status     string
	createdAt  time.Time
}

type FakeActivitySource struct {
	orders   map[string][]order
	statuses map[string]string
	lock     sync.RWMutex

	// Calls counts lookups by method name
	Calls map[string]int
	// Err, when set, is returned from every call to simulate an unavailable store
	Err error
}

func NewFakeActivitySource() *FakeActivitySource {
	return &FakeActivitySource{
		orders:   make(map[string][]order),
		statuses: make(map[string]string),
		Calls:    make(map[string]int),
	}
}

// RecordOrder adds an order for principalID
func (f *FakeActivitySource) RecordOrder(principalID string, totalCents int64, status string, createdAt time.Time) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.orders[principalID] = append(f.orders[principalID], order{totalCents: totalCents, status: status, createdAt: createdAt})
}

func (f *FakeActivitySource) SetMerchantVerificationStatus(principalID, status string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.statuses[principalID] = status
}

func (f *FakeActivitySource) SumCompletedOrderTotals(_ context.Context, principalID string, since time.Time) (int64, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["SumCompletedOrderTotals"]++
	if f.Err != nil {
		return 0, f.Err
	}

	var total int64
	for _, o := range f.orders[principalID] {
		if o.createdAt.Before(since) {
			continue
		}
		if o.status == "completed" || o.status == "confirmed" {
			total += o.totalCents
		}
	}
	return total, nil
}

func (f *FakeActivitySource) GetMerchantVerificationStatus(_ context.Context, principalID string) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls["GetMerchantVerificationStatus"]++
	if f.Err != nil {
		return "", f.Err
	}

	status, ok := f.statuses[principalID]
	if !ok {
		return "", autherrors.ErrNotFound
	}
	return status, nil
}
