package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/outbound"
)

// paymentAdapter implements outbound.PaymentDatabasePort in memory.
// It mirrors the postgres adapter: order ids and provider transaction ids
// are unique across all payments, and saves compare-and-swap on Version.
type paymentAdapter struct {
	mu      sync.RWMutex
	byID    map[int64]*model.Payment
	byOrder map[int64]int64
	byTxID  map[string]int64
	now     func() time.Time
}

// NewPaymentAdapter creates a new in-memory payment store.
func NewPaymentAdapter() outbound.PaymentDatabasePort {
	return &paymentAdapter{
		byID:    make(map[int64]*model.Payment),
		byOrder: make(map[int64]int64),
		byTxID:  make(map[string]int64),
		now:     time.Now,
	}
}

func (a *paymentAdapter) Create(ctx context.Context, payment *model.Payment) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.byID[payment.ID]; ok {
		return outbound.ErrDuplicate
	}
	if _, ok := a.byOrder[payment.OrderID]; ok {
		return outbound.ErrDuplicate
	}
	if payment.HasProviderTransaction() {
		if _, ok := a.byTxID[payment.ProviderTxID()]; ok {
			return outbound.ErrDuplicate
		}
		a.byTxID[payment.ProviderTxID()] = payment.ID
	}

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = a.now()
	}
	if payment.UpdatedAt.IsZero() {
		payment.UpdatedAt = payment.CreatedAt
	}
	a.byID[payment.ID] = payment.Clone()
	a.byOrder[payment.OrderID] = payment.ID
	return nil
}

func (a *paymentAdapter) FindByID(ctx context.Context, id int64) (*model.Payment, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.get(id)
}

func (a *paymentAdapter) FindByOrderID(ctx context.Context, orderID int64) (*model.Payment, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok := a.byOrder[orderID]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	return a.get(id)
}

func (a *paymentAdapter) FindByProviderTransactionID(ctx context.Context, provider model.PaymentProvider, txID string) (*model.Payment, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok := a.byTxID[txID]
	if !ok || a.byID[id].Provider != provider {
		return nil, outbound.ErrNotFound
	}
	return a.get(id)
}

func (a *paymentAdapter) ListByProviderCreatedRange(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []*model.Payment
	for _, p := range a.byID {
		if p.Provider != provider || p.ProviderCreatedAt == nil {
			continue
		}
		if p.ProviderCreatedAt.Before(from) || p.ProviderCreatedAt.After(to) {
			continue
		}
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProviderCreatedAt.Before(*out[j].ProviderCreatedAt)
	})
	return out, nil
}

func (a *paymentAdapter) Save(ctx context.Context, payment *model.Payment) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stored, ok := a.byID[payment.ID]
	if !ok {
		return outbound.ErrNotFound
	}
	if stored.Version != payment.Version {
		return outbound.ErrConflict
	}

	if payment.HasProviderTransaction() && payment.ProviderTxID() != stored.ProviderTxID() {
		key := payment.ProviderTxID()
		if owner, taken := a.byTxID[key]; taken && owner != payment.ID {
			return outbound.ErrDuplicate
		}
		if stored.HasProviderTransaction() {
			delete(a.byTxID, stored.ProviderTxID())
		}
		a.byTxID[key] = payment.ID
	}

	payment.Version++
	a.byID[payment.ID] = payment.Clone()
	return nil
}

// get returns a copy of the payment; callers hold the lock.
func (a *paymentAdapter) get(id int64) (*model.Payment, error) {
	p, ok := a.byID[id]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	return p.Clone(), nil
}

// Compile-time check
var _ outbound.PaymentDatabasePort = (*paymentAdapter)(nil)
