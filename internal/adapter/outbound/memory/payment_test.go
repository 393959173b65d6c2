package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/outbound"
)

func newPayment(id, orderID int64) *model.Payment {
	return &model.Payment{
		ID:       id,
		OrderID:  orderID,
		Amount:   decimal.NewFromInt(500),
		Status:   model.PaymentStatusPending,
		Provider: model.PaymentProviderPayme,
	}
}

func TestPaymentAdapter_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewPaymentAdapter()

	require.NoError(t, store.Create(ctx, newPayment(1, 100)))

	t.Run("find by id", func(t *testing.T) {
		p, err := store.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(100), p.OrderID)
		assert.False(t, p.CreatedAt.IsZero())
	})

	t.Run("find by order id", func(t *testing.T) {
		p, err := store.FindByOrderID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.FindByID(ctx, 2)
		assert.ErrorIs(t, err, outbound.ErrNotFound)
		_, err = store.FindByProviderTransactionID(ctx, model.PaymentProviderPayme, "nope")
		assert.ErrorIs(t, err, outbound.ErrNotFound)
	})

	t.Run("duplicate order", func(t *testing.T) {
		err := store.Create(ctx, newPayment(2, 100))
		assert.ErrorIs(t, err, outbound.ErrDuplicate)
	})

	t.Run("returned copies are detached", func(t *testing.T) {
		p, err := store.FindByID(ctx, 1)
		require.NoError(t, err)
		p.Status = model.PaymentStatusSuccess

		again, err := store.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, again.Status)
	})
}

func TestPaymentAdapter_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps version and indexes provider tx", func(t *testing.T) {
		store := NewPaymentAdapter()
		require.NoError(t, store.Create(ctx, newPayment(1, 100)))

		p, _ := store.FindByID(ctx, 1)
		tx := "PM-1"
		p.ProviderTransactionID = &tx
		require.NoError(t, store.Save(ctx, p))
		assert.Equal(t, int64(1), p.Version)

		found, err := store.FindByProviderTransactionID(ctx, model.PaymentProviderPayme, "PM-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), found.ID)

		_, err = store.FindByProviderTransactionID(ctx, model.PaymentProviderClick, "PM-1")
		assert.ErrorIs(t, err, outbound.ErrNotFound)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		store := NewPaymentAdapter()
		require.NoError(t, store.Create(ctx, newPayment(1, 100)))

		a, _ := store.FindByID(ctx, 1)
		b, _ := store.FindByID(ctx, 1)

		a.Status = model.PaymentStatusSuccess
		require.NoError(t, store.Save(ctx, a))

		b.Status = model.PaymentStatusCancelled
		assert.ErrorIs(t, store.Save(ctx, b), outbound.ErrConflict)

		stored, _ := store.FindByID(ctx, 1)
		assert.Equal(t, model.PaymentStatusSuccess, stored.Status)
	})

	t.Run("provider tx taken by another payment", func(t *testing.T) {
		store := NewPaymentAdapter()
		require.NoError(t, store.Create(ctx, newPayment(1, 100)))
		require.NoError(t, store.Create(ctx, newPayment(2, 200)))

		tx := "PM-1"
		p1, _ := store.FindByID(ctx, 1)
		p1.ProviderTransactionID = &tx
		require.NoError(t, store.Save(ctx, p1))

		p2, _ := store.FindByID(ctx, 2)
		p2.ProviderTransactionID = &tx
		assert.ErrorIs(t, store.Save(ctx, p2), outbound.ErrDuplicate)
	})

	t.Run("provider tx unique across providers", func(t *testing.T) {
		store := NewPaymentAdapter()
		require.NoError(t, store.Create(ctx, newPayment(1, 100)))
		click := newPayment(2, 200)
		click.Provider = model.PaymentProviderClick
		require.NoError(t, store.Create(ctx, click))

		tx := "555"
		p1, _ := store.FindByID(ctx, 1)
		p1.ProviderTransactionID = &tx
		require.NoError(t, store.Save(ctx, p1))

		p2, _ := store.FindByID(ctx, 2)
		p2.ProviderTransactionID = &tx
		assert.ErrorIs(t, store.Save(ctx, p2), outbound.ErrDuplicate)

		third := newPayment(3, 300)
		third.Provider = model.PaymentProviderClick
		third.ProviderTransactionID = &tx
		assert.ErrorIs(t, store.Create(ctx, third), outbound.ErrDuplicate)

		_, err := store.FindByProviderTransactionID(ctx, model.PaymentProviderClick, "555")
		assert.ErrorIs(t, err, outbound.ErrNotFound)
	})

	t.Run("unknown payment", func(t *testing.T) {
		store := NewPaymentAdapter()
		assert.ErrorIs(t, store.Save(ctx, newPayment(9, 900)), outbound.ErrNotFound)
	})

	t.Run("concurrent saves have one winner", func(t *testing.T) {
		store := NewPaymentAdapter()
		require.NoError(t, store.Create(ctx, newPayment(1, 100)))

		const workers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			p, _ := store.FindByID(ctx, 1)
			wg.Add(1)
			go func(p *model.Payment) {
				defer wg.Done()
				<-start
				p.Status = model.PaymentStatusSuccess
				if store.Save(ctx, p) == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(p)
		}
		close(start)
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}

func TestPaymentAdapter_ListByProviderCreatedRange(t *testing.T) {
	ctx := context.Background()
	store := NewPaymentAdapter()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{0, time.Hour, 3 * time.Hour} {
		p := newPayment(int64(i+1), int64(100+i))
		require.NoError(t, store.Create(ctx, p))
		p, _ = store.FindByID(ctx, p.ID)
		tx := "PM-" + string(rune('A'+i))
		at := base.Add(offset)
		p.ProviderTransactionID = &tx
		p.ProviderCreatedAt = &at
		require.NoError(t, store.Save(ctx, p))
	}
	// a payment without a bound transaction is never listed
	require.NoError(t, store.Create(ctx, newPayment(10, 1000)))

	list, err := store.ListByProviderCreatedRange(ctx, model.PaymentProviderPayme, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, int64(2), list[1].ID)

	list, err = store.ListByProviderCreatedRange(ctx, model.PaymentProviderClick, base, base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, list)
}
