package click

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uniedit/paygate/internal/adapter/outbound/memory"
	"github.com/uniedit/paygate/internal/domain/payment"
	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/outbound"
	"github.com/uniedit/paygate/internal/utils/metrics"
	"go.uber.org/zap"
)

const (
	testSecret    = "secret"
	testServiceID = "77"
	testSignTime  = "2024-01-01 10:00:00"
)

// --- Mock Implementations ---

type MockEventPublisherPort struct {
	mock.Mock
}

func (m *MockEventPublisherPort) PublishSuccess(ctx context.Context, orderID, paymentID int64) error {
	args := m.Called(ctx, orderID, paymentID)
	return args.Error(0)
}

func (m *MockEventPublisherPort) PublishCancelled(ctx context.Context, p *model.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// --- Helpers ---

type fixture struct {
	store     outbound.PaymentDatabasePort
	publisher *MockEventPublisherPort
	metrics   *metrics.Metrics
	domain    ClickDomain
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewPaymentAdapter()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	publisher := new(MockEventPublisherPort)
	m := metrics.NewWithRegistry("test", prometheus.NewRegistry())
	payments := payment.NewPaymentDomain(store, publisher, node, payment.Config{}, m, zap.NewNop())
	return &fixture{
		store:     store,
		publisher: publisher,
		metrics:   m,
		domain:    NewClickDomain(payments, Config{ServiceID: testServiceID, SecretKey: testSecret}, m, zap.NewNop()),
	}
}

func (f *fixture) seed(t *testing.T, id, orderID int64, amount string) {
	t.Helper()
	require.NoError(t, f.store.Create(context.Background(), &model.Payment{
		ID:       id,
		OrderID:  orderID,
		Amount:   decimal.RequireFromString(amount),
		Status:   model.PaymentStatusPending,
		Provider: model.PaymentProviderClick,
	}))
}

func (f *fixture) payment(t *testing.T, id int64) *model.Payment {
	t.Helper()
	p, err := f.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func sign(t *testing.T, phase Phase, req *model.ClickRequest) *model.ClickRequest {
	t.Helper()
	sig, err := NewSigner(testSecret).Sign(phase, req)
	require.NoError(t, err)
	req.SignString = sig
	return req
}

func prepareRequest(t *testing.T, clickTransID, orderID, amount string) *model.ClickRequest {
	return sign(t, PhasePrepare, &model.ClickRequest{
		ClickTransID:    clickTransID,
		ServiceID:       testServiceID,
		MerchantTransID: orderID,
		Amount:          amount,
		Action:          actionPrepare,
		SignTime:        testSignTime,
	})
}

func completeRequest(t *testing.T, clickTransID, orderID, prepareID, amount, providerError string) *model.ClickRequest {
	return sign(t, PhaseComplete, &model.ClickRequest{
		ClickTransID:      clickTransID,
		ServiceID:         testServiceID,
		MerchantTransID:   orderID,
		MerchantPrepareID: prepareID,
		Amount:            amount,
		Action:            actionComplete,
		Error:             providerError,
		SignTime:          testSignTime,
	})
}

// --- Tests ---

func TestClickDomain_Prepare(t *testing.T) {
	ctx := context.Background()

	t.Run("binds click transaction and returns prepare id", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1, 100, "500.00")

		resp := f.domain.Prepare(ctx, prepareRequest(t, "123", "100", "500.00"))
		assert.Equal(t, int(CodeSuccess), resp.Error)
		assert.Equal(t, "Success", resp.ErrorNote)
		assert.Equal(t, int64(123), resp.ClickTransID)
		assert.Equal(t, "100", resp.MerchantTransID)
		assert.Equal(t, int64(1), resp.MerchantPrepareID)
		assert.Zero(t, resp.MerchantConfirmID)

		p := f.payment(t, 1)
		assert.Equal(t, "123", p.ProviderTxID())
		assert.Equal(t, model.PaymentStatusPending, p.Status)
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ProviderOperationsTotal.WithLabelValues("click", "prepare", "0")))
	})

	t.Run("amount in different notation matches", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1, 100, "500.00")

		resp := f.domain.Prepare(ctx, prepareRequest(t, "123", "100", "500"))
		assert.Equal(t, int(CodeSuccess), resp.Error)
	})

	t.Run("first click transaction wins", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1, 100, "500.00")

		require.Equal(t, int(CodeSuccess), f.domain.Prepare(ctx, prepareRequest(t, "123", "100", "500.00")).Error)
		resp := f.domain.Prepare(ctx, prepareRequest(t, "456", "100", "500.00"))
		assert.Equal(t, int(CodeSuccess), resp.Error)
		assert.Equal(t, "123", f.payment(t, 1).ProviderTxID())
	})

	t.Run("amount mismatch leaves transaction unbound", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1, 100, "500.00")

		resp := f.domain.Prepare(ctx, prepareRequest(t, "123", "100", "499.99"))
		assert.Equal(t, int(CodeInvalidAmount), resp.Error)
		assert.Zero(t, resp.MerchantPrepareID)

		p := f.payment(t, 1)
		assert.False(t, p.HasProviderTransaction())
		assert.Equal(t, int64(0), p.Version)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t)
		resp := f.domain.Prepare(ctx, prepareRequest(t, "123", "999", "500.00"))
		assert.Equal(t, int(CodeTransactionNotFound), resp.Error)
	})

	t.Run("non-pending payment", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1, 100, "500.00")
		p := f.payment(t, 1)
		p.Status = model.PaymentStatusCancelled
		require.NoError(t, f.store.Save(ctx, p))

		resp := f.domain.Prepare(ctx, prepareRequest(t, "123", "100", "500.00"))
		assert.Equal(t, int(CodeTransactionCancelled), resp.Error)
	})

	t.Run("wrong action", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1, 100, "500.00")
		req := &model.ClickRequest{
			ClickTransID:    "123",
			ServiceID:       testServiceID,
			MerchantTransID: "100",
			Amount:          "500.00",
			Action:          actionComplete,
			SignTime:        testSignTime,
		}
		resp := f.domain.Prepare(ctx, sign(t, PhasePrepare, req))
		assert.Equal(t, int(CodeActionNotFound), resp.Error)
	})

	t.Run("foreign service id", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, 1, 100, "500.00")
		req := &model.ClickRequest{
			ClickTransID:    "123",
			ServiceID:       "78",
			MerchantTransID: "100",
			Amount:          "500.00",
			Action:          actionPrepare,
			SignTime:        testSignTime,
		}
		resp := f.domain.Prepare(ctx, sign(t, PhasePrepare, req))
		assert.Equal(t, int(CodeBadRequest), resp.Error)
	})

	t.Run("missing field", func(t *testing.T) {
		f := newFixture(t)
		resp := f.domain.Prepare(ctx, &model.ClickRequest{ClickTransID: "123", SignString: "abc"})
		assert.Equal(t, int(CodeBadRequest), resp.Error)
		assert.Equal(t, "Error in request from click", resp.ErrorNote)
	})
}

func TestClickDomain_SignatureTampering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, 1, 100, "500.00")

	valid := prepareRequest(t, "123", "100", "500.00")
	for i := 0; i < len(valid.SignString); i++ {
		tampered := *valid
		b := []byte(valid.SignString)
		if b[i] == '0' {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
		tampered.SignString = string(b)

		resp := f.domain.Prepare(ctx, &tampered)
		require.Equal(t, int(CodeSignCheckFailed), resp.Error, "byte %d", i)
	}

	for _, sign := range []string{
		strings.ToUpper(valid.SignString),
		valid.SignString + " ",
		"\t" + valid.SignString,
	} {
		tampered := *valid
		tampered.SignString = sign
		resp := f.domain.Prepare(ctx, &tampered)
		require.Equal(t, int(CodeSignCheckFailed), resp.Error, "sign %q", sign)
	}

	p := f.payment(t, 1)
	assert.False(t, p.HasProviderTransaction())
	assert.Equal(t, int64(0), p.Version)
}

func TestClickDomain_Complete(t *testing.T) {
	ctx := context.Background()

	prepared := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.seed(t, 1, 100, "500.00")
		require.Equal(t, int(CodeSuccess), f.domain.Prepare(ctx, prepareRequest(t, "123", "100", "500.00")).Error)
		return f
	}

	t.Run("success publishes once and replay is identical", func(t *testing.T) {
		f := prepared(t)
		f.publisher.On("PublishSuccess", mock.Anything, int64(100), int64(1)).Return(nil).Once()

		req := completeRequest(t, "123", "100", "1", "500.00", "0")
		first := f.domain.Complete(ctx, req)
		assert.Equal(t, int(CodeSuccess), first.Error)
		assert.Equal(t, int64(1), first.MerchantConfirmID)
		assert.Zero(t, first.MerchantPrepareID)
		assert.Equal(t, model.PaymentStatusSuccess, f.payment(t, 1).Status)

		second := f.domain.Complete(ctx, req)
		assert.Equal(t, first, second)
		f.publisher.AssertNumberOfCalls(t, "PublishSuccess", 1)
	})

	t.Run("provider error fails the payment", func(t *testing.T) {
		f := prepared(t)

		resp := f.domain.Complete(ctx, completeRequest(t, "123", "100", "1", "500.00", "-5017"))
		assert.Equal(t, int(CodeTransactionCancelled), resp.Error)
		assert.Equal(t, model.PaymentStatusFailed, f.payment(t, 1).Status)
		f.publisher.AssertNotCalled(t, "PublishSuccess", mock.Anything, mock.Anything, mock.Anything)

		// a later successful complete cannot revive it
		resp = f.domain.Complete(ctx, completeRequest(t, "123", "100", "1", "500.00", "0"))
		assert.Equal(t, int(CodeTransactionCancelled), resp.Error)
	})

	t.Run("amount mismatch does not mutate", func(t *testing.T) {
		f := prepared(t)
		before := f.payment(t, 1)

		resp := f.domain.Complete(ctx, completeRequest(t, "123", "100", "1", "1.00", "0"))
		assert.Equal(t, int(CodeInvalidAmount), resp.Error)
		after := f.payment(t, 1)
		assert.Equal(t, before.Version, after.Version)
		assert.Equal(t, model.PaymentStatusPending, after.Status)
	})

	t.Run("unknown prepare id", func(t *testing.T) {
		f := prepared(t)
		resp := f.domain.Complete(ctx, completeRequest(t, "123", "100", "42", "500.00", "0"))
		assert.Equal(t, int(CodeTransactionNotFound), resp.Error)
	})

	t.Run("order id must match the prepared payment", func(t *testing.T) {
		f := prepared(t)
		resp := f.domain.Complete(ctx, completeRequest(t, "123", "101", "1", "500.00", "0"))
		assert.Equal(t, int(CodeTransactionNotFound), resp.Error)
	})

	t.Run("click transaction must match the bound one", func(t *testing.T) {
		f := prepared(t)
		resp := f.domain.Complete(ctx, completeRequest(t, "999", "100", "1", "500.00", "0"))
		assert.Equal(t, int(CodeTransactionNotFound), resp.Error)
	})

	t.Run("cancelled payment", func(t *testing.T) {
		f := prepared(t)
		p := f.payment(t, 1)
		require.NoError(t, payment.Transition(p, model.PaymentStatusCancelled, time.Now()))
		require.NoError(t, f.store.Save(ctx, p))

		resp := f.domain.Complete(ctx, completeRequest(t, "123", "100", "1", "500.00", "0"))
		assert.Equal(t, int(CodeTransactionCancelled), resp.Error)
	})

	t.Run("signed with prepare template", func(t *testing.T) {
		f := prepared(t)
		req := completeRequest(t, "123", "100", "1", "500.00", "0")
		req.SignString, _ = NewSigner(testSecret).Sign(PhasePrepare, req)

		resp := f.domain.Complete(ctx, req)
		assert.Equal(t, int(CodeSignCheckFailed), resp.Error)
		assert.Equal(t, model.PaymentStatusPending, f.payment(t, 1).Status)
	})
}

func TestCode_Note(t *testing.T) {
	assert.Equal(t, "SIGN CHECK FAILED!", CodeSignCheckFailed.Note())
	assert.Equal(t, "Unknown error", Code(-100).Note())
}
