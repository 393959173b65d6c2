package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/outbound"
	"github.com/uniedit/paygate/internal/shared/events"
	"github.com/uniedit/paygate/internal/utils/metrics"
	"go.uber.org/zap"
)

// DefaultMaxConflictRetries bounds optimistic retries when no limit is configured.
const DefaultMaxConflictRetries = 3

// RefKind selects how a Ref resolves to a payment.
type RefKind int

const (
	RefByID RefKind = iota
	RefByOrderID
	RefByProviderTx
)

// Ref identifies a payment by internal id, order id or provider transaction id.
type Ref struct {
	Kind     RefKind
	ID       int64
	Provider model.PaymentProvider
	TxID     string
}

// ByID references a payment by its internal id.
func ByID(id int64) Ref {
	return Ref{Kind: RefByID, ID: id}
}

// ByOrderID references a payment by its order id.
func ByOrderID(orderID int64) Ref {
	return Ref{Kind: RefByOrderID, ID: orderID}
}

// ByProviderTx references a payment by a provider transaction id.
func ByProviderTx(provider model.PaymentProvider, txID string) Ref {
	return Ref{Kind: RefByProviderTx, Provider: provider, TxID: txID}
}

// String returns a loggable form of the reference.
func (r Ref) String() string {
	switch r.Kind {
	case RefByOrderID:
		return fmt.Sprintf("order:%d", r.ID)
	case RefByProviderTx:
		return fmt.Sprintf("%s:%s", r.Provider, r.TxID)
	default:
		return fmt.Sprintf("id:%d", r.ID)
	}
}

// DecideFunc inspects a working copy of the payment and mutates it in place.
// It reports whether the copy changed. An error aborts the operation
// without persisting anything. It may run more than once when a concurrent
// write wins the race, so it must not have side effects.
type DecideFunc func(p *model.Payment) (bool, error)

// PaymentDomain defines the payment engine interface shared by the provider protocols.
type PaymentDomain interface {
	// Create opens a pending payment for an order.
	Create(ctx context.Context, orderID int64, amount decimal.Decimal, provider model.PaymentProvider) (*model.Payment, error)

	// Get returns the payment a reference resolves to.
	Get(ctx context.Context, ref Ref) (*model.Payment, error)

	// Statement lists payments of a provider whose provider transaction was
	// bound within [from, to].
	Statement(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error)

	// Transition loads the payment, applies decide and persists the result
	// with optimistic concurrency. Success and cancellation events are
	// published after the change is committed.
	Transition(ctx context.Context, ref Ref, decide DecideFunc) (*model.Payment, error)
}

// Config holds engine settings.
type Config struct {
	MaxConflictRetries int
}

// paymentDomain implements PaymentDomain.
type paymentDomain struct {
	paymentDB      outbound.PaymentDatabasePort
	eventPublisher outbound.EventPublisherPort
	idGen          *snowflake.Node
	cfg            Config
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewPaymentDomain creates a new payment domain service.
func NewPaymentDomain(
	paymentDB outbound.PaymentDatabasePort,
	eventPublisher outbound.EventPublisherPort,
	idGen *snowflake.Node,
	cfg Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) PaymentDomain {
	if cfg.MaxConflictRetries <= 0 {
		cfg.MaxConflictRetries = DefaultMaxConflictRetries
	}
	return &paymentDomain{
		paymentDB:      paymentDB,
		eventPublisher: eventPublisher,
		idGen:          idGen,
		cfg:            cfg,
		metrics:        m,
		logger:         logger.Named("payment"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (d *paymentDomain) Create(ctx context.Context, orderID int64, amount decimal.Decimal, provider model.PaymentProvider) (*model.Payment, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order id must be positive", ErrBadRequest)
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !provider.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, provider)
	}

	now := d.now()
	p := &model.Payment{
		ID:        d.idGen.Generate().Int64(),
		OrderID:   orderID,
		Amount:    amount.Round(2),
		Status:    model.PaymentStatusPending,
		Provider:  provider,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := d.paymentDB.Create(ctx, p); err != nil {
		if errors.Is(err, outbound.ErrDuplicate) {
			return nil, ErrPaymentExists
		}
		return nil, fmt.Errorf("%w: create payment: %v", ErrSystem, err)
	}

	d.logger.Info("payment created",
		zap.Int64("payment_id", p.ID),
		zap.Int64("order_id", orderID),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("provider", string(provider)),
	)
	return p, nil
}

func (d *paymentDomain) Get(ctx context.Context, ref Ref) (*model.Payment, error) {
	return d.load(ctx, ref)
}

func (d *paymentDomain) Statement(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", ErrBadRequest)
	}
	payments, err := d.paymentDB.ListByProviderCreatedRange(ctx, provider, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: list payments: %v", ErrSystem, err)
	}
	return payments, nil
}

func (d *paymentDomain) Transition(ctx context.Context, ref Ref, decide DecideFunc) (*model.Payment, error) {
	for attempt := 0; ; attempt++ {
		current, err := d.load(ctx, ref)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		changed, err := decide(next)
		if err != nil {
			return nil, err
		}
		if !changed {
			return current, nil
		}
		if next.Status != current.Status && !CanTransition(current.Status, next.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, next.Status)
		}

		next.UpdatedAt = d.now()
		err = d.paymentDB.Save(ctx, next)
		switch {
		case err == nil:
			d.afterCommit(ctx, current, next)
			return next, nil
		case errors.Is(err, outbound.ErrConflict):
			d.metrics.RecordConflictRetry()
			if attempt >= d.cfg.MaxConflictRetries {
				d.logger.Warn("conflict retries exhausted",
					zap.Stringer("ref", ref),
					zap.Int("attempts", attempt+1),
				)
				return nil, ErrRetriesExhausted
			}
			d.logger.Debug("version conflict, reloading",
				zap.Stringer("ref", ref),
				zap.Int("attempt", attempt+1),
			)
		case errors.Is(err, outbound.ErrDuplicate):
			return nil, ErrProviderTransactionExists
		default:
			return nil, fmt.Errorf("%w: save payment: %v", ErrSystem, err)
		}
	}
}

func (d *paymentDomain) load(ctx context.Context, ref Ref) (*model.Payment, error) {
	var (
		p   *model.Payment
		err error
	)
	switch ref.Kind {
	case RefByID:
		p, err = d.paymentDB.FindByID(ctx, ref.ID)
	case RefByOrderID:
		p, err = d.paymentDB.FindByOrderID(ctx, ref.ID)
	case RefByProviderTx:
		if ref.TxID == "" {
			return nil, fmt.Errorf("%w: empty provider transaction id", ErrBadRequest)
		}
		p, err = d.paymentDB.FindByProviderTransactionID(ctx, ref.Provider, ref.TxID)
	default:
		return nil, fmt.Errorf("%w: unknown reference kind %d", ErrBadRequest, ref.Kind)
	}
	if errors.Is(err, outbound.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load payment %s: %v", ErrSystem, ref, err)
	}
	return p, nil
}

// afterCommit records the transition and publishes the matching event.
// Publish failures never undo the committed change.
func (d *paymentDomain) afterCommit(ctx context.Context, before, after *model.Payment) {
	if before.Status == after.Status {
		return
	}
	d.metrics.RecordTransition(string(before.Status), string(after.Status))
	d.logger.Info("payment status changed",
		zap.Int64("payment_id", after.ID),
		zap.Int64("order_id", after.OrderID),
		zap.String("from", string(before.Status)),
		zap.String("to", string(after.Status)),
	)

	// The change is final even if the caller goes away now.
	ctx = context.WithoutCancel(ctx)

	var (
		event string
		err   error
	)
	switch after.Status {
	case model.PaymentStatusSuccess:
		event = events.RoutingKeyPaymentSuccess
		err = d.eventPublisher.PublishSuccess(ctx, after.OrderID, after.ID)
	case model.PaymentStatusCancelled:
		event = events.RoutingKeyPaymentCancelled
		err = d.eventPublisher.PublishCancelled(ctx, after)
	default:
		return
	}

	d.metrics.RecordEventPublish(event, err)
	if err != nil {
		d.logger.Error("failed to publish payment event",
			zap.String("event", event),
			zap.Int64("payment_id", after.ID),
			zap.Int64("order_id", after.OrderID),
			zap.Error(err),
		)
	}
}
