package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/outbound"
	sharedevents "github.com/uniedit/paygate/internal/shared/events"
	"go.uber.org/zap"
)

// Publisher implements outbound.EventPublisherPort. Events go to the
// in-process bus first and are then written to the message bus.
type Publisher struct {
	bus      *Bus
	messages outbound.MessagePort
	logger   *zap.Logger
	now      func() time.Time
}

// NewPublisher creates a new payment event publisher.
// messages may be nil, in which case events stay in-process.
func NewPublisher(bus *Bus, messages outbound.MessagePort, logger *zap.Logger) *Publisher {
	return &Publisher{
		bus:      bus,
		messages: messages,
		logger:   logger.Named("events"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PublishSuccess publishes a payment-success event.
func (p *Publisher) PublishSuccess(ctx context.Context, orderID, paymentID int64) error {
	return p.publish(ctx, sharedevents.NewPaymentSucceededEvent(orderID, paymentID, p.now()))
}

// PublishCancelled publishes a payment-cancelled event.
func (p *Publisher) PublishCancelled(ctx context.Context, payment *model.Payment) error {
	at := p.now()
	if payment.CancelledAt != nil {
		at = *payment.CancelledAt
	}
	return p.publish(ctx, sharedevents.NewPaymentCancelledEvent(payment.OrderID, payment.ID, payment.CancelReason, at))
}

func (p *Publisher) publish(ctx context.Context, event sharedevents.Event) error {
	p.bus.Publish(event)

	if p.messages == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}

	msg := &outbound.Message{
		ID:         event.EventID().String(),
		Type:       event.EventType(),
		Payload:    payload,
		OccurredAt: event.OccurredAt(),
	}
	if err := p.messages.Publish(ctx, event.RoutingKey(), msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType(), err)
	}

	p.logger.Debug("event published",
		zap.String("event_id", msg.ID),
		zap.String("routing_key", event.RoutingKey()),
	)
	return nil
}

// Compile-time check
var _ outbound.EventPublisherPort = (*Publisher)(nil)
