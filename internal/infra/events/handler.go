package events

import (
	"fmt"

	sharedevents "github.com/uniedit/paygate/internal/shared/events"
	"go.uber.org/zap"
)

// Handler is the interface for in-process event handlers.
type Handler interface {
	// Handles returns the list of event types this handler can process.
	Handles() []string

	// Handle processes the given event. Handlers must be idempotent:
	// the same event ID may be delivered more than once.
	Handle(event sharedevents.Event) error
}

// HandlerFunc adapts a function to Handler for a fixed set of event types.
type HandlerFunc struct {
	eventTypes []string
	fn         func(sharedevents.Event) error
}

// NewHandlerFunc creates a new HandlerFunc.
func NewHandlerFunc(eventTypes []string, fn func(sharedevents.Event) error) *HandlerFunc {
	return &HandlerFunc{eventTypes: eventTypes, fn: fn}
}

// Handles returns the list of event types this handler can process.
func (h *HandlerFunc) Handles() []string {
	return h.eventTypes
}

// Handle processes the given event.
func (h *HandlerFunc) Handle(event sharedevents.Event) error {
	return h.fn(event)
}

// HandlerPanicError reports a handler that panicked.
type HandlerPanicError struct {
	Value any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("event handler panic: %v", e.Value)
}

// NewAuditHandler returns a handler that writes one audit line per payment event.
func NewAuditHandler(logger *zap.Logger) Handler {
	audit := logger.Named("audit")
	return NewHandlerFunc(
		[]string{sharedevents.PaymentSucceededType, sharedevents.PaymentCancelledType},
		func(event sharedevents.Event) error {
			fields := []zap.Field{
				zap.String("event_id", event.EventID().String()),
				zap.String("event_type", event.EventType()),
				zap.Int64("payment_id", event.AggregateID()),
				zap.Time("occurred_at", event.OccurredAt()),
			}
			switch e := event.(type) {
			case *sharedevents.PaymentSucceededEvent:
				fields = append(fields, zap.Int64("order_id", e.OrderID))
			case *sharedevents.PaymentCancelledEvent:
				fields = append(fields, zap.Int64("order_id", e.OrderID))
				if e.Reason != nil {
					fields = append(fields, zap.Int("reason", *e.Reason))
				}
			}
			audit.Info("payment event", fields...)
			return nil
		},
	)
}
