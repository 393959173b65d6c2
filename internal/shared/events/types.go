package events

import "time"

// Payment event type constants.
const (
	PaymentSucceededType = "PaymentSucceeded"
	PaymentCancelledType = "PaymentCancelled"
)

// Message bus routing keys consumed by order fulfillment.
const (
	RoutingKeyPaymentSuccess   = "payment.success"
	RoutingKeyPaymentCancelled = "payment.cancelled"
)

// PaymentSucceededEvent is emitted when a payment reaches SUCCESS.
// This is defined in the events package to avoid cyclic imports.
type PaymentSucceededEvent struct {
	BaseEvent

	// OrderID is the ID of the order this payment is for.
	OrderID int64 `json:"orderId"`

	// PaymentID is the unique identifier of the payment.
	PaymentID int64 `json:"paymentId"`
}

// NewPaymentSucceededEvent creates a new PaymentSucceededEvent.
func NewPaymentSucceededEvent(orderID, paymentID int64, at time.Time) *PaymentSucceededEvent {
	return &PaymentSucceededEvent{
		BaseEvent: NewBaseEvent(PaymentSucceededType, RoutingKeyPaymentSuccess, paymentID, at),
		OrderID:   orderID,
		PaymentID: paymentID,
	}
}

// PaymentCancelledEvent is emitted when a payment reaches CANCELLED,
// including a refund-style reversal of a successful payment.
type PaymentCancelledEvent struct {
	BaseEvent

	// OrderID is the ID of the order this payment was for.
	OrderID int64 `json:"orderId"`

	// PaymentID is the unique identifier of the payment.
	PaymentID int64 `json:"paymentId"`

	// Reason is the provider cancel reason code, if any.
	Reason *int `json:"reason"`
}

// NewPaymentCancelledEvent creates a new PaymentCancelledEvent.
func NewPaymentCancelledEvent(orderID, paymentID int64, reason *int, at time.Time) *PaymentCancelledEvent {
	return &PaymentCancelledEvent{
		BaseEvent: NewBaseEvent(PaymentCancelledType, RoutingKeyPaymentCancelled, paymentID, at),
		OrderID:   orderID,
		PaymentID: paymentID,
		Reason:    reason,
	}
}
