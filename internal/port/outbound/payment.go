package outbound

import (
	"context"
	"time"

	"github.com/uniedit/paygate/internal/model"
)

// PaymentDatabasePort defines payment persistence operations.
type PaymentDatabasePort interface {
	// Create stores a new payment record.
	// Returns ErrDuplicate if the order already has a payment.
	Create(ctx context.Context, payment *model.Payment) error

	// FindByID finds a payment by its internal ID.
	FindByID(ctx context.Context, id int64) (*model.Payment, error)

	// FindByOrderID finds the payment of an order.
	FindByOrderID(ctx context.Context, orderID int64) (*model.Payment, error)

	// FindByProviderTransactionID finds a payment by the provider-side transaction ID.
	FindByProviderTransactionID(ctx context.Context, provider model.PaymentProvider, txID string) (*model.Payment, error)

	// ListByProviderCreatedRange lists payments of a provider whose provider
	// transaction was bound within [from, to].
	ListByProviderCreatedRange(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error)

	// Save persists the whole aggregate if the stored version equals payment.Version.
	// On success payment.Version is bumped. Returns ErrConflict on a version
	// mismatch and ErrDuplicate when the provider transaction ID is taken.
	Save(ctx context.Context, payment *model.Payment) error
}

// EventPublisherPort publishes payment domain events.
type EventPublisherPort interface {
	// PublishSuccess publishes a payment-success event.
	PublishSuccess(ctx context.Context, orderID, paymentID int64) error

	// PublishCancelled publishes a payment-cancelled event.
	PublishCancelled(ctx context.Context, payment *model.Payment) error
}

// OrderReaderPort reads order information from the order system.
type OrderReaderPort interface {
	// OrderExists reports whether the order is known to the order system.
	OrderExists(ctx context.Context, orderID int64) (bool, error)
}
