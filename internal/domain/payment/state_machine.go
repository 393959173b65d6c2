package payment

import (
	"fmt"
	"time"

	"github.com/uniedit/paygate/internal/model"
)

// transitions defines valid status transitions.
var transitions = map[model.PaymentStatus][]model.PaymentStatus{
	model.PaymentStatusPending:   {model.PaymentStatusSuccess, model.PaymentStatusFailed, model.PaymentStatusCancelled},
	model.PaymentStatusSuccess:   {model.PaymentStatusCancelled}, // refund-style reversal
	model.PaymentStatusFailed:    {},                             // Terminal state
	model.PaymentStatusCancelled: {},                             // Terminal state
}

// CanTransition checks if a transition from one status to another is valid.
func CanTransition(from, to model.PaymentStatus) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == to {
			return true
		}
	}
	return false
}

// Transition moves p to the target status and stamps the matching timestamp.
func Transition(p *model.Payment, to model.PaymentStatus, now time.Time) error {
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, p.Status, to)
	}
	p.Status = to
	switch to {
	case model.PaymentStatusSuccess:
		p.PerformedAt = &now
	case model.PaymentStatusCancelled, model.PaymentStatusFailed:
		p.CancelledAt = &now
	}
	p.UpdatedAt = now
	return nil
}

// BindProviderTransaction attaches a provider transaction id to p.
// The first bound id wins; binding the same id again is a no-op and
// reports false.
func BindProviderTransaction(p *model.Payment, txID string, now time.Time) (bool, error) {
	if p.HasProviderTransaction() {
		if p.ProviderTxID() == txID {
			return false, nil
		}
		return false, ErrProviderTransactionExists
	}
	p.ProviderTransactionID = &txID
	p.ProviderCreatedAt = &now
	p.UpdatedAt = now
	return true, nil
}
