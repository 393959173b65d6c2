package payment

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of these;
// protocol adapters translate kinds into their own wire codes.
var (
	// ErrBadRequest marks malformed or missing input.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized marks a failed signature or credential check.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound marks an unknown order or transaction.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an invalid transition, amount mismatch or lost race.
	ErrConflict = errors.New("conflict")

	// ErrSystem marks an unexpected internal failure.
	ErrSystem = errors.New("system error")
)

var (
	// ErrPaymentNotFound is returned when a payment reference does not resolve.
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)

	// ErrProviderMismatch is returned when a payment belongs to another provider.
	ErrProviderMismatch = fmt.Errorf("%w: payment belongs to another provider", ErrNotFound)

	// ErrAmountMismatch is returned when the provider asserts a different amount.
	ErrAmountMismatch = fmt.Errorf("%w: amount mismatch", ErrConflict)

	// ErrInvalidStatusTransition is returned when a status transition is invalid.
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)

	// ErrPaymentNotPending is returned when an operation requires a pending payment.
	ErrPaymentNotPending = fmt.Errorf("%w: payment is not pending", ErrConflict)

	// ErrProviderTransactionExists is returned when a provider transaction
	// is already bound to the payment or to another payment.
	ErrProviderTransactionExists = fmt.Errorf("%w: provider transaction already exists", ErrConflict)

	// ErrPaymentExists is returned when the order already has a payment.
	ErrPaymentExists = fmt.Errorf("%w: payment already exists for order", ErrConflict)

	// ErrInvalidAmount is returned when a payment amount is not positive.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrBadRequest)

	// ErrInvalidProvider is returned for an unsupported provider.
	ErrInvalidProvider = fmt.Errorf("%w: unsupported provider", ErrBadRequest)

	// ErrRetriesExhausted is returned when optimistic retries run out.
	ErrRetriesExhausted = fmt.Errorf("%w: conflict retries exhausted", ErrSystem)
)

var kinds = []error{ErrBadRequest, ErrUnauthorized, ErrNotFound, ErrConflict, ErrSystem}

// KindOf returns the error kind err belongs to.
// Errors that wrap no known kind are treated as ErrSystem.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrSystem
}
