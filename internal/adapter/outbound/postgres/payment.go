package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/outbound"
	"gorm.io/gorm"
)

// paymentAdapter implements outbound.PaymentDatabasePort.
type paymentAdapter struct {
	db *gorm.DB
}

// NewPaymentAdapter creates a new payment database adapter.
// The gorm.DB must be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
func NewPaymentAdapter(db *gorm.DB) outbound.PaymentDatabasePort {
	return &paymentAdapter{db: db}
}

func (a *paymentAdapter) Create(ctx context.Context, payment *model.Payment) error {
	if err := a.db.WithContext(ctx).Create(payment).Error; err != nil {
		return mapError("create payment", err)
	}
	return nil
}

func (a *paymentAdapter) FindByID(ctx context.Context, id int64) (*model.Payment, error) {
	return a.first(ctx, "find payment by id", "id = ?", id)
}

func (a *paymentAdapter) FindByOrderID(ctx context.Context, orderID int64) (*model.Payment, error) {
	return a.first(ctx, "find payment by order", "order_id = ?", orderID)
}

func (a *paymentAdapter) FindByProviderTransactionID(ctx context.Context, provider model.PaymentProvider, txID string) (*model.Payment, error) {
	return a.first(ctx, "find payment by provider transaction",
		"provider = ? AND provider_transaction_id = ?", provider, txID)
}

func (a *paymentAdapter) ListByProviderCreatedRange(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := a.db.WithContext(ctx).
		Where("provider = ? AND provider_created_at BETWEEN ? AND ?", provider, from, to).
		Order("provider_created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list payments by provider range: %w", err)
	}
	return payments, nil
}

func (a *paymentAdapter) Save(ctx context.Context, payment *model.Payment) error {
	result := a.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND version = ?", payment.ID, payment.Version).
		Updates(map[string]any{
			"status":                  payment.Status,
			"amount":                  payment.Amount,
			"provider_transaction_id": payment.ProviderTransactionID,
			"provider_time":           payment.ProviderTime,
			"provider_created_at":     payment.ProviderCreatedAt,
			"performed_at":            payment.PerformedAt,
			"cancelled_at":            payment.CancelledAt,
			"cancel_reason":           payment.CancelReason,
			"updated_at":              payment.UpdatedAt,
			"version":                 payment.Version + 1,
		})
	if result.Error != nil {
		return mapError("save payment", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the row is gone or another writer bumped the version.
		var count int64
		if err := a.db.WithContext(ctx).Model(&model.Payment{}).Where("id = ?", payment.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		if count == 0 {
			return outbound.ErrNotFound
		}
		return outbound.ErrConflict
	}

	payment.Version++
	return nil
}

func (a *paymentAdapter) first(ctx context.Context, op, query string, args ...any) (*model.Payment, error) {
	var payment model.Payment
	if err := a.db.WithContext(ctx).Where(query, args...).First(&payment).Error; err != nil {
		return nil, mapError(op, err)
	}
	return &payment, nil
}

// mapError translates gorm errors into store errors.
func mapError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return outbound.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return outbound.ErrDuplicate
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Compile-time check
var _ outbound.PaymentDatabasePort = (*paymentAdapter)(nil)
