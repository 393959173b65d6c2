package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// IsTerminal returns true if the status is a terminal state.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// IsPending returns true if the status is pending.
func (s PaymentStatus) IsPending() bool {
	return s == PaymentStatusPending
}

// IsValid reports whether s is one of the known statuses.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// PaymentProvider identifies the protocol that created a payment.
type PaymentProvider string

const (
	PaymentProviderClick PaymentProvider = "CLICK"
	PaymentProviderPayme PaymentProvider = "PAYME"
)

// IsValid reports whether p is a supported provider.
func (p PaymentProvider) IsValid() bool {
	return p == PaymentProviderClick || p == PaymentProviderPayme
}

// Payment is the payment aggregate.
type Payment struct {
	ID                    int64           `json:"id" gorm:"primaryKey;autoIncrement:false"`
	OrderID               int64           `json:"order_id" gorm:"not null;uniqueIndex"`
	Amount                decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	Status                PaymentStatus   `json:"status" gorm:"type:varchar(16);not null;default:PENDING;index"`
	Provider              PaymentProvider `json:"provider" gorm:"type:varchar(16);not null;index"`
	ProviderTransactionID *string         `json:"provider_transaction_id,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	ProviderTime          int64           `json:"provider_time,omitempty"`
	ProviderCreatedAt     *time.Time      `json:"provider_created_at,omitempty" gorm:"index"`
	PerformedAt           *time.Time      `json:"performed_at,omitempty"`
	CancelledAt           *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason          *int            `json:"cancel_reason,omitempty"`
	Version               int64           `json:"-" gorm:"not null;default:0"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Payment) TableName() string {
	return "payments"
}

// HasProviderTransaction reports whether a provider transaction id is bound.
func (p *Payment) HasProviderTransaction() bool {
	return p.ProviderTransactionID != nil && *p.ProviderTransactionID != ""
}

// ProviderTxID returns the bound provider transaction id or "".
func (p *Payment) ProviderTxID() string {
	if p.ProviderTransactionID == nil {
		return ""
	}
	return *p.ProviderTransactionID
}

// Clone returns a deep copy of the payment.
func (p *Payment) Clone() *Payment {
	c := *p
	if p.ProviderTransactionID != nil {
		v := *p.ProviderTransactionID
		c.ProviderTransactionID = &v
	}
	if p.ProviderCreatedAt != nil {
		v := *p.ProviderCreatedAt
		c.ProviderCreatedAt = &v
	}
	if p.PerformedAt != nil {
		v := *p.PerformedAt
		c.PerformedAt = &v
	}
	if p.CancelledAt != nil {
		v := *p.CancelledAt
		c.CancelledAt = &v
	}
	if p.CancelReason != nil {
		v := *p.CancelReason
		c.CancelReason = &v
	}
	return &c
}

// UnixMilli converts an optional timestamp to epoch milliseconds, 0 when unset.
func UnixMilli(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

// --- Request/Response DTOs ---

// CreatePaymentRequest represents a checkout request to open a payment.
type CreatePaymentRequest struct {
	OrderID  int64           `json:"order_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Provider PaymentProvider `json:"provider" binding:"required,oneof=CLICK PAYME"`
}

// PaymentResponse is the checkout-facing view of a payment.
type PaymentResponse struct {
	ID       int64           `json:"id,string"`
	OrderID  int64           `json:"order_id"`
	Amount   decimal.Decimal `json:"amount"`
	Status   PaymentStatus   `json:"status"`
	Provider PaymentProvider `json:"provider"`
}

// NewPaymentResponse builds a PaymentResponse from a payment.
func NewPaymentResponse(p *Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:       p.ID,
		OrderID:  p.OrderID,
		Amount:   p.Amount,
		Status:   p.Status,
		Provider: p.Provider,
	}
}
