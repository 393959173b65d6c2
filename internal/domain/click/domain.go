package click

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uniedit/paygate/internal/domain/payment"
	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/utils/metrics"
	"go.uber.org/zap"
)

const (
	actionPrepare  = "0"
	actionComplete = "1"
)

// ClickDomain implements the two-phase Click protocol.
// Operations never fail at the transport level: every outcome is an envelope.
type ClickDomain interface {
	// Prepare verifies a prepare request and binds the Click transaction to the payment.
	Prepare(ctx context.Context, req *model.ClickRequest) *model.ClickResponse

	// Complete verifies a complete request and finalizes the payment.
	Complete(ctx context.Context, req *model.ClickRequest) *model.ClickResponse
}

// Config holds Click merchant settings.
type Config struct {
	ServiceID string
	SecretKey string
}

// clickDomain implements ClickDomain.
type clickDomain struct {
	payments  payment.PaymentDomain
	signer    *Signer
	serviceID string
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewClickDomain creates a new Click protocol domain.
func NewClickDomain(payments payment.PaymentDomain, cfg Config, m *metrics.Metrics, logger *zap.Logger) ClickDomain {
	return &clickDomain{
		payments:  payments,
		signer:    NewSigner(cfg.SecretKey),
		serviceID: cfg.ServiceID,
		metrics:   m,
		logger:    logger.Named("click"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (d *clickDomain) Prepare(ctx context.Context, req *model.ClickRequest) *model.ClickResponse {
	resp := newEnvelope(req)
	code := d.prepare(ctx, req, resp)
	return d.finish("prepare", req, resp, code)
}

func (d *clickDomain) prepare(ctx context.Context, req *model.ClickRequest, resp *model.ClickResponse) Code {
	if code, ok := d.authenticate(PhasePrepare, actionPrepare, req); !ok {
		return code
	}

	orderID, err := strconv.ParseInt(req.MerchantTransID, 10, 64)
	if err != nil {
		return CodeTransactionNotFound
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return CodeInvalidAmount
	}

	p, err := d.payments.Transition(ctx, payment.ByOrderID(orderID), func(p *model.Payment) (bool, error) {
		if p.Provider != model.PaymentProviderClick {
			return false, payment.ErrProviderMismatch
		}
		if p.Status != model.PaymentStatusPending {
			return false, payment.ErrPaymentNotPending
		}
		if !amount.Equal(p.Amount) {
			return false, payment.ErrAmountMismatch
		}
		if p.HasProviderTransaction() {
			return false, nil
		}
		return payment.BindProviderTransaction(p, req.ClickTransID, d.now())
	})
	if err != nil {
		return d.codeFor(err)
	}

	resp.MerchantPrepareID = p.ID
	return CodeSuccess
}

func (d *clickDomain) Complete(ctx context.Context, req *model.ClickRequest) *model.ClickResponse {
	resp := newEnvelope(req)
	code := d.complete(ctx, req, resp)
	return d.finish("complete", req, resp, code)
}

func (d *clickDomain) complete(ctx context.Context, req *model.ClickRequest, resp *model.ClickResponse) Code {
	if code, ok := d.authenticate(PhaseComplete, actionComplete, req); !ok {
		return code
	}

	prepareID, err := strconv.ParseInt(req.MerchantPrepareID, 10, 64)
	if err != nil {
		return CodeTransactionNotFound
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return CodeInvalidAmount
	}
	providerError := 0
	if req.Error != "" {
		if providerError, err = strconv.Atoi(req.Error); err != nil {
			return CodeBadRequest
		}
	}

	p, err := d.payments.Transition(ctx, payment.ByID(prepareID), func(p *model.Payment) (bool, error) {
		if p.Provider != model.PaymentProviderClick {
			return false, payment.ErrProviderMismatch
		}
		if strconv.FormatInt(p.OrderID, 10) != req.MerchantTransID {
			return false, payment.ErrPaymentNotFound
		}
		if p.HasProviderTransaction() && p.ProviderTxID() != req.ClickTransID {
			return false, payment.ErrPaymentNotFound
		}
		if !amount.Equal(p.Amount) {
			return false, payment.ErrAmountMismatch
		}
		if p.Status == model.PaymentStatusSuccess {
			return false, nil
		}
		if p.Status != model.PaymentStatusPending {
			return false, payment.ErrPaymentNotPending
		}

		now := d.now()
		if _, err := payment.BindProviderTransaction(p, req.ClickTransID, now); err != nil {
			return false, err
		}
		if providerError != 0 {
			return true, payment.Transition(p, model.PaymentStatusFailed, now)
		}
		return true, payment.Transition(p, model.PaymentStatusSuccess, now)
	})
	if err != nil {
		return d.codeFor(err)
	}

	if p.Status == model.PaymentStatusFailed {
		d.logger.Info("payment failed by provider",
			zap.Int64("payment_id", p.ID),
			zap.Int("provider_error", providerError),
			zap.String("provider_note", req.ErrorNote),
		)
		return CodeTransactionCancelled
	}

	resp.MerchantConfirmID = p.ID
	return CodeSuccess
}

// authenticate checks the signature, action and service id in that order.
func (d *clickDomain) authenticate(phase Phase, action string, req *model.ClickRequest) (Code, bool) {
	valid, err := d.signer.Verify(phase, req)
	if err != nil {
		d.logger.Debug("malformed request", zap.String("phase", phase.String()), zap.Error(err))
		return CodeBadRequest, false
	}
	if !valid {
		d.logger.Warn("signature check failed",
			zap.String("phase", phase.String()),
			zap.String("click_trans_id", req.ClickTransID),
		)
		return CodeSignCheckFailed, false
	}
	if req.Action != action {
		return CodeActionNotFound, false
	}
	if req.ServiceID != d.serviceID {
		return CodeBadRequest, false
	}
	return CodeSuccess, true
}

// codeFor maps engine errors onto Click codes.
func (d *clickDomain) codeFor(err error) Code {
	switch {
	case errors.Is(err, payment.ErrAmountMismatch):
		return CodeInvalidAmount
	case errors.Is(err, payment.ErrPaymentNotPending):
		return CodeTransactionCancelled
	case errors.Is(err, payment.ErrProviderTransactionExists):
		return CodeBadRequest
	}

	switch payment.KindOf(err) {
	case payment.ErrNotFound:
		return CodeTransactionNotFound
	case payment.ErrBadRequest:
		return CodeBadRequest
	case payment.ErrConflict:
		return CodeTransactionCancelled
	default:
		d.logger.Error("click operation failed", zap.Error(err))
		return CodeFailedToUpdate
	}
}

func (d *clickDomain) finish(op string, req *model.ClickRequest, resp *model.ClickResponse, code Code) *model.ClickResponse {
	resp.Error = int(code)
	resp.ErrorNote = code.Note()
	d.metrics.RecordProviderOperation("click", op, resp.Error)
	d.logger.Debug("click "+op,
		zap.String("click_trans_id", req.ClickTransID),
		zap.String("merchant_trans_id", req.MerchantTransID),
		zap.Int("code", resp.Error),
	)
	return resp
}

func newEnvelope(req *model.ClickRequest) *model.ClickResponse {
	clickTransID, _ := strconv.ParseInt(req.ClickTransID, 10, 64)
	return &model.ClickResponse{
		ClickTransID:    clickTransID,
		MerchantTransID: req.MerchantTransID,
	}
}
