package payme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uniedit/paygate/internal/domain/payment"
	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/outbound"
	"github.com/uniedit/paygate/internal/utils/metrics"
	"go.uber.org/zap"
)

// DefaultAccountField is the account field carrying the order id.
const DefaultAccountField = "order_id"

// PaymeDomain implements the Payme JSON-RPC merchant API.
type PaymeDomain interface {
	// Handle authenticates and dispatches one JSON-RPC request.
	// It always returns a response envelope, never a transport error.
	Handle(ctx context.Context, authHeader string, body []byte) *model.PaymeResponse
}

// Config holds Payme merchant settings.
type Config struct {
	Key          string
	AccountField string
}

// handlerFunc handles the params of one method.
type handlerFunc func(d *paymeDomain, ctx context.Context, params json.RawMessage) (any, *Error)

// handlers is indexed by Method; every method has exactly one handler.
var handlers = [methodCount]handlerFunc{
	MethodCheckPerformTransaction: (*paymeDomain).checkPerformTransaction,
	MethodCreateTransaction:       (*paymeDomain).createTransaction,
	MethodPerformTransaction:      (*paymeDomain).performTransaction,
	MethodCancelTransaction:       (*paymeDomain).cancelTransaction,
	MethodCheckTransaction:        (*paymeDomain).checkTransaction,
	MethodGetStatement:            (*paymeDomain).getStatement,
}

// paymeDomain implements PaymeDomain.
type paymeDomain struct {
	payments     payment.PaymentDomain
	orders       outbound.OrderReaderPort
	auth         *Authenticator
	accountField string
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewPaymeDomain creates a new Payme protocol domain.
// orders may be nil, in which case the order system is not consulted.
func NewPaymeDomain(
	payments payment.PaymentDomain,
	orders outbound.OrderReaderPort,
	cfg Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) PaymeDomain {
	if cfg.AccountField == "" {
		cfg.AccountField = DefaultAccountField
	}
	return &paymeDomain{
		payments:     payments,
		orders:       orders,
		auth:         NewAuthenticator(cfg.Key),
		accountField: cfg.AccountField,
		metrics:      m,
		logger:       logger.Named("payme"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (d *paymeDomain) Handle(ctx context.Context, authHeader string, body []byte) (resp *model.PaymeResponse) {
	var req model.PaymeRequest
	method := "unknown"

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("payme handler panic",
				zap.String("method", method),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			resp = errorResponse(req.ID, ErrSystem)
		}
		code := 0
		if resp.Error != nil {
			code = resp.Error.Code
		}
		d.metrics.RecordProviderOperation("payme", method, code)
	}()

	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse(nil, ErrParse)
	}
	if !d.auth.Verify(authHeader) {
		d.logger.Warn("authorization failed", zap.String("method", req.Method))
		return errorResponse(req.ID, ErrInvalidAuthorization)
	}
	if req.Method == "" || isEmpty(req.Params) {
		return errorResponse(req.ID, ErrInvalidRequest)
	}

	m, ok := ParseMethod(req.Method)
	if !ok {
		return errorResponse(req.ID, ErrMethodNotFound.WithData(req.Method))
	}
	method = m.String()

	result, perr := handlers[m](d, ctx, req.Params)
	if perr != nil {
		d.logger.Debug("payme method rejected",
			zap.String("method", method),
			zap.Int("code", perr.Code),
			zap.String("data", perr.Data),
		)
		return errorResponse(req.ID, perr)
	}
	return &model.PaymeResponse{JSONRPC: model.PaymeJSONRPCVersion, ID: req.ID, Result: result}
}

// --- Methods ---

func (d *paymeDomain) checkPerformTransaction(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var params model.PaymeCheckPerformParams
	if perr := decodeParams(raw, &params); perr != nil {
		return nil, perr
	}
	orderID, perr := d.orderID(params.Account)
	if perr != nil {
		return nil, perr
	}

	p, err := d.payments.Get(ctx, payment.ByOrderID(orderID))
	if err != nil {
		if payment.KindOf(err) == payment.ErrNotFound {
			return nil, ErrOrderNotFound.WithData(d.accountField)
		}
		return nil, d.systemError(MethodCheckPerformTransaction, err)
	}
	if p.Provider != model.PaymentProviderPayme {
		return nil, ErrOrderNotFound.WithData(d.accountField)
	}
	if !amountMatches(params.Amount, p) {
		return nil, ErrInvalidAmount
	}
	if p.Status != model.PaymentStatusPending {
		return nil, ErrCannotPerform
	}

	if d.orders != nil {
		exists, err := d.orders.OrderExists(ctx, orderID)
		if err != nil {
			return nil, d.systemError(MethodCheckPerformTransaction, err)
		}
		if !exists {
			return nil, ErrOrderNotFound.WithData(d.accountField)
		}
	}

	return &model.PaymeCheckPerformResult{Allow: true}, nil
}

func (d *paymeDomain) createTransaction(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var params model.PaymeCreateParams
	if perr := decodeParams(raw, &params); perr != nil {
		return nil, perr
	}
	if params.ID == "" {
		return nil, ErrInvalidRequest.WithData("id")
	}
	orderID, perr := d.orderID(params.Account)
	if perr != nil {
		return nil, perr
	}

	p, err := d.payments.Transition(ctx, payment.ByOrderID(orderID), func(p *model.Payment) (bool, error) {
		if p.Provider != model.PaymentProviderPayme {
			return false, payment.ErrProviderMismatch
		}
		if p.Status != model.PaymentStatusPending {
			return false, payment.ErrPaymentNotPending
		}
		if p.HasProviderTransaction() {
			return false, payment.ErrProviderTransactionExists
		}
		if !amountMatches(params.Amount, p) {
			return false, payment.ErrAmountMismatch
		}
		p.ProviderTime = params.Time
		return payment.BindProviderTransaction(p, params.ID, d.now())
	})
	if err != nil {
		return nil, d.errorFor(MethodCreateTransaction, err)
	}

	return &model.PaymeCreateResult{
		CreateTime:  model.UnixMilli(p.ProviderCreatedAt),
		Transaction: p.ProviderTxID(),
		State:       StatePending,
	}, nil
}

func (d *paymeDomain) performTransaction(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var params model.PaymeTransactionParams
	if perr := decodeParams(raw, &params); perr != nil {
		return nil, perr
	}

	p, err := d.payments.Transition(ctx, d.ref(params.ID), func(p *model.Payment) (bool, error) {
		if p.Status == model.PaymentStatusSuccess {
			return false, nil
		}
		if p.Status != model.PaymentStatusPending {
			return false, payment.ErrPaymentNotPending
		}
		return true, payment.Transition(p, model.PaymentStatusSuccess, d.now())
	})
	if err != nil {
		return nil, d.errorFor(MethodPerformTransaction, err)
	}

	return &model.PaymePerformResult{
		Transaction: p.ProviderTxID(),
		PerformTime: model.UnixMilli(p.PerformedAt),
		State:       StatePerformed,
	}, nil
}

func (d *paymeDomain) cancelTransaction(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var params model.PaymeCancelParams
	if perr := decodeParams(raw, &params); perr != nil {
		return nil, perr
	}

	p, err := d.payments.Transition(ctx, d.ref(params.ID), func(p *model.Payment) (bool, error) {
		if p.Status == model.PaymentStatusCancelled {
			return false, nil
		}
		if p.Status != model.PaymentStatusPending && p.Status != model.PaymentStatusSuccess {
			return false, payment.ErrPaymentNotPending
		}
		p.CancelReason = params.Reason
		return true, payment.Transition(p, model.PaymentStatusCancelled, d.now())
	})
	if err != nil {
		return nil, d.errorFor(MethodCancelTransaction, err)
	}

	return &model.PaymeCancelResult{
		Transaction: p.ProviderTxID(),
		CancelTime:  model.UnixMilli(p.CancelledAt),
		State:       StateCancelled,
		Reason:      p.CancelReason,
	}, nil
}

func (d *paymeDomain) checkTransaction(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var params model.PaymeTransactionParams
	if perr := decodeParams(raw, &params); perr != nil {
		return nil, perr
	}

	p, err := d.payments.Get(ctx, d.ref(params.ID))
	if err != nil {
		return nil, d.errorFor(MethodCheckTransaction, err)
	}

	return &model.PaymeCheckResult{
		CreateTime:  model.UnixMilli(p.ProviderCreatedAt),
		PerformTime: model.UnixMilli(p.PerformedAt),
		CancelTime:  model.UnixMilli(p.CancelledAt),
		Transaction: p.ProviderTxID(),
		State:       StateOf(p.Status),
		Reason:      p.CancelReason,
	}, nil
}

func (d *paymeDomain) getStatement(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var params model.PaymeStatementParams
	if perr := decodeParams(raw, &params); perr != nil {
		return nil, perr
	}

	payments, err := d.payments.Statement(ctx, model.PaymentProviderPayme, time.UnixMilli(params.From), time.UnixMilli(params.To))
	if err != nil {
		if payment.KindOf(err) == payment.ErrBadRequest {
			return nil, ErrInvalidRequest.WithData("from/to")
		}
		return nil, d.systemError(MethodGetStatement, err)
	}

	result := &model.PaymeStatementResult{
		Transactions: make([]model.PaymeStatementTransaction, 0, len(payments)),
	}
	for _, p := range payments {
		result.Transactions = append(result.Transactions, model.PaymeStatementTransaction{
			ID:          p.ProviderTxID(),
			Time:        p.ProviderTime,
			Amount:      p.Amount.Shift(2).IntPart(),
			Account:     map[string]string{d.accountField: strconv.FormatInt(p.OrderID, 10)},
			CreateTime:  model.UnixMilli(p.ProviderCreatedAt),
			PerformTime: model.UnixMilli(p.PerformedAt),
			CancelTime:  model.UnixMilli(p.CancelledAt),
			Transaction: p.ProviderTxID(),
			State:       StateOf(p.Status),
			Reason:      p.CancelReason,
		})
	}
	return result, nil
}

// --- Helpers ---

func (d *paymeDomain) ref(txID string) payment.Ref {
	return payment.ByProviderTx(model.PaymentProviderPayme, txID)
}

// orderID reads the order id from the account params. Both JSON strings
// and numbers are accepted.
func (d *paymeDomain) orderID(account model.PaymeAccount) (int64, *Error) {
	raw, ok := account[d.accountField]
	if !ok {
		return 0, ErrOrderNotFound.WithData(d.accountField)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, ErrOrderNotFound.WithData(d.accountField)
	}
	id, err := n.Int64()
	if err != nil || id <= 0 {
		return 0, ErrOrderNotFound.WithData(d.accountField)
	}
	return id, nil
}

// errorFor maps engine errors of transaction-scoped methods onto Payme errors.
func (d *paymeDomain) errorFor(m Method, err error) *Error {
	switch {
	case errors.Is(err, payment.ErrAmountMismatch):
		return ErrInvalidAmount
	case errors.Is(err, payment.ErrProviderTransactionExists):
		return ErrTransactionExists
	case errors.Is(err, payment.ErrPaymentNotPending), errors.Is(err, payment.ErrInvalidStatusTransition):
		return ErrCannotPerform
	}

	switch payment.KindOf(err) {
	case payment.ErrNotFound:
		return ErrTransactionNotFound
	case payment.ErrBadRequest:
		return ErrInvalidRequest
	default:
		return d.systemError(m, err)
	}
}

func (d *paymeDomain) systemError(m Method, err error) *Error {
	d.logger.Error("payme method failed", zap.String("method", m.String()), zap.Error(err))
	return ErrSystem
}

// amountMatches compares an amount in tiyin with the payment amount.
func amountMatches(tiyin decimal.Decimal, p *model.Payment) bool {
	return tiyin.Equal(p.Amount.Shift(2))
}

func decodeParams(raw json.RawMessage, v any) *Error {
	if err := json.Unmarshal(raw, v); err != nil {
		return ErrInvalidRequest.WithData(fmt.Sprintf("params: %v", err))
	}
	return nil
}

func isEmpty(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func errorResponse(id json.RawMessage, perr *Error) *model.PaymeResponse {
	return &model.PaymeResponse{JSONRPC: model.PaymeJSONRPCVersion, ID: id, Error: perr.ToModel()}
}
