package gin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uniedit/paygate/internal/domain/payment"
	"github.com/uniedit/paygate/internal/model"
)

// handlePaymentError maps payment errors to HTTP responses.
func handlePaymentError(c *gin.Context, err error) {
	var statusCode int
	var errorCode string
	var message string

	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		statusCode = http.StatusNotFound
		errorCode = "payment_not_found"
		message = "Payment not found"

	case errors.Is(err, payment.ErrPaymentExists):
		statusCode = http.StatusConflict
		errorCode = "payment_exists"
		message = "Order already has a payment"

	case errors.Is(err, payment.ErrInvalidAmount):
		statusCode = http.StatusBadRequest
		errorCode = "invalid_amount"
		message = "Amount must be positive"

	case errors.Is(err, payment.ErrInvalidProvider):
		statusCode = http.StatusBadRequest
		errorCode = "invalid_provider"
		message = "Unsupported payment provider"

	default:
		switch payment.KindOf(err) {
		case payment.ErrBadRequest:
			statusCode = http.StatusBadRequest
			errorCode = "bad_request"
			message = err.Error()
		case payment.ErrNotFound:
			statusCode = http.StatusNotFound
			errorCode = "not_found"
			message = "Not found"
		case payment.ErrConflict:
			statusCode = http.StatusConflict
			errorCode = "conflict"
			message = err.Error()
		default:
			_ = c.Error(err)
			statusCode = http.StatusInternalServerError
			errorCode = "internal_error"
			message = "Internal server error"
		}
	}

	c.JSON(statusCode, model.ErrorResponse{
		Code:    errorCode,
		Message: message,
	})
}
