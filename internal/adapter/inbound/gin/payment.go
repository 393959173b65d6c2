package gin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uniedit/paygate/internal/domain/payment"
	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/inbound"
)

// paymentAdapter implements inbound.PaymentHttpPort.
type paymentAdapter struct {
	domain payment.PaymentDomain
}

// NewPaymentAdapter creates a new payment HTTP adapter.
func NewPaymentAdapter(domain payment.PaymentDomain) inbound.PaymentHttpPort {
	return &paymentAdapter{domain: domain}
}

// RegisterPaymentRoutes registers checkout-facing payment routes.
// Extra handlers (CORS, rate limiting, idempotency) run before the routes.
func RegisterPaymentRoutes(r gin.IRouter, adapter inbound.PaymentHttpPort, handlers ...gin.HandlerFunc) {
	payments := r.Group("/payments", handlers...)
	{
		payments.POST("", adapter.CreatePayment)
		payments.GET("", adapter.GetPaymentByOrder)
		payments.GET("/:id", adapter.GetPayment)
	}
}

func (a *paymentAdapter) CreatePayment(c *gin.Context) {
	var req model.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    "invalid_input",
			Message: err.Error(),
		})
		return
	}

	p, err := a.domain.Create(c.Request.Context(), req.OrderID, req.Amount, req.Provider)
	if err != nil {
		handlePaymentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.NewPaymentResponse(p))
}

func (a *paymentAdapter) GetPayment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    "invalid_id",
			Message: "invalid payment ID",
		})
		return
	}

	a.respond(c, payment.ByID(id))
}

func (a *paymentAdapter) GetPaymentByOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Query("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Code:    "invalid_order_id",
			Message: "order_id query parameter is required",
		})
		return
	}

	a.respond(c, payment.ByOrderID(orderID))
}

func (a *paymentAdapter) respond(c *gin.Context, ref payment.Ref) {
	p, err := a.domain.Get(c.Request.Context(), ref)
	if err != nil {
		handlePaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewPaymentResponse(p))
}

// Compile-time check
var _ inbound.PaymentHttpPort = (*paymentAdapter)(nil)
