package inbound

import "github.com/gin-gonic/gin"

// ClickHttpPort defines HTTP handler interface for the Click protocol.
type ClickHttpPort interface {
	// Prepare handles POST /click/prepare
	// Verifies the request and binds the Click transaction to the payment.
	Prepare(c *gin.Context)

	// Complete handles POST /click/complete
	// Finalizes the payment.
	Complete(c *gin.Context)
}

// PaymeHttpPort defines HTTP handler interface for the Payme protocol.
type PaymeHttpPort interface {
	// Handle handles POST /payme
	// Dispatches one JSON-RPC request.
	Handle(c *gin.Context)
}

// PaymentHttpPort defines HTTP handler interface for checkout-facing payment operations.
type PaymentHttpPort interface {
	// CreatePayment handles POST /payments
	// Opens a pending payment for an order.
	CreatePayment(c *gin.Context)

	// GetPayment handles GET /payments/:id
	// Returns payment details by ID.
	GetPayment(c *gin.Context)

	// GetPaymentByOrder handles GET /payments?order_id=
	// Returns the payment of an order.
	GetPaymentByOrder(c *gin.Context)
}
