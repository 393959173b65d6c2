package gin

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uniedit/paygate/internal/domain/payme"
	"github.com/uniedit/paygate/internal/port/inbound"
)

// maxPaymeBody bounds a JSON-RPC request body.
const maxPaymeBody = 1 << 20

// paymeAdapter implements inbound.PaymeHttpPort.
type paymeAdapter struct {
	domain payme.PaymeDomain
}

// NewPaymeAdapter creates a new Payme HTTP adapter.
func NewPaymeAdapter(domain payme.PaymeDomain) inbound.PaymeHttpPort {
	return &paymeAdapter{domain: domain}
}

// RegisterPaymeRoutes registers Payme routes.
func RegisterPaymeRoutes(r gin.IRouter, adapter inbound.PaymeHttpPort) {
	r.POST("/payme", adapter.Handle)
}

// Handle always answers 200; failures travel in the JSON-RPC error object.
func (a *paymeAdapter) Handle(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPaymeBody))
	if err != nil {
		_ = c.Error(err)
		body = nil
	}

	resp := a.domain.Handle(c.Request.Context(), c.GetHeader("Authorization"), body)
	c.JSON(http.StatusOK, resp)
}

// Compile-time check
var _ inbound.PaymeHttpPort = (*paymeAdapter)(nil)
