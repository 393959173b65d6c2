package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/uniedit/paygate/internal/domain/click"
	"github.com/uniedit/paygate/internal/model"
	"github.com/uniedit/paygate/internal/port/inbound"
)

// clickAdapter implements inbound.ClickHttpPort.
type clickAdapter struct {
	domain click.ClickDomain
}

// NewClickAdapter creates a new Click HTTP adapter.
func NewClickAdapter(domain click.ClickDomain) inbound.ClickHttpPort {
	return &clickAdapter{domain: domain}
}

// RegisterClickRoutes registers Click routes.
func RegisterClickRoutes(r gin.IRouter, adapter inbound.ClickHttpPort) {
	routes := r.Group("/click")
	{
		routes.POST("/prepare", adapter.Prepare)
		routes.POST("/complete", adapter.Complete)
	}
}

func (a *clickAdapter) Prepare(c *gin.Context) {
	req, ok := bindClickRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.domain.Prepare(c.Request.Context(), req))
}

func (a *clickAdapter) Complete(c *gin.Context) {
	req, ok := bindClickRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.domain.Complete(c.Request.Context(), req))
}

// bindClickRequest reads the form body, falling back to the query string.
// An unparseable body is answered with a BadRequest envelope.
func bindClickRequest(c *gin.Context) (*model.ClickRequest, bool) {
	var req model.ClickRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, &model.ClickResponse{
			Error:     int(click.CodeBadRequest),
			ErrorNote: click.CodeBadRequest.Note(),
		})
		return nil, false
	}
	return &req, true
}

// Compile-time check
var _ inbound.ClickHttpPort = (*clickAdapter)(nil)
