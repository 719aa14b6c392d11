package handler

import (
	"github.com/gin-gonic/gin"

	catalogservice "gids_backend/internal/catalog/service"
	"gids_backend/internal/leads/service"
	"gids_backend/internal/leads/transport"
	"gids_backend/platform/apperr"
	"gids_backend/platform/httpkit"
)

// PublicHandler serves the unauthenticated intake endpoint. The tenant is
// resolved from the request host, one tenant per served domain.
type PublicHandler struct {
	svc     *service.Service
	catalog *catalogservice.Service
}

func NewPublicHandler(svc *service.Service, catalog *catalogservice.Service) *PublicHandler {
	return &PublicHandler{svc: svc, catalog: catalog}
}

// RegisterRoutes registers public intake routes.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Intake)
}

func (h *PublicHandler) Intake(c *gin.Context) {
	tenant, err := h.catalog.ResolveTenant(c.Request.Context(), c.Request.Host)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	var req transport.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	lead, err := h.svc.Intake(c.Request.Context(), tenant.ID, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, transport.ToLeadResponse(lead))
}
