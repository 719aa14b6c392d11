package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gids_backend/internal/leads/repository"
	"gids_backend/internal/leads/service"
	"gids_backend/internal/leads/transport"
	"gids_backend/platform/apperr"
	"gids_backend/platform/httpkit"
)

// Handler handles authenticated lead administration requests.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers lead admin routes on a protected group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:leadId", h.GetByID)
	rg.POST("/:leadId/lost", h.MarkLost)
	rg.POST("/:leadId/archive", h.Archive)
}

func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	params := repository.LeadListParams{
		TenantID:        identity.TenantID(),
		Status:          c.Query("status"),
		IncludeArchived: c.Query("includeArchived") == "true",
	}
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "25"))

	result, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadListResponse(result))
}

func (h *Handler) GetByID(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead id"))
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), id, identity.TenantID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) MarkLost(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead id"))
		return
	}

	if err := h.svc.MarkLost(c.Request.Context(), id, identity.TenantID()); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"status": repository.StatusLost})
}

func (h *Handler) Archive(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead id"))
		return
	}

	if err := h.svc.Archive(c.Request.Context(), id, identity.TenantID()); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"archived": true})
}
