package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gids_backend/internal/activity/repository"
	"gids_backend/platform/apperr"
	"gids_backend/platform/httpkit"
)

// Handler exposes the lead timeline over HTTP.
type Handler struct {
	repo repository.Repository
}

func New(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers timeline routes on a protected group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads/:leadId/timeline", h.ListTimeline)
}

// ListTimeline returns a lead's recorded events in order of occurrence.
func (h *Handler) ListTimeline(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead id"))
		return
	}

	entries, err := h.repo.ListByLead(c.Request.Context(), leadID, identity.TenantID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	if entries == nil {
		entries = []repository.Entry{}
	}
	httpkit.OK(c, gin.H{"items": entries})
}
