package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gids_backend/internal/matching/service"
	"gids_backend/internal/matching/transport"
	"gids_backend/platform/apperr"
	"gids_backend/platform/httpkit"
)

// Handler exposes the matching engine over HTTP.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers matching routes on a protected group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads/:leadId/plan", h.PlanMatches)
	rg.POST("/leads/:leadId/assignments", h.CreateAssignments)
	rg.GET("/leads/:leadId/assignments", h.ListByLead)
	rg.GET("/assignments/:assignmentId", h.GetAssignment)
	rg.POST("/assignments/:assignmentId/respond", h.Respond)
	rg.POST("/sweep", h.Sweep)
}

// PlanMatches computes a match plan without persisting anything, so
// operators can preview distribution before committing it.
func (h *Handler) PlanMatches(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead id"))
		return
	}

	plan, err := h.svc.PlanMatches(c.Request.Context(), leadID, identity.TenantID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToPlanResponse(plan))
}

func (h *Handler) CreateAssignments(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead id"))
		return
	}

	var req transport.CreateAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	result, err := h.svc.CreateAssignments(c.Request.Context(), leadID, identity.TenantID(), req.ToBatchEntries())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, transport.ToCreateAssignmentsResponse(result))
}

func (h *Handler) ListByLead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead id"))
		return
	}

	assignments, err := h.svc.ListByLead(c.Request.Context(), leadID, identity.TenantID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	out := make([]transport.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, transport.ToAssignmentResponse(a))
	}
	httpkit.OK(c, gin.H{"items": out})
}

func (h *Handler) GetAssignment(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid assignment id"))
		return
	}

	assignment, err := h.svc.GetAssignment(c.Request.Context(), id, identity.TenantID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToAssignmentResponse(assignment))
}

func (h *Handler) Respond(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	id, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid assignment id"))
		return
	}

	var req transport.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	result, err := h.svc.RespondToAssignment(c.Request.Context(), id, identity.TenantID(), req.Action, req.Reason, req.Notes)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToRespondResponse(result))
}

// Sweep expires stale offers on demand; the scheduler runs the same
// operation periodically. The body may carry an explicit window, otherwise
// the configured offer TTL applies.
func (h *Handler) Sweep(c *gin.Context) {
	var req transport.SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.HandleError(c, apperr.Validation(err.Error()))
			return
		}
	}
	olderThan, err := req.OlderThanDuration()
	if err != nil {
		httpkit.HandleError(c, apperr.Validation(err.Error()))
		return
	}

	expired, err := h.svc.ExpireStale(c.Request.Context(), olderThan)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.SweepResponse{Expired: expired})
}
