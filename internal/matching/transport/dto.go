package transport

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"gids_backend/internal/matching/repository"
	"gids_backend/internal/matching/service"
)

type PlanEntryResponse struct {
	CompanyID   uuid.UUID `json:"companyId"`
	CompanyName string    `json:"companyName,omitempty"`
	Score       float64   `json:"score"`
	Rank        int       `json:"rank"`
	Reasons     []string  `json:"reasons"`
}

type PlanResponse struct {
	LeadID        uuid.UUID           `json:"leadId"`
	Entries       []PlanEntryResponse `json:"entries"`
	TotalEligible int                 `json:"totalEligible"`
}

func ToPlanResponse(plan service.Plan) PlanResponse {
	entries := make([]PlanEntryResponse, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		entries = append(entries, PlanEntryResponse{
			CompanyID:   e.CompanyID,
			CompanyName: e.CompanyName,
			Score:       e.Score,
			Rank:        e.Rank,
			Reasons:     e.Reasons,
		})
	}
	return PlanResponse{LeadID: plan.LeadID, Entries: entries, TotalEligible: plan.TotalEligible}
}

type CreateAssignmentsEntry struct {
	CompanyID uuid.UUID `json:"companyId" binding:"required"`
	Score     float64   `json:"score" binding:"min=0,max=1"`
	Rank      int       `json:"rank" binding:"required,min=1"`
}

type CreateAssignmentsRequest struct {
	Entries []CreateAssignmentsEntry `json:"entries" binding:"required,max=25,dive"`
}

func (r CreateAssignmentsRequest) ToBatchEntries() []repository.BatchEntry {
	entries := make([]repository.BatchEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, repository.BatchEntry{CompanyID: e.CompanyID, Score: e.Score, Rank: e.Rank})
	}
	return entries
}

type CreateAssignmentsResponse struct {
	LeadID        uuid.UUID   `json:"leadId"`
	Created       int         `json:"created"`
	AssignmentIDs []uuid.UUID `json:"assignmentIds"`
}

func ToCreateAssignmentsResponse(result service.CreateResult) CreateAssignmentsResponse {
	ids := result.AssignmentIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return CreateAssignmentsResponse{LeadID: result.LeadID, Created: result.Created, AssignmentIDs: ids}
}

type RespondRequest struct {
	Action string  `json:"action" binding:"required,oneof=accept decline"`
	Reason *string `json:"reason" binding:"omitempty,max=500"`
	Notes  *string `json:"notes" binding:"omitempty,max=2000"`
}

type AssignmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	LeadID          uuid.UUID  `json:"leadId"`
	CompanyID       uuid.UUID  `json:"companyId"`
	Score           float64    `json:"score"`
	Rank            int        `json:"rank"`
	Status          string     `json:"status"`
	OfferedAt       time.Time  `json:"offeredAt"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
	ResponseSeconds *int       `json:"responseSeconds,omitempty"`
	DeclineReason   *string    `json:"declineReason,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func ToAssignmentResponse(a repository.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:              a.ID,
		LeadID:          a.LeadID,
		CompanyID:       a.CompanyID,
		Score:           a.Score,
		Rank:            a.Rank,
		Status:          a.Status,
		OfferedAt:       a.OfferedAt,
		RespondedAt:     a.RespondedAt,
		ResponseSeconds: a.ResponseSeconds,
		DeclineReason:   a.DeclineReason,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
	}
}

// RespondResponse reports the processed response together with the parent
// lead's status, sparing responders a follow-up lookup.
type RespondResponse struct {
	AssignmentResponse
	LeadStatus string `json:"leadStatus"`
}

func ToRespondResponse(result service.RespondResult) RespondResponse {
	return RespondResponse{
		AssignmentResponse: ToAssignmentResponse(result.Assignment),
		LeadStatus:         result.LeadStatus,
	}
}

// SweepRequest optionally narrows or widens the expiry window for one sweep
// run. An empty body sweeps with the configured offer TTL.
type SweepRequest struct {
	OlderThan string `json:"olderThan" binding:"omitempty"`
}

// OlderThanDuration parses the requested window. Zero means "use the
// configured TTL".
func (r SweepRequest) OlderThanDuration() (time.Duration, error) {
	if r.OlderThan == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.OlderThan)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("olderThan must be a positive duration")
	}
	return d, nil
}

type SweepResponse struct {
	Expired int `json:"expired"`
}
