package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Assignment statuses.
const (
	StatusSent     = "sent"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

// LeadFacts is the slice of a lead the engine needs: location, category and
// the category's parent when it has one.
type LeadFacts struct {
	LeadID           uuid.UUID
	TenantID         uuid.UUID
	CategoryID       uuid.UUID
	ParentCategoryID *uuid.UUID
	Postcode         string
	City             string
	Status           string
}

// CandidateStrategy selects the geographic predicate for candidate lookup.
type CandidateStrategy string

const (
	StrategyPostcode CandidateStrategy = "postcode"
	StrategySameCity CandidateStrategy = "same_city"
)

// Candidate is an eligible company together with the match flags the scorer
// consumes. Flags describe how the company matched, not how well.
type Candidate struct {
	CompanyID        uuid.UUID
	Name             string
	City             string
	Postcode         string
	SubscriptionTier string
	ExactPostcode    bool
	SameCity         bool
	ExactCategory    bool
	ParentCategory   bool
}

// History aggregates a company's responded assignments over the recent
// window the scorer looks at.
type History struct {
	Responded          int
	Accepted           int
	AvgResponseSeconds float64
}

// Assignment is one offered lead-company pairing.
type Assignment struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	TenantID        uuid.UUID
	CompanyID       uuid.UUID
	Score           float64
	Rank            int
	Status          string
	OfferedAt       time.Time
	RespondedAt     *time.Time
	ResponseSeconds *int
	DeclineReason   *string
	Notes           *string
	CreatedAt       time.Time
}

// BatchEntry is one planned assignment to persist.
type BatchEntry struct {
	CompanyID uuid.UUID
	Score     float64
	Rank      int
}

// CreateBatchParams creates all assignments for one plan atomically.
type CreateBatchParams struct {
	LeadID    uuid.UUID
	TenantID  uuid.UUID
	OfferedAt time.Time
	Entries   []BatchEntry
}

// AcceptResult carries everything the acceptance transaction changed: the
// winning assignment, the sibling offers it expired and the lead's status
// after the win.
type AcceptResult struct {
	Accepted   Assignment
	Expired    []Assignment
	LeadStatus string
}

// DeclineParams records a company turning an offer down.
type DeclineParams struct {
	AssignmentID uuid.UUID
	TenantID     uuid.UUID
	Reason       *string
	Notes        *string
}

// DeclineResult pairs the declined assignment with the lead's status, which
// a decline never changes but responders still want to see.
type DeclineResult struct {
	Declined   Assignment
	LeadStatus string
}

// Repository is the matching persistence port. The conditional-update
// contract matters here: every transition out of 'sent' must be a single
// guarded statement so concurrent responders cannot both win.
type Repository interface {
	GetLeadFacts(ctx context.Context, leadID, tenantID uuid.UUID) (LeadFacts, error)
	FindCandidates(ctx context.Context, facts LeadFacts, strategy CandidateStrategy) ([]Candidate, error)
	CompanyHistories(ctx context.Context, tenantID uuid.UUID, companyIDs []uuid.UUID, window int) (map[uuid.UUID]History, error)

	CreateBatch(ctx context.Context, params CreateBatchParams) ([]Assignment, error)
	GetAssignment(ctx context.Context, id, tenantID uuid.UUID) (Assignment, error)
	ListByLead(ctx context.Context, leadID, tenantID uuid.UUID) ([]Assignment, error)

	Accept(ctx context.Context, id, tenantID uuid.UUID, notes *string) (AcceptResult, error)
	Decline(ctx context.Context, params DeclineParams) (DeclineResult, error)
	ExpireStale(ctx context.Context, cutoff time.Time) ([]Assignment, error)
}
