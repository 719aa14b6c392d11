// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"gids_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadReceived is published when a new lead enters the system via intake.
type LeadReceived struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	TenantID   uuid.UUID `json:"tenantId"`
	CategoryID uuid.UUID `json:"categoryId"`
	Postcode   string    `json:"postcode"`
	City       string    `json:"city"`
	Source     string    `json:"source,omitempty"`
}

func (e LeadReceived) EventName() string { return "leads.lead.received" }

// LeadWon is published when an assignment acceptance closes the lead.
type LeadWon struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	TenantID     uuid.UUID `json:"tenantId"`
	AssignmentID uuid.UUID `json:"assignmentId"`
	CompanyID    uuid.UUID `json:"companyId"`
}

func (e LeadWon) EventName() string { return "leads.lead.won" }

// LeadUnmatched is published when planning finds zero eligible companies.
// The lead stays at status new; operators follow up manually.
type LeadUnmatched struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
}

func (e LeadUnmatched) EventName() string { return "leads.lead.unmatched" }

// =============================================================================
// Matching Domain Events
// =============================================================================

// MatchPlanCreated is published after a planning run produced a non-empty plan.
type MatchPlanCreated struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	TenantID      uuid.UUID `json:"tenantId"`
	TotalEligible int       `json:"totalEligible"`
	Planned       int       `json:"planned"`
}

func (e MatchPlanCreated) EventName() string { return "matching.plan.created" }

// AssignmentsCreated is published after a plan was committed as assignments.
type AssignmentsCreated struct {
	BaseEvent
	LeadID        uuid.UUID   `json:"leadId"`
	TenantID      uuid.UUID   `json:"tenantId"`
	AssignmentIDs []uuid.UUID `json:"assignmentIds"`
}

func (e AssignmentsCreated) EventName() string { return "matching.assignments.created" }

// AssignmentAccepted is published when a company accepts an offer.
type AssignmentAccepted struct {
	BaseEvent
	AssignmentID    uuid.UUID `json:"assignmentId"`
	LeadID          uuid.UUID `json:"leadId"`
	TenantID        uuid.UUID `json:"tenantId"`
	CompanyID       uuid.UUID `json:"companyId"`
	ResponseSeconds int       `json:"responseSeconds"`
}

func (e AssignmentAccepted) EventName() string { return "matching.assignment.accepted" }

// AssignmentDeclined is published when a company declines an offer.
type AssignmentDeclined struct {
	BaseEvent
	AssignmentID    uuid.UUID `json:"assignmentId"`
	LeadID          uuid.UUID `json:"leadId"`
	TenantID        uuid.UUID `json:"tenantId"`
	CompanyID       uuid.UUID `json:"companyId"`
	Reason          string    `json:"reason,omitempty"`
	ResponseSeconds int       `json:"responseSeconds"`
}

func (e AssignmentDeclined) EventName() string { return "matching.assignment.declined" }

// AssignmentExpired is published when an offer expires, either through the
// periodic sweep or cascaded by a sibling's acceptance.
type AssignmentExpired struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	TenantID     uuid.UUID `json:"tenantId"`
	CompanyID    uuid.UUID `json:"companyId"`
}

func (e AssignmentExpired) EventName() string { return "matching.assignment.expired" }
