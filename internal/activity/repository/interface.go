package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one timeline record for a lead: which event happened and when,
// with the event's full payload preserved as JSON.
type Entry struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenantId"`
	LeadID     uuid.UUID       `json:"leadId"`
	EventName  string          `json:"eventName"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Repository persists and reads the lead timeline.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	ListByLead(ctx context.Context, leadID, tenantID uuid.UUID) ([]Entry, error)
}
