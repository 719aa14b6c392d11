package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Lead statuses.
const (
	StatusNew      = "new"
	StatusAssigned = "assigned"
	StatusWon      = "won"
	StatusLost     = "lost"
)

// Lead is a consumer request for a service in a category and location.
type Lead struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	CategoryID uuid.UUID
	Postcode   string
	City       string
	Name       string
	Phone      string
	Email      *string
	Note       *string
	Status     string
	ArchivedAt *time.Time
	CreatedAt  time.Time
}

// CreateLeadParams contains data for lead intake.
type CreateLeadParams struct {
	TenantID   uuid.UUID
	CategoryID uuid.UUID
	Postcode   string
	City       string
	Name       string
	Phone      string
	Email      *string
	Note       *string
}

// LeadListParams defines filters and paging for the lead overview.
type LeadListParams struct {
	TenantID        uuid.UUID
	Status          string
	IncludeArchived bool
	Page            int
	PageSize        int
}

// LeadListResult is a page of leads.
type LeadListResult struct {
	Items      []Lead
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Repository is the leads persistence port.
type Repository interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (Lead, error)
	List(ctx context.Context, params LeadListParams) (LeadListResult, error)
	MarkLost(ctx context.Context, id, tenantID uuid.UUID) error
	Archive(ctx context.Context, id, tenantID uuid.UUID) error
}
