package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated directory instance, one per served domain.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Domain    string
	CreatedAt time.Time
}

// Category is a node in the two-level category tree. ParentID is nil for
// top-level categories.
type Category struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	ParentID  *uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Company is a directory listing eligible to receive leads.
type Company struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	Name               string
	City               string
	Postcode           string
	IsActive           bool
	SubscriptionTier   string
	SubscriptionStatus string
	Phone              *string
	Email              *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateCompanyParams contains data for creating a company.
type CreateCompanyParams struct {
	TenantID           uuid.UUID
	Name               string
	City               string
	Postcode           string
	IsActive           bool
	SubscriptionTier   string
	SubscriptionStatus string
	Phone              *string
	Email              *string
}

// UpdateCompanyParams contains data for updating a company. Nil fields are
// left unchanged.
type UpdateCompanyParams struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	Name               *string
	City               *string
	Postcode           *string
	IsActive           *bool
	SubscriptionTier   *string
	SubscriptionStatus *string
	Phone              *string
	Email              *string
}

// CompanyListParams defines filters and paging for the company overview.
type CompanyListParams struct {
	TenantID   uuid.UUID
	Search     string
	ActiveOnly bool
	CategoryID uuid.UUID
	Page       int
	PageSize   int
}

// CompanyListResult is a page of companies.
type CompanyListResult struct {
	Items      []Company
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Repository is the catalog persistence port.
type Repository interface {
	GetTenantByDomain(ctx context.Context, domain string) (Tenant, error)

	ListCategories(ctx context.Context, tenantID uuid.UUID) ([]Category, error)
	CreateCategory(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID, name, slug string) (Category, error)

	CreateCompany(ctx context.Context, params CreateCompanyParams) (Company, error)
	GetCompanyByID(ctx context.Context, id, tenantID uuid.UUID) (Company, error)
	UpdateCompany(ctx context.Context, params UpdateCompanyParams) (Company, error)
	ListCompanies(ctx context.Context, params CompanyListParams) (CompanyListResult, error)

	ReplaceCompanyCategories(ctx context.Context, companyID, tenantID uuid.UUID, categoryIDs []uuid.UUID) error
	ListCompanyCategoryIDs(ctx context.Context, companyID, tenantID uuid.UUID) ([]uuid.UUID, error)
	ReplaceCompanyServiceAreas(ctx context.Context, companyID, tenantID uuid.UUID, postcodes []string) error
	ListCompanyServiceAreas(ctx context.Context, companyID, tenantID uuid.UUID) ([]string, error)
}
