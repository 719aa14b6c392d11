package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"gids_backend/internal/catalog/repository"
	"gids_backend/internal/catalog/transport"
	"gids_backend/platform/apperr"
	"gids_backend/platform/logger"
)

// Service holds catalog business logic: tenants, categories and companies.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ResolveTenant maps a request host to its tenant. The port, if any, is
// stripped before lookup.
func (s *Service) ResolveTenant(ctx context.Context, host string) (repository.Tenant, error) {
	domain := strings.ToLower(host)
	if i := strings.IndexByte(domain, ':'); i >= 0 {
		domain = domain[:i]
	}
	if domain == "" {
		return repository.Tenant{}, apperr.Validation("missing host")
	}
	return s.repo.GetTenantByDomain(ctx, domain)
}

func (s *Service) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]repository.Category, error) {
	return s.repo.ListCategories(ctx, tenantID)
}

func (s *Service) CreateCategory(ctx context.Context, tenantID uuid.UUID, req transport.CreateCategoryRequest) (repository.Category, error) {
	// Categories form a two-level tree: a parent must itself be top-level.
	if req.ParentID != nil {
		categories, err := s.repo.ListCategories(ctx, tenantID)
		if err != nil {
			return repository.Category{}, err
		}
		found := false
		for _, c := range categories {
			if c.ID == *req.ParentID {
				if c.ParentID != nil {
					return repository.Category{}, apperr.Validation("parent must be a top-level category")
				}
				found = true
				break
			}
		}
		if !found {
			return repository.Category{}, apperr.NotFound("parent category not found")
		}
	}
	return s.repo.CreateCategory(ctx, tenantID, req.ParentID, req.Name, req.Slug)
}

func (s *Service) CreateCompany(ctx context.Context, tenantID uuid.UUID, req transport.CreateCompanyRequest) (repository.Company, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	tier := req.SubscriptionTier
	if tier == "" {
		tier = "free"
	}
	status := req.SubscriptionStatus
	if status == "" {
		status = "active"
	}

	company, err := s.repo.CreateCompany(ctx, repository.CreateCompanyParams{
		TenantID:           tenantID,
		Name:               req.Name,
		City:               req.City,
		Postcode:           normalizePostcode(req.Postcode),
		IsActive:           isActive,
		SubscriptionTier:   tier,
		SubscriptionStatus: status,
		Phone:              req.Phone,
		Email:              req.Email,
	})
	if err != nil {
		return repository.Company{}, err
	}

	s.log.Info("company created", "company_id", company.ID, "tenant_id", tenantID)
	return company, nil
}

func (s *Service) GetCompany(ctx context.Context, id, tenantID uuid.UUID) (repository.Company, error) {
	return s.repo.GetCompanyByID(ctx, id, tenantID)
}

func (s *Service) UpdateCompany(ctx context.Context, id, tenantID uuid.UUID, req transport.UpdateCompanyRequest) (repository.Company, error) {
	var postcode *string
	if req.Postcode != nil {
		p := normalizePostcode(*req.Postcode)
		postcode = &p
	}
	return s.repo.UpdateCompany(ctx, repository.UpdateCompanyParams{
		ID:                 id,
		TenantID:           tenantID,
		Name:               req.Name,
		City:               req.City,
		Postcode:           postcode,
		IsActive:           req.IsActive,
		SubscriptionTier:   req.SubscriptionTier,
		SubscriptionStatus: req.SubscriptionStatus,
		Phone:              req.Phone,
		Email:              req.Email,
	})
}

func (s *Service) ListCompanies(ctx context.Context, params repository.CompanyListParams) (repository.CompanyListResult, error) {
	return s.repo.ListCompanies(ctx, params)
}

func (s *Service) ReplaceCompanyCategories(ctx context.Context, companyID, tenantID uuid.UUID, categoryIDs []uuid.UUID) error {
	return s.repo.ReplaceCompanyCategories(ctx, companyID, tenantID, dedupeUUIDs(categoryIDs))
}

func (s *Service) ListCompanyCategoryIDs(ctx context.Context, companyID, tenantID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.ListCompanyCategoryIDs(ctx, companyID, tenantID)
}

func (s *Service) ReplaceCompanyServiceAreas(ctx context.Context, companyID, tenantID uuid.UUID, postcodes []string) error {
	normalized := make([]string, 0, len(postcodes))
	seen := make(map[string]struct{}, len(postcodes))
	for _, p := range postcodes {
		n := normalizePostcode(p)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}
	return s.repo.ReplaceCompanyServiceAreas(ctx, companyID, tenantID, normalized)
}

func (s *Service) ListCompanyServiceAreas(ctx context.Context, companyID, tenantID uuid.UUID) ([]string, error) {
	return s.repo.ListCompanyServiceAreas(ctx, companyID, tenantID)
}

// normalizePostcode uppercases and removes the optional space, so "1234 ab"
// is stored as "1234AB".
func normalizePostcode(p string) string {
	return strings.ToUpper(strings.ReplaceAll(p, " ", ""))
}

func dedupeUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
