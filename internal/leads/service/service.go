package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"gids_backend/internal/events"
	"gids_backend/internal/leads/repository"
	"gids_backend/internal/leads/transport"
	"gids_backend/platform/logger"
	"gids_backend/platform/phone"
)

// Service holds lead intake and lifecycle logic.
type Service struct {
	repo     repository.Repository
	eventBus events.Bus
	log      *logger.Logger
}

func New(repo repository.Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// Intake creates a lead from a public submission. The phone number is
// normalized to E.164 and the postcode to "1234AB" form before storage.
func (s *Service) Intake(ctx context.Context, tenantID uuid.UUID, req transport.IntakeRequest) (repository.Lead, error) {
	normalizedPhone := phone.NormalizeE164(req.Phone)

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		TenantID:   tenantID,
		CategoryID: req.CategoryID,
		Postcode:   normalizePostcode(req.Postcode),
		City:       req.City,
		Name:       req.Name,
		Phone:      normalizedPhone,
		Email:      req.Email,
		Note:       req.Note,
	})
	if err != nil {
		return repository.Lead{}, err
	}

	s.log.Info("lead received", "lead_id", lead.ID, "tenant_id", tenantID, "category_id", lead.CategoryID)
	s.eventBus.Publish(ctx, events.LeadReceived{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		TenantID:   lead.TenantID,
		CategoryID: lead.CategoryID,
		Postcode:   lead.Postcode,
		City:       lead.City,
		Source:     "web",
	})
	return lead, nil
}

func (s *Service) GetByID(ctx context.Context, id, tenantID uuid.UUID) (repository.Lead, error) {
	return s.repo.GetByID(ctx, id, tenantID)
}

func (s *Service) List(ctx context.Context, params repository.LeadListParams) (repository.LeadListResult, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) MarkLost(ctx context.Context, id, tenantID uuid.UUID) error {
	if err := s.repo.MarkLost(ctx, id, tenantID); err != nil {
		return err
	}
	s.log.Info("lead marked lost", "lead_id", id, "tenant_id", tenantID)
	return nil
}

func (s *Service) Archive(ctx context.Context, id, tenantID uuid.UUID) error {
	return s.repo.Archive(ctx, id, tenantID)
}

func normalizePostcode(p string) string {
	return strings.ToUpper(strings.ReplaceAll(p, " ", ""))
}
