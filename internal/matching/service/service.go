// Package service implements the lead distribution engine: candidate
// selection, scoring, planning, assignment creation and the assignment
// lifecycle.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gids_backend/internal/events"
	"gids_backend/internal/matching/repository"
	"gids_backend/internal/matching/scoring"
	"gids_backend/platform/apperr"
	"gids_backend/platform/config"
	"gids_backend/platform/logger"
)

// Response actions accepted by RespondToAssignment.
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// Service orchestrates the matching engine.
type Service struct {
	repo     repository.Repository
	eventBus events.Bus
	log      *logger.Logger
	weights  scoring.Weights
	cfg      config.MatchingConfig
}

func New(repo repository.Repository, eventBus events.Bus, weights scoring.Weights, cfg config.MatchingConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, weights: weights, cfg: cfg, log: log}
}

// CreateResult reports what the orchestrator committed. Created is zero for
// an empty plan, which is a success distinct from a failed transaction.
type CreateResult struct {
	LeadID        uuid.UUID
	Created       int
	AssignmentIDs []uuid.UUID
	Assignments   []repository.Assignment
}

// PlanMatches runs the read-only planning pipeline for a lead: candidate
// lookup with geographic fallback, scoring, ordering and truncation. Zero
// candidates is a valid outcome, reported as an empty plan.
func (s *Service) PlanMatches(ctx context.Context, leadID, tenantID uuid.UUID) (Plan, error) {
	facts, err := s.repo.GetLeadFacts(ctx, leadID, tenantID)
	if err != nil {
		return Plan{}, err
	}

	candidates, err := s.findCandidates(ctx, facts)
	if err != nil {
		return Plan{}, err
	}

	if len(candidates) == 0 {
		s.log.MatchPlanned(leadID.String(), 0, 0)
		s.eventBus.Publish(ctx, events.LeadUnmatched{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			TenantID:  tenantID,
		})
		return Plan{LeadID: leadID}, nil
	}

	companyIDs := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		companyIDs = append(companyIDs, c.CompanyID)
	}
	histories, err := s.repo.CompanyHistories(ctx, tenantID, companyIDs, s.cfg.GetMatchHistoryWindow())
	if err != nil {
		return Plan{}, err
	}

	plan := buildPlan(facts, candidates, histories, s.weights, s.cfg.GetMatchMaxFanout())

	s.log.MatchPlanned(leadID.String(), plan.TotalEligible, len(plan.Entries))
	s.eventBus.Publish(ctx, events.MatchPlanCreated{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        leadID,
		TenantID:      tenantID,
		TotalEligible: plan.TotalEligible,
		Planned:       len(plan.Entries),
	})
	return plan, nil
}

// findCandidates queries by exact service-area postcode first and widens to
// the lead's city when too few local companies serve that postcode.
func (s *Service) findCandidates(ctx context.Context, facts repository.LeadFacts) ([]repository.Candidate, error) {
	byPostcode, err := s.repo.FindCandidates(ctx, facts, repository.StrategyPostcode)
	if err != nil {
		return nil, err
	}
	if len(byPostcode) >= s.cfg.GetMatchMinPostcodeProviders() {
		return byPostcode, nil
	}

	byCity, err := s.repo.FindCandidates(ctx, facts, repository.StrategySameCity)
	if err != nil {
		return nil, err
	}
	return mergeCandidates(byPostcode, byCity), nil
}

// CreateAssignments persists a plan as assignments, all in one transaction.
func (s *Service) CreateAssignments(ctx context.Context, leadID, tenantID uuid.UUID, entries []repository.BatchEntry) (CreateResult, error) {
	if len(entries) == 0 {
		return CreateResult{LeadID: leadID}, nil
	}
	if err := validateRanks(entries); err != nil {
		return CreateResult{}, err
	}

	assignments, err := s.repo.CreateBatch(ctx, repository.CreateBatchParams{
		LeadID:    leadID,
		TenantID:  tenantID,
		OfferedAt: time.Now().UTC(),
		Entries:   entries,
	})
	if err != nil {
		return CreateResult{}, err
	}

	ids := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}

	s.log.Info("assignments created", "lead_id", leadID, "count", len(ids))
	s.eventBus.Publish(ctx, events.AssignmentsCreated{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        leadID,
		TenantID:      tenantID,
		AssignmentIDs: ids,
	})
	return CreateResult{LeadID: leadID, Created: len(ids), AssignmentIDs: ids, Assignments: assignments}, nil
}

// validateRanks requires dense 1-based ranks in order, matching what the
// planner emits.
func validateRanks(entries []repository.BatchEntry) error {
	for i, e := range entries {
		if e.Rank != i+1 {
			return apperr.Validation("entries must carry dense 1-based ranks in order")
		}
	}
	return nil
}

// RespondResult reports a processed response: the assignment in its new
// state and the parent lead's status, so callers can render the outcome
// without a follow-up read.
type RespondResult struct {
	Assignment repository.Assignment
	LeadStatus string
}

// RespondToAssignment applies a company's accept or decline to an open
// offer. Acceptance wins the lead: sibling offers expire and the lead moves
// to won atomically. A response to an offer that already left 'sent' fails
// with a conflict.
func (s *Service) RespondToAssignment(ctx context.Context, id, tenantID uuid.UUID, action string, reason, notes *string) (RespondResult, error) {
	switch action {
	case ActionAccept:
		return s.accept(ctx, id, tenantID, notes)
	case ActionDecline:
		return s.decline(ctx, id, tenantID, reason, notes)
	default:
		return RespondResult{}, apperr.Validation("action must be accept or decline")
	}
}

func (s *Service) accept(ctx context.Context, id, tenantID uuid.UUID, notes *string) (RespondResult, error) {
	result, err := s.repo.Accept(ctx, id, tenantID, notes)
	if err != nil {
		return RespondResult{}, err
	}
	accepted := result.Accepted

	s.log.AssignmentTransition(accepted.ID.String(), repository.StatusSent, repository.StatusAccepted)

	responseSeconds := 0
	if accepted.ResponseSeconds != nil {
		responseSeconds = *accepted.ResponseSeconds
	}
	s.eventBus.Publish(ctx, events.AssignmentAccepted{
		BaseEvent:       events.NewBaseEvent(),
		AssignmentID:    accepted.ID,
		LeadID:          accepted.LeadID,
		TenantID:        accepted.TenantID,
		CompanyID:       accepted.CompanyID,
		ResponseSeconds: responseSeconds,
	})
	for _, sibling := range result.Expired {
		s.log.AssignmentTransition(sibling.ID.String(), repository.StatusSent, repository.StatusExpired)
		s.eventBus.Publish(ctx, events.AssignmentExpired{
			BaseEvent:    events.NewBaseEvent(),
			AssignmentID: sibling.ID,
			LeadID:       sibling.LeadID,
			TenantID:     sibling.TenantID,
			CompanyID:    sibling.CompanyID,
		})
	}
	s.eventBus.Publish(ctx, events.LeadWon{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       accepted.LeadID,
		TenantID:     accepted.TenantID,
		AssignmentID: accepted.ID,
		CompanyID:    accepted.CompanyID,
	})
	return RespondResult{Assignment: accepted, LeadStatus: result.LeadStatus}, nil
}

func (s *Service) decline(ctx context.Context, id, tenantID uuid.UUID, reason, notes *string) (RespondResult, error) {
	result, err := s.repo.Decline(ctx, repository.DeclineParams{
		AssignmentID: id,
		TenantID:     tenantID,
		Reason:       reason,
		Notes:        notes,
	})
	if err != nil {
		return RespondResult{}, err
	}
	declined := result.Declined

	s.log.AssignmentTransition(declined.ID.String(), repository.StatusSent, repository.StatusDeclined)

	declineReason := ""
	if declined.DeclineReason != nil {
		declineReason = *declined.DeclineReason
	}
	responseSeconds := 0
	if declined.ResponseSeconds != nil {
		responseSeconds = *declined.ResponseSeconds
	}
	s.eventBus.Publish(ctx, events.AssignmentDeclined{
		BaseEvent:       events.NewBaseEvent(),
		AssignmentID:    declined.ID,
		LeadID:          declined.LeadID,
		TenantID:        declined.TenantID,
		CompanyID:       declined.CompanyID,
		Reason:          declineReason,
		ResponseSeconds: responseSeconds,
	})
	return RespondResult{Assignment: declined, LeadStatus: result.LeadStatus}, nil
}

// GetAssignment returns one assignment, tenant-scoped.
func (s *Service) GetAssignment(ctx context.Context, id, tenantID uuid.UUID) (repository.Assignment, error) {
	return s.repo.GetAssignment(ctx, id, tenantID)
}

// ListByLead returns a lead's assignments in rank order.
func (s *Service) ListByLead(ctx context.Context, leadID, tenantID uuid.UUID) ([]repository.Assignment, error) {
	return s.repo.ListByLead(ctx, leadID, tenantID)
}

// ExpireStale expires every open offer older than the given window and
// returns how many it expired. A non-positive window falls back to the
// configured offer TTL. Run periodically by the scheduler; also exposed over
// HTTP for operators.
func (s *Service) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = s.cfg.GetMatchOfferTTL()
	}
	cutoff := time.Now().UTC().Add(-olderThan)

	expired, err := s.repo.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, a := range expired {
		s.log.AssignmentTransition(a.ID.String(), repository.StatusSent, repository.StatusExpired)
		s.eventBus.Publish(ctx, events.AssignmentExpired{
			BaseEvent:    events.NewBaseEvent(),
			AssignmentID: a.ID,
			LeadID:       a.LeadID,
			TenantID:     a.TenantID,
			CompanyID:    a.CompanyID,
		})
	}
	s.log.SweepCompleted(len(expired))
	return len(expired), nil
}
