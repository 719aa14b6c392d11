package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"gids_backend/internal/events"
	"gids_backend/internal/matching/repository"
	"gids_backend/internal/matching/scoring"
	"gids_backend/platform/apperr"
	"gids_backend/platform/logger"
)

// fakeRepo is an in-memory Repository honoring the same conditional-update
// contract as the Postgres implementation: transitions out of 'sent' are
// guarded, so only one responder can win.
type fakeRepo struct {
	mu sync.Mutex

	facts          map[uuid.UUID]repository.LeadFacts
	byPostcode     []repository.Candidate
	byCity         []repository.Candidate
	histories      map[uuid.UUID]repository.History
	assignments    map[uuid.UUID]*repository.Assignment
	leadStatus     map[uuid.UUID]string
	companyTenants map[uuid.UUID]uuid.UUID // companies registered in another tenant

	failOnEntry int // 1-based entry index that fails CreateBatch; 0 disables
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		facts:          make(map[uuid.UUID]repository.LeadFacts),
		histories:      make(map[uuid.UUID]repository.History),
		assignments:    make(map[uuid.UUID]*repository.Assignment),
		leadStatus:     make(map[uuid.UUID]string),
		companyTenants: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeRepo) GetLeadFacts(_ context.Context, leadID, tenantID uuid.UUID) (repository.LeadFacts, error) {
	facts, ok := f.facts[leadID]
	if !ok || facts.TenantID != tenantID {
		return repository.LeadFacts{}, apperr.NotFound("lead not found")
	}
	return facts, nil
}

func (f *fakeRepo) FindCandidates(_ context.Context, _ repository.LeadFacts, strategy repository.CandidateStrategy) ([]repository.Candidate, error) {
	if strategy == repository.StrategyPostcode {
		return f.byPostcode, nil
	}
	return f.byCity, nil
}

func (f *fakeRepo) CompanyHistories(_ context.Context, _ uuid.UUID, companyIDs []uuid.UUID, _ int) (map[uuid.UUID]repository.History, error) {
	out := make(map[uuid.UUID]repository.History)
	for _, id := range companyIDs {
		if h, ok := f.histories[id]; ok {
			out[id] = h
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateBatch(_ context.Context, params repository.CreateBatchParams) ([]repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var created []repository.Assignment
	for i, entry := range params.Entries {
		if f.failOnEntry == i+1 {
			// Whole batch rolls back: nothing below is committed.
			return nil, apperr.Wrap(apperr.KindInternal, "failed to create assignment", errors.New("insert failed"))
		}
		if tenant, ok := f.companyTenants[entry.CompanyID]; ok && tenant != params.TenantID {
			return nil, apperr.Validation("company does not belong to this tenant")
		}
		a := repository.Assignment{
			ID:        uuid.New(),
			LeadID:    params.LeadID,
			TenantID:  params.TenantID,
			CompanyID: entry.CompanyID,
			Score:     entry.Score,
			Rank:      entry.Rank,
			Status:    repository.StatusSent,
			OfferedAt: params.OfferedAt,
			CreatedAt: params.OfferedAt,
		}
		created = append(created, a)
	}
	for i := range created {
		a := created[i]
		f.assignments[a.ID] = &a
	}
	if f.leadStatus[params.LeadID] == "new" {
		f.leadStatus[params.LeadID] = "assigned"
	}
	return created, nil
}

func (f *fakeRepo) GetAssignment(_ context.Context, id, tenantID uuid.UUID) (repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assignments[id]
	if !ok || a.TenantID != tenantID {
		return repository.Assignment{}, apperr.NotFound("assignment not found")
	}
	return *a, nil
}

func (f *fakeRepo) ListByLead(_ context.Context, leadID, tenantID uuid.UUID) ([]repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Assignment
	for _, a := range f.assignments {
		if a.LeadID == leadID && a.TenantID == tenantID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) Accept(_ context.Context, id, tenantID uuid.UUID, notes *string) (repository.AcceptResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.assignments[id]
	if !ok || a.TenantID != tenantID {
		return repository.AcceptResult{}, apperr.NotFound("assignment not found")
	}
	if a.Status != repository.StatusSent {
		return repository.AcceptResult{}, apperr.Conflict("offer no longer available")
	}

	now := time.Now().UTC()
	seconds := int(now.Sub(a.OfferedAt).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	a.Status = repository.StatusAccepted
	a.RespondedAt = &now
	a.ResponseSeconds = &seconds
	if notes != nil {
		a.Notes = notes
	}

	var expired []repository.Assignment
	for _, sibling := range f.assignments {
		if sibling.LeadID == a.LeadID && sibling.ID != a.ID && sibling.Status == repository.StatusSent {
			sibling.Status = repository.StatusExpired
			expired = append(expired, *sibling)
		}
	}
	f.leadStatus[a.LeadID] = "won"
	return repository.AcceptResult{Accepted: *a, Expired: expired, LeadStatus: "won"}, nil
}

func (f *fakeRepo) Decline(_ context.Context, params repository.DeclineParams) (repository.DeclineResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.assignments[params.AssignmentID]
	if !ok || a.TenantID != params.TenantID {
		return repository.DeclineResult{}, apperr.NotFound("assignment not found")
	}
	if a.Status != repository.StatusSent {
		return repository.DeclineResult{}, apperr.Conflict("offer no longer available")
	}

	now := time.Now().UTC()
	seconds := int(now.Sub(a.OfferedAt).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	a.Status = repository.StatusDeclined
	a.RespondedAt = &now
	a.ResponseSeconds = &seconds
	a.DeclineReason = params.Reason
	a.Notes = params.Notes
	return repository.DeclineResult{Declined: *a, LeadStatus: f.leadStatus[a.LeadID]}, nil
}

func (f *fakeRepo) ExpireStale(_ context.Context, cutoff time.Time) ([]repository.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expired []repository.Assignment
	for _, a := range f.assignments {
		if a.Status == repository.StatusSent && a.OfferedAt.Before(cutoff) {
			a.Status = repository.StatusExpired
			expired = append(expired, *a)
		}
	}
	return expired, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

type fakeMatchingConfig struct {
	maxFanout            int
	offerTTL             time.Duration
	minPostcodeProviders int
	historyWindow        int
}

func (c fakeMatchingConfig) GetMatchMaxFanout() int            { return c.maxFanout }
func (c fakeMatchingConfig) GetMatchOfferTTL() time.Duration   { return c.offerTTL }
func (c fakeMatchingConfig) GetMatchMinPostcodeProviders() int { return c.minPostcodeProviders }
func (c fakeMatchingConfig) GetMatchHistoryWindow() int        { return c.historyWindow }
func (c fakeMatchingConfig) GetMatchWeightsFile() string       { return "" }

func newTestService(repo *fakeRepo) *Service {
	log := logger.New("development")
	cfg := fakeMatchingConfig{maxFanout: 5, offerTTL: 24 * time.Hour, minPostcodeProviders: 3, historyWindow: 20}
	return New(repo, events.NewInMemoryBus(log), scoring.DefaultWeights(), cfg, log)
}

func seedLead(repo *fakeRepo) repository.LeadFacts {
	facts := repository.LeadFacts{
		LeadID:     uuid.New(),
		TenantID:   uuid.New(),
		CategoryID: uuid.New(),
		Postcode:   "3011ED",
		City:       "Rotterdam",
		Status:     "new",
	}
	repo.facts[facts.LeadID] = facts
	repo.leadStatus[facts.LeadID] = "new"
	return facts
}

func TestPlanMatchesEmptyCandidatesIsNotAnError(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)

	plan, err := svc.PlanMatches(context.Background(), facts.LeadID, facts.TenantID)
	if err != nil {
		t.Fatalf("PlanMatches: %v", err)
	}
	if len(plan.Entries) != 0 || plan.TotalEligible != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestPlanMatchesFallsBackToCityWhenPostcodeThin(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)

	local := repository.Candidate{CompanyID: uuid.New(), SubscriptionTier: "basic", ExactPostcode: true, ExactCategory: true}
	cityA := repository.Candidate{CompanyID: uuid.New(), SubscriptionTier: "free", SameCity: true, ExactCategory: true}
	cityB := repository.Candidate{CompanyID: uuid.New(), SubscriptionTier: "free", SameCity: true, ParentCategory: true}
	repo.byPostcode = []repository.Candidate{local}
	repo.byCity = []repository.Candidate{local, cityA, cityB}

	plan, err := svc.PlanMatches(context.Background(), facts.LeadID, facts.TenantID)
	if err != nil {
		t.Fatalf("PlanMatches: %v", err)
	}
	if plan.TotalEligible != 3 {
		t.Fatalf("total eligible = %d, want 3 after city fallback", plan.TotalEligible)
	}
	if plan.Entries[0].CompanyID != local.CompanyID {
		t.Fatal("exact postcode candidate should rank first")
	}
}

func TestPlanMatchesSkipsFallbackWithEnoughLocalProviders(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)

	for i := 0; i < 3; i++ {
		repo.byPostcode = append(repo.byPostcode, repository.Candidate{
			CompanyID: uuid.New(), SubscriptionTier: "free", ExactPostcode: true, ExactCategory: true,
		})
	}
	repo.byCity = []repository.Candidate{
		{CompanyID: uuid.New(), SubscriptionTier: "free", SameCity: true, ExactCategory: true},
	}

	plan, err := svc.PlanMatches(context.Background(), facts.LeadID, facts.TenantID)
	if err != nil {
		t.Fatalf("PlanMatches: %v", err)
	}
	if plan.TotalEligible != 3 {
		t.Fatalf("total eligible = %d, want the 3 postcode candidates only", plan.TotalEligible)
	}
}

func TestCreateAssignmentsEmptyPlanCreatesNothing(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)

	result, err := svc.CreateAssignments(context.Background(), facts.LeadID, facts.TenantID, nil)
	if err != nil {
		t.Fatalf("CreateAssignments: %v", err)
	}
	if result.Created != 0 {
		t.Fatalf("created = %d, want 0", result.Created)
	}
	if repo.leadStatus[facts.LeadID] != "new" {
		t.Fatal("empty plan must not touch the lead")
	}
}

func TestCreateAssignmentsRejectsSparseRanks(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)

	_, err := svc.CreateAssignments(context.Background(), facts.LeadID, facts.TenantID, []repository.BatchEntry{
		{CompanyID: uuid.New(), Score: 0.9, Rank: 1},
		{CompanyID: uuid.New(), Score: 0.8, Rank: 3},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for sparse ranks, got %v", err)
	}
}

func TestCreateAssignmentsMidBatchFailureLeavesNothing(t *testing.T) {
	repo := newFakeRepo()
	repo.failOnEntry = 2
	facts := seedLead(repo)
	svc := newTestService(repo)

	_, err := svc.CreateAssignments(context.Background(), facts.LeadID, facts.TenantID, []repository.BatchEntry{
		{CompanyID: uuid.New(), Score: 0.9, Rank: 1},
		{CompanyID: uuid.New(), Score: 0.8, Rank: 2},
	})
	if err == nil {
		t.Fatal("expected batch failure")
	}
	if len(repo.assignments) != 0 {
		t.Fatalf("partial batch persisted: %d assignments", len(repo.assignments))
	}
	if repo.leadStatus[facts.LeadID] != "new" {
		t.Fatal("failed batch must leave the lead untouched")
	}
}

func createBatch(t *testing.T, svc *Service, facts repository.LeadFacts, companies int) CreateResult {
	t.Helper()
	var entries []repository.BatchEntry
	for i := 0; i < companies; i++ {
		entries = append(entries, repository.BatchEntry{
			CompanyID: uuid.New(),
			Score:     1.0 - float64(i)*0.1,
			Rank:      i + 1,
		})
	}
	result, err := svc.CreateAssignments(context.Background(), facts.LeadID, facts.TenantID, entries)
	if err != nil {
		t.Fatalf("CreateAssignments: %v", err)
	}
	return result
}

func TestAcceptWinsLeadAndExpiresSiblings(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)
	result := createBatch(t, svc, facts, 3)

	winner := result.AssignmentIDs[1]
	res, err := svc.RespondToAssignment(context.Background(), winner, facts.TenantID, ActionAccept, nil, nil)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	accepted := res.Assignment
	if accepted.Status != repository.StatusAccepted {
		t.Fatalf("status = %s, want accepted", accepted.Status)
	}
	if accepted.RespondedAt == nil || accepted.ResponseSeconds == nil {
		t.Fatal("acceptance must record responded_at and response_seconds")
	}
	if res.LeadStatus != "won" {
		t.Fatalf("response lead status = %s, want won", res.LeadStatus)
	}
	if repo.leadStatus[facts.LeadID] != "won" {
		t.Fatalf("lead status = %s, want won", repo.leadStatus[facts.LeadID])
	}

	for _, id := range result.AssignmentIDs {
		a := repo.assignments[id]
		if id == winner {
			continue
		}
		if a.Status != repository.StatusExpired {
			t.Fatalf("sibling %s status = %s, want expired", id, a.Status)
		}
		if a.RespondedAt != nil {
			t.Fatal("expiry must not record responded_at")
		}
	}
}

func TestLateDeclineAfterAcceptConflicts(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)
	result := createBatch(t, svc, facts, 2)

	if _, err := svc.RespondToAssignment(context.Background(), result.AssignmentIDs[0], facts.TenantID, ActionAccept, nil, nil); err != nil {
		t.Fatalf("accept: %v", err)
	}

	reason := "too busy"
	_, err := svc.RespondToAssignment(context.Background(), result.AssignmentIDs[1], facts.TenantID, ActionDecline, &reason, nil)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("late decline should conflict, got %v", err)
	}
}

func TestDoubleAcceptRaceHasOneWinner(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)
	result := createBatch(t, svc, facts, 2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RespondToAssignment(context.Background(), result.AssignmentIDs[i], facts.TenantID, ActionAccept, nil, nil)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !apperr.Is(err, apperr.KindConflict) {
			t.Fatalf("loser should see a conflict, got %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	accepted := 0
	for _, a := range repo.assignments {
		if a.Status == repository.StatusAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted assignments = %d, want exactly 1", accepted)
	}
}

func TestDeclineLeavesLeadOpen(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)
	result := createBatch(t, svc, facts, 2)

	reason := "outside service area"
	res, err := svc.RespondToAssignment(context.Background(), result.AssignmentIDs[0], facts.TenantID, ActionDecline, &reason, nil)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	declined := res.Assignment
	if declined.Status != repository.StatusDeclined {
		t.Fatalf("status = %s, want declined", declined.Status)
	}
	if declined.DeclineReason == nil || *declined.DeclineReason != reason {
		t.Fatal("decline reason not recorded")
	}
	if res.LeadStatus != "assigned" {
		t.Fatalf("response lead status = %s, want assigned", res.LeadStatus)
	}
	if repo.leadStatus[facts.LeadID] != "assigned" {
		t.Fatalf("lead status = %s, decline must leave the lead open", repo.leadStatus[facts.LeadID])
	}

	other := repo.assignments[result.AssignmentIDs[1]]
	if other.Status != repository.StatusSent {
		t.Fatal("decline must not touch sibling offers")
	}
}

func TestAcceptRecordsNotes(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)
	result := createBatch(t, svc, facts, 2)

	notes := "will call the customer this afternoon"
	res, err := svc.RespondToAssignment(context.Background(), result.AssignmentIDs[0], facts.TenantID, ActionAccept, nil, &notes)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Assignment.Notes == nil || *res.Assignment.Notes != notes {
		t.Fatal("notes passed on accept must be recorded on the assignment")
	}

	stored := repo.assignments[result.AssignmentIDs[0]]
	if stored.Notes == nil || *stored.Notes != notes {
		t.Fatal("accepted assignment must persist the notes")
	}
}

func TestCreateAssignmentsRejectsCrossTenantCompany(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)

	foreign := uuid.New()
	repo.companyTenants[foreign] = uuid.New()

	_, err := svc.CreateAssignments(context.Background(), facts.LeadID, facts.TenantID, []repository.BatchEntry{
		{CompanyID: foreign, Score: 0.9, Rank: 1},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for cross-tenant company, got %v", err)
	}
	if len(repo.assignments) != 0 {
		t.Fatal("cross-tenant entry must not persist any assignment")
	}
	if repo.leadStatus[facts.LeadID] != "new" {
		t.Fatal("rejected batch must leave the lead untouched")
	}
}

func TestRespondRejectsUnknownAction(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)
	result := createBatch(t, svc, facts, 1)

	_, err := svc.RespondToAssignment(context.Background(), result.AssignmentIDs[0], facts.TenantID, "snooze", nil, nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRespondToUnknownAssignmentIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)

	_, err := svc.RespondToAssignment(context.Background(), uuid.New(), facts.TenantID, ActionAccept, nil, nil)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExpireStaleOnlyTouchesOldOpenOffers(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)
	result := createBatch(t, svc, facts, 3)

	// Age two offers past the TTL; respond to one of them first.
	stale := time.Now().UTC().Add(-48 * time.Hour)
	repo.assignments[result.AssignmentIDs[0]].OfferedAt = stale
	repo.assignments[result.AssignmentIDs[1]].OfferedAt = stale
	reason := "no capacity"
	if _, err := svc.RespondToAssignment(context.Background(), result.AssignmentIDs[1], facts.TenantID, ActionDecline, &reason, nil); err != nil {
		t.Fatalf("decline: %v", err)
	}

	expired, err := svc.ExpireStale(context.Background(), 0)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}

	if a := repo.assignments[result.AssignmentIDs[0]]; a.Status != repository.StatusExpired || a.RespondedAt != nil {
		t.Fatalf("stale offer should expire without responded_at, got %+v", a)
	}
	if a := repo.assignments[result.AssignmentIDs[1]]; a.Status != repository.StatusDeclined {
		t.Fatal("declined offer must keep its status")
	}
	if a := repo.assignments[result.AssignmentIDs[2]]; a.Status != repository.StatusSent {
		t.Fatal("fresh offer must stay open")
	}
}

func TestExpireStaleHonorsExplicitWindow(t *testing.T) {
	repo := newFakeRepo()
	facts := seedLead(repo)
	svc := newTestService(repo)
	result := createBatch(t, svc, facts, 2)

	// Two hours old: well inside the 24h TTL, outside a 1h window.
	repo.assignments[result.AssignmentIDs[0]].OfferedAt = time.Now().UTC().Add(-2 * time.Hour)

	expired, err := svc.ExpireStale(context.Background(), 0)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if expired != 0 {
		t.Fatalf("default window expired %d offers, want 0", expired)
	}

	expired, err = svc.ExpireStale(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if expired != 1 {
		t.Fatalf("explicit 1h window expired %d offers, want 1", expired)
	}
	if a := repo.assignments[result.AssignmentIDs[1]]; a.Status != repository.StatusSent {
		t.Fatal("offer inside the window must stay open")
	}
}
