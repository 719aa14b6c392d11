package service

import (
	"testing"

	"github.com/google/uuid"

	"gids_backend/internal/matching/repository"
	"gids_backend/internal/matching/scoring"
)

func plannerFacts() repository.LeadFacts {
	return repository.LeadFacts{
		LeadID:     uuid.New(),
		TenantID:   uuid.New(),
		CategoryID: uuid.New(),
		Postcode:   "2511CV",
		City:       "Den Haag",
	}
}

func TestBuildPlanEmptyCandidates(t *testing.T) {
	facts := plannerFacts()

	plan := buildPlan(facts, nil, nil, scoring.DefaultWeights(), 5)

	if plan.LeadID != facts.LeadID {
		t.Fatalf("plan lead = %s, want %s", plan.LeadID, facts.LeadID)
	}
	if len(plan.Entries) != 0 {
		t.Fatalf("expected empty plan, got %d entries", len(plan.Entries))
	}
	if plan.TotalEligible != 0 {
		t.Fatalf("total eligible = %d, want 0", plan.TotalEligible)
	}
}

func TestBuildPlanOrdersByScoreDescending(t *testing.T) {
	facts := plannerFacts()
	candidates := []repository.Candidate{
		{CompanyID: uuid.New(), SubscriptionTier: "free", SameCity: true, ParentCategory: true},
		{CompanyID: uuid.New(), SubscriptionTier: "free", ExactPostcode: true, ExactCategory: true},
		{CompanyID: uuid.New(), SubscriptionTier: "free", SameCity: true, ExactCategory: true},
	}

	plan := buildPlan(facts, candidates, nil, scoring.DefaultWeights(), 5)

	if len(plan.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(plan.Entries))
	}
	for i := 1; i < len(plan.Entries); i++ {
		if plan.Entries[i].Score > plan.Entries[i-1].Score {
			t.Fatalf("entries not sorted: %v before %v", plan.Entries[i-1].Score, plan.Entries[i].Score)
		}
	}
	if plan.Entries[0].CompanyID != candidates[1].CompanyID {
		t.Fatalf("best candidate should be the exact postcode + exact category company")
	}
}

func TestBuildPlanTruncatesAndRanksDensely(t *testing.T) {
	facts := plannerFacts()
	var candidates []repository.Candidate
	for i := 0; i < 8; i++ {
		candidates = append(candidates, repository.Candidate{
			CompanyID:        uuid.New(),
			SubscriptionTier: "free",
			ExactPostcode:    true,
			ExactCategory:    true,
		})
	}

	plan := buildPlan(facts, candidates, nil, scoring.DefaultWeights(), 5)

	if plan.TotalEligible != 8 {
		t.Fatalf("total eligible = %d, want 8", plan.TotalEligible)
	}
	if len(plan.Entries) != 5 {
		t.Fatalf("expected truncation to 5, got %d", len(plan.Entries))
	}
	for i, e := range plan.Entries {
		if e.Rank != i+1 {
			t.Fatalf("entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
	}
}

func TestBuildPlanTieBreaksByCompanyID(t *testing.T) {
	facts := plannerFacts()
	// Identical profiles, so scores tie and company id decides.
	idA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	idB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	candidates := []repository.Candidate{
		{CompanyID: idB, SubscriptionTier: "basic", ExactPostcode: true, ExactCategory: true},
		{CompanyID: idA, SubscriptionTier: "basic", ExactPostcode: true, ExactCategory: true},
	}

	plan := buildPlan(facts, candidates, nil, scoring.DefaultWeights(), 5)

	if plan.Entries[0].CompanyID != idA || plan.Entries[1].CompanyID != idB {
		t.Fatalf("tie not broken by ascending company id: got %s then %s",
			plan.Entries[0].CompanyID, plan.Entries[1].CompanyID)
	}
	if plan.Entries[0].Score != plan.Entries[1].Score {
		t.Fatalf("expected tied scores, got %v and %v", plan.Entries[0].Score, plan.Entries[1].Score)
	}
}

func TestBuildPlanUsesHistories(t *testing.T) {
	facts := plannerFacts()
	fast := uuid.New()
	slow := uuid.New()
	candidates := []repository.Candidate{
		{CompanyID: slow, SubscriptionTier: "free", ExactPostcode: true, ExactCategory: true},
		{CompanyID: fast, SubscriptionTier: "free", ExactPostcode: true, ExactCategory: true},
	}
	histories := map[uuid.UUID]repository.History{
		fast: {Responded: 10, Accepted: 9, AvgResponseSeconds: 600},
		slow: {Responded: 10, Accepted: 2, AvgResponseSeconds: 70000},
	}

	plan := buildPlan(facts, candidates, histories, scoring.DefaultWeights(), 5)

	if plan.Entries[0].CompanyID != fast {
		t.Fatalf("responsive company should rank first")
	}
}

func TestMergeCandidatesPrefersPrimaryFlags(t *testing.T) {
	shared := uuid.New()
	primary := []repository.Candidate{{CompanyID: shared, ExactPostcode: true}}
	fallback := []repository.Candidate{
		{CompanyID: shared, SameCity: true},
		{CompanyID: uuid.New(), SameCity: true},
	}

	merged := mergeCandidates(primary, fallback)

	if len(merged) != 2 {
		t.Fatalf("expected 2 merged candidates, got %d", len(merged))
	}
	if !merged[0].ExactPostcode {
		t.Fatal("postcode match flags should survive the merge")
	}
}
