package scoring

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"gids_backend/internal/matching/repository"
)

func testFacts() repository.LeadFacts {
	return repository.LeadFacts{
		LeadID:     uuid.New(),
		TenantID:   uuid.New(),
		CategoryID: uuid.New(),
		Postcode:   "1012AB",
		City:       "Amsterdam",
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	facts := testFacts()
	candidate := repository.Candidate{
		CompanyID:        uuid.New(),
		Postcode:         "1012AB",
		City:             "Amsterdam",
		SubscriptionTier: "premium",
		ExactPostcode:    true,
		SameCity:         true,
		ExactCategory:    true,
	}
	hist := repository.History{Responded: 10, Accepted: 7, AvgResponseSeconds: 1800}
	weights := DefaultWeights()

	first := Score(facts, candidate, hist, weights)
	for i := 0; i < 5; i++ {
		again := Score(facts, candidate, hist, weights)
		if again.Score != first.Score {
			t.Fatalf("score changed between runs: %v vs %v", again.Score, first.Score)
		}
		if !reflect.DeepEqual(again.Reasons, first.Reasons) {
			t.Fatalf("reasons changed between runs: %v vs %v", again.Reasons, first.Reasons)
		}
	}
}

func TestScoreStaysInUnitInterval(t *testing.T) {
	facts := testFacts()
	candidates := []repository.Candidate{
		{SubscriptionTier: "free"},
		{SubscriptionTier: "top", ExactPostcode: true, ExactCategory: true},
		{SubscriptionTier: "basic", SameCity: true, ParentCategory: true},
	}
	histories := []repository.History{
		{},
		{Responded: 20, Accepted: 20, AvgResponseSeconds: 60},
		{Responded: 20, Accepted: 0, AvgResponseSeconds: 500000},
	}

	for _, c := range candidates {
		for _, h := range histories {
			result := Score(facts, c, h, DefaultWeights())
			if result.Score < 0 || result.Score > 1 {
				t.Errorf("score %v out of [0,1] for candidate %+v history %+v", result.Score, c, h)
			}
		}
	}
}

// A top-tier company matching only the parent category must not outrank a
// free company with an exact category match, everything else being equal.
func TestTierBoostCannotBeatSpecificity(t *testing.T) {
	facts := testFacts()
	hist := repository.History{}

	exactFree := Score(facts, repository.Candidate{
		SubscriptionTier: "free",
		ExactCategory:    true,
		ExactPostcode:    true,
	}, hist, DefaultWeights())

	parentTop := Score(facts, repository.Candidate{
		SubscriptionTier: "top",
		ParentCategory:   true,
		ExactPostcode:    true,
	}, hist, DefaultWeights())

	if parentTop.Score >= exactFree.Score {
		t.Fatalf("tier boost overrode category specificity: parent+top %v >= exact+free %v",
			parentTop.Score, exactFree.Score)
	}
}

func TestScoreReasons(t *testing.T) {
	facts := testFacts()

	result := Score(facts, repository.Candidate{
		Postcode:         "1012AB",
		City:             "Amsterdam",
		SubscriptionTier: "top",
		ExactPostcode:    true,
		SameCity:         true,
		ExactCategory:    true,
	}, repository.History{Responded: 8, Accepted: 6, AvgResponseSeconds: 900}, DefaultWeights())

	want := []string{"exact category match", "exact postal code match", "top-tier subscriber", "fast responder"}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Fatalf("reasons = %v, want %v", result.Reasons, want)
	}
}

func TestSameCityReasonWithoutPostcodeMatch(t *testing.T) {
	facts := testFacts()

	result := Score(facts, repository.Candidate{
		Postcode:         "1017KW",
		City:             "Amsterdam",
		SubscriptionTier: "free",
		SameCity:         true,
		ParentCategory:   true,
	}, repository.History{}, DefaultWeights())

	want := []string{"related category match", "same city"}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Fatalf("reasons = %v, want %v", result.Reasons, want)
	}
}

func TestNoHistoryIsNeutralNotPenalty(t *testing.T) {
	facts := testFacts()
	candidate := repository.Candidate{SubscriptionTier: "basic", ExactCategory: true, ExactPostcode: true}

	fresh := Score(facts, candidate, repository.History{}, DefaultWeights())
	poor := Score(facts, candidate, repository.History{
		Responded: 15, Accepted: 1, AvgResponseSeconds: 80000,
	}, DefaultWeights())

	if fresh.Score <= poor.Score {
		t.Fatalf("no-history company scored %v, at or below poor responder %v", fresh.Score, poor.Score)
	}

	// The neutral default contributes exactly half the responsiveness weight.
	w := DefaultWeights()
	expected := w.CategorySpecificity + w.GeoProximity + w.TierBoost*(1.0/3.0) + w.Responsiveness*0.5
	if math.Abs(fresh.Score-expected) > 1e-9 {
		t.Fatalf("fresh score = %v, want %v", fresh.Score, expected)
	}
}

func TestSameRegionSignal(t *testing.T) {
	facts := testFacts() // postcode 1012AB

	region := Score(facts, repository.Candidate{
		Postcode:         "1096XY",
		City:             "Duivendrecht",
		SubscriptionTier: "free",
		ExactCategory:    true,
	}, repository.History{}, DefaultWeights())

	elsewhere := Score(facts, repository.Candidate{
		Postcode:         "9712GH",
		City:             "Groningen",
		SubscriptionTier: "free",
		ExactCategory:    true,
	}, repository.History{}, DefaultWeights())

	if region.Score <= elsewhere.Score {
		t.Fatalf("same-region candidate %v should outrank distant candidate %v", region.Score, elsewhere.Score)
	}
}

func TestDefaultWeightsValidate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
}

func TestValidateRejectsOversizedTierBoost(t *testing.T) {
	w := DefaultWeights()
	w.TierBoost = 0.2 // at the 0.175 specificity gap and above

	if err := w.Validate(); err == nil {
		t.Fatal("expected tier boost above the specificity gap to be rejected")
	}
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	w := DefaultWeights()
	w.GeoProximity = -0.1

	if err := w.Validate(); err == nil {
		t.Fatal("expected negative weight to be rejected")
	}
}

func TestLoadWeightsEmptyPathReturnsDefaults(t *testing.T) {
	w, err := LoadWeights("")
	if err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}
	if w != DefaultWeights() {
		t.Fatalf("weights = %+v, want defaults", w)
	}
}

func TestLoadWeightsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := "categorySpecificity: 0.4\ngeoProximity: 0.3\ntierBoost: 0.1\nresponsiveness: 0.2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write weights file: %v", err)
	}

	w, err := LoadWeights(path)
	if err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}
	if w.CategorySpecificity != 0.4 || w.GeoProximity != 0.3 || w.TierBoost != 0.1 || w.Responsiveness != 0.2 {
		t.Fatalf("unexpected weights %+v", w)
	}
}

func TestLoadWeightsRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	// tierBoost 0.3 exceeds the weighted specificity gap 0.2
	content := "categorySpecificity: 0.4\ngeoProximity: 0.2\ntierBoost: 0.3\nresponsiveness: 0.1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write weights file: %v", err)
	}

	if _, err := LoadWeights(path); err == nil {
		t.Fatal("expected invalid weights file to be rejected")
	}
}
