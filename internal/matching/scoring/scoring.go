// Package scoring computes match scores for lead-company candidate pairs.
// Score is a pure function: no I/O, no clock, so identical inputs always
// produce identical output.
package scoring

import (
	"fmt"

	"gids_backend/internal/matching/repository"
)

// Signal normalization constants.
const (
	specificityExact  = 1.0
	specificityParent = 0.5

	proximityExactPostcode = 1.0
	proximitySameCity      = 0.6
	proximitySameRegion    = 0.3

	// Average response times are normalized against one day; anything
	// slower scores zero on the speed half of the responsiveness blend.
	responseNormSeconds = 86400.0

	// neutralResponsiveness applies when a company has no responded
	// assignments yet. New companies are never penalized for lacking
	// history.
	neutralResponsiveness = 0.5

	fastResponderSeconds = 3600.0
)

// tierScores maps subscription tiers to their normalized boost signal.
var tierScores = map[string]float64{
	"free":    0.0,
	"basic":   1.0 / 3.0,
	"premium": 2.0 / 3.0,
	"top":     1.0,
}

// Result is a scored candidate with the human-readable reasons that fired.
type Result struct {
	Score   float64
	Reasons []string
}

// Score computes the weighted sum of the four normalized signals for one
// candidate. Reasons are appended for signals strong enough to matter to a
// reader of the match plan.
func Score(facts repository.LeadFacts, c repository.Candidate, hist repository.History, w Weights) Result {
	var reasons []string

	specificity := 0.0
	switch {
	case c.ExactCategory:
		specificity = specificityExact
		reasons = append(reasons, "exact category match")
	case c.ParentCategory:
		specificity = specificityParent
		reasons = append(reasons, "related category match")
	}

	proximity := 0.0
	switch {
	case c.ExactPostcode:
		proximity = proximityExactPostcode
		reasons = append(reasons, "exact postal code match")
	case c.SameCity:
		proximity = proximitySameCity
		reasons = append(reasons, "same city")
	case sameRegion(facts.Postcode, c.Postcode):
		proximity = proximitySameRegion
	}

	tier := tierScores[c.SubscriptionTier]
	switch c.SubscriptionTier {
	case "top":
		reasons = append(reasons, "top-tier subscriber")
	case "premium":
		reasons = append(reasons, "premium subscriber")
	}

	responsiveness := neutralResponsiveness
	if hist.Responded > 0 {
		acceptRate := float64(hist.Accepted) / float64(hist.Responded)
		speed := 1.0 - clamp01(hist.AvgResponseSeconds/responseNormSeconds)
		responsiveness = 0.5*acceptRate + 0.5*speed
		if hist.AvgResponseSeconds > 0 && hist.AvgResponseSeconds <= fastResponderSeconds {
			reasons = append(reasons, "fast responder")
		}
	}

	score := w.CategorySpecificity*specificity +
		w.GeoProximity*proximity +
		w.TierBoost*tier +
		w.Responsiveness*responsiveness

	return Result{Score: score, Reasons: reasons}
}

// sameRegion compares the two-digit postal region prefix ("10" in "1012AB").
func sameRegion(a, b string) bool {
	if len(a) < 2 || len(b) < 2 {
		return false
	}
	return a[:2] == b[:2]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TierScore exposes the normalized tier signal, used by weight validation.
func TierScore(tier string) (float64, error) {
	score, ok := tierScores[tier]
	if !ok {
		return 0, fmt.Errorf("unknown subscription tier %q", tier)
	}
	return score, nil
}
