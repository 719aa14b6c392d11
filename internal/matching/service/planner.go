package service

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"gids_backend/internal/matching/repository"
	"gids_backend/internal/matching/scoring"
)

// PlanEntry is one planned offer: a company with its score, reasons and
// dense 1-based rank.
type PlanEntry struct {
	CompanyID   uuid.UUID
	CompanyName string
	Score       float64
	Rank        int
	Reasons     []string
}

// Plan is an ordered proposal of offers for one lead. TotalEligible counts
// candidates before truncation to the fan-out cap, so callers can see how
// competitive the match was.
type Plan struct {
	LeadID        uuid.UUID
	Entries       []PlanEntry
	TotalEligible int
}

// buildPlan scores every candidate, orders by score descending with company
// id ascending as the deterministic tie-break, truncates to maxFanout and
// assigns dense ranks. An empty candidate set yields an empty plan.
func buildPlan(
	facts repository.LeadFacts,
	candidates []repository.Candidate,
	histories map[uuid.UUID]repository.History,
	weights scoring.Weights,
	maxFanout int,
) Plan {
	plan := Plan{LeadID: facts.LeadID, TotalEligible: len(candidates)}
	if len(candidates) == 0 {
		return plan
	}

	entries := make([]PlanEntry, 0, len(candidates))
	for _, c := range candidates {
		result := scoring.Score(facts, c, histories[c.CompanyID], weights)
		entries = append(entries, PlanEntry{
			CompanyID:   c.CompanyID,
			CompanyName: c.Name,
			Score:       result.Score,
			Reasons:     result.Reasons,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return bytes.Compare(entries[i].CompanyID[:], entries[j].CompanyID[:]) < 0
	})

	if maxFanout > 0 && len(entries) > maxFanout {
		entries = entries[:maxFanout]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	plan.Entries = entries
	return plan
}

// mergeCandidates unions two candidate sets, keeping the first occurrence
// of each company. The postcode set goes first so its match flags win.
func mergeCandidates(primary, fallback []repository.Candidate) []repository.Candidate {
	if len(fallback) == 0 {
		return primary
	}
	seen := make(map[uuid.UUID]struct{}, len(primary))
	merged := make([]repository.Candidate, 0, len(primary)+len(fallback))
	for _, c := range primary {
		seen[c.CompanyID] = struct{}{}
		merged = append(merged, c)
	}
	for _, c := range fallback {
		if _, ok := seen[c.CompanyID]; ok {
			continue
		}
		merged = append(merged, c)
	}
	return merged
}
