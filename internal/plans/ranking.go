package plans

import (
	"fmt"
	"sort"
)

// RankPlans deduplicates raw plan records by ID (first occurrence wins) and
// returns them sorted ascending by the rate quoted at the given tier. Ties
// preserve the relative input order of the tied records.
//
// The input is never mutated. Active-only filtering is the caller's contract;
// the engine does not inspect IsActive. The call either succeeds fully or
// fails with ErrInvalidInput for an unrecognized tier.
func RankPlans(raw []PlanRecord, tier Tier) ([]PlanRecord, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: tier must be one of 500, 1000, 2000; got %d", ErrInvalidInput, tier)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]PlanRecord, 0, len(raw))
	for _, p := range raw {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rate(tier) < out[j].Rate(tier)
	})

	return out, nil
}
