package plans

import (
	"errors"
	"reflect"
	"testing"
)

func rec(id string, r500, r1000, r2000 float64) PlanRecord {
	return PlanRecord{
		ID:       id,
		IsActive: true,
		RateAtTier: map[Tier]float64{
			Tier500:  r500,
			Tier1000: r1000,
			Tier2000: r2000,
		},
	}
}

func ids(list []PlanRecord) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.ID
	}
	return out
}

func TestRankPlans_RejectsUnknownTier(t *testing.T) {
	for _, tier := range []Tier{0, 750, 1500, -500} {
		if _, err := RankPlans([]PlanRecord{rec("a", 1, 1, 1)}, tier); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("tier=%d: expected ErrInvalidInput, got %v", tier, err)
		}
	}
}

func TestRankPlans_SortsAscendingByTierRate(t *testing.T) {
	raw := []PlanRecord{
		rec("a", 14.0, 12.0, 11.0),
		rec("b", 10.0, 9.5, 9.0),
		rec("c", 12.0, 10.5, 10.0),
	}
	got, err := RankPlans(raw, Tier1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"b", "c", "a"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("order = %v, want %v", ids(got), want)
	}
	// Same input ranked at a different tier can reorder.
	got, err = RankPlans(raw, Tier500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"b", "c", "a"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("order at 500 = %v, want %v", ids(got), want)
	}
}

func TestRankPlans_DedupesKeepingFirstOccurrence(t *testing.T) {
	first := rec("a", 10, 9, 8)
	first.Name = "first"
	dup := rec("a", 99, 99, 99)
	dup.Name = "late duplicate"

	got, err := RankPlans([]PlanRecord{first, rec("b", 11, 9, 7), dup}, Tier1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 plans after dedup, got %d", len(got))
	}
	for _, p := range got {
		if p.ID == "a" && p.Name != "first" {
			t.Fatalf("dedup kept %q instead of first occurrence", p.Name)
		}
	}
	// a and b tie at rate 9; a appeared first in the input, so a sorts first.
	if want := []string{"a", "b"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("tie-break order = %v, want %v", ids(got), want)
	}
}

func TestRankPlans_StableOnTies(t *testing.T) {
	raw := []PlanRecord{
		rec("x", 10, 9.9, 9),
		rec("y", 11, 9.9, 8),
		rec("z", 12, 9.9, 7),
	}
	got, err := RankPlans(raw, Tier1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"x", "y", "z"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("tied order = %v, want input order %v", ids(got), want)
	}
}

func TestRankPlans_IdempotentOnSortedInput(t *testing.T) {
	raw := []PlanRecord{
		rec("a", 14, 12, 11),
		rec("b", 10, 9, 9),
	}
	once, err := RankPlans(raw, Tier2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := RankPlans(once, Tier2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("ranking a ranked list changed it: %v vs %v", ids(once), ids(twice))
	}
}

func TestRankPlans_DoesNotMutateInput(t *testing.T) {
	raw := []PlanRecord{
		rec("b", 11, 10, 9),
		rec("a", 10, 9, 8),
		rec("b", 99, 99, 99),
	}
	before := ids(raw)
	if _, err := RankPlans(raw, Tier500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids(raw), before) {
		t.Fatalf("input slice mutated: %v", ids(raw))
	}
}

func TestRankPlans_DoesNotFilterInactive(t *testing.T) {
	inactive := rec("a", 10, 9, 8)
	inactive.IsActive = false
	got, err := RankPlans([]PlanRecord{inactive, rec("b", 11, 10, 9)}, Tier500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("engine must not drop inactive plans; got %d of 2", len(got))
	}
}

func TestNearestTier(t *testing.T) {
	cases := []struct {
		usage int
		want  Tier
	}{
		{100, Tier500},
		{500, Tier500},
		{749, Tier500},
		{750, Tier1000},
		{1000, Tier1000},
		{1499, Tier1000},
		{1500, Tier2000},
		{2600, Tier2000},
	}
	for _, tc := range cases {
		if got := NearestTier(tc.usage); got != tc.want {
			t.Fatalf("NearestTier(%d) = %d, want %d", tc.usage, got, tc.want)
		}
	}
}
