package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/wattfinder/wattfinder/internal/storage"
	"github.com/wattfinder/wattfinder/internal/usage"
)

var ErrNoPlans = errors.New("no plans available")

// Service answers plan comparison queries against a storage backend.
type Service struct {
	store storage.Storage
}

func NewService(st storage.Storage) *Service {
	return &Service{store: st}
}

// Compare loads the plans covering zip, drops inactive ones, and returns them
// ranked by the rate at tier. The coverage join can repeat a plan; RankPlans
// deduplicates.
func (s *Service) Compare(ctx context.Context, zip string, tier Tier) ([]PlanRecord, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: tier must be one of 500, 1000, 2000; got %d", ErrInvalidInput, tier)
	}

	rows, err := s.store.ListPlansForZip(ctx, zip)
	if err != nil {
		return nil, fmt.Errorf("load plans for zip %s: %w", zip, err)
	}

	var records []PlanRecord
	for _, row := range rows {
		if !row.IsActive {
			continue
		}
		records = append(records, fromStored(row))
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for zip %s", ErrNoPlans, zip)
	}

	return RankPlans(records, tier)
}

// CompareForProfile estimates the household's usage, picks the nearest tier,
// and ranks the plans covering its ZIP at that tier.
func (s *Service) CompareForProfile(ctx context.Context, profile usage.HouseholdProfile) (*usage.Estimate, Tier, []PlanRecord, error) {
	est, err := usage.EstimateUsage(profile)
	if err != nil {
		return nil, 0, nil, err
	}
	tier := NearestTier(est.TotalUsage)

	ranked, err := s.Compare(ctx, profile.ZipCode, tier)
	if err != nil {
		return nil, 0, nil, err
	}
	return est, tier, ranked, nil
}

func fromStored(p storage.Plan) PlanRecord {
	return PlanRecord{
		ID:         p.ID,
		Provider:   p.Provider,
		Name:       p.Name,
		TermMonths: p.TermMonths,
		RateAtTier: map[Tier]float64{
			Tier500:  p.Rate500,
			Tier1000: p.Rate1000,
			Tier2000: p.Rate2000,
		},
		EFLURL:   p.EFLURL,
		IsActive: p.IsActive,
	}
}

// toStored converts an engine record back to its storage shape.
func toStored(p PlanRecord) storage.Plan {
	return storage.Plan{
		ID:         p.ID,
		Provider:   p.Provider,
		Name:       p.Name,
		TermMonths: p.TermMonths,
		Rate500:    p.Rate(Tier500),
		Rate1000:   p.Rate(Tier1000),
		Rate2000:   p.Rate(Tier2000),
		EFLURL:     p.EFLURL,
		IsActive:   p.IsActive,
	}
}

// SavePlan persists an engine record.
func (s *Service) SavePlan(ctx context.Context, p PlanRecord) error {
	return s.store.UpsertPlan(ctx, toStored(p))
}
