package usage

import (
	"errors"
	"math"
	"testing"

	"github.com/wattfinder/wattfinder/internal/climate"
)

func intPtr(v int) *int { return &v }

func baseProfile() HouseholdProfile {
	return HouseholdProfile{
		BedroomCount: 3,
		ZipCode:      "77001",
	}
}

func TestEstimateUsage_RejectsBadBedroomCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		p := baseProfile()
		p.BedroomCount = n
		if _, err := EstimateUsage(p); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("bedroomCount=%d: expected ErrInvalidInput, got %v", n, err)
		}
	}
}

func TestEstimateUsage_RejectsBadZip(t *testing.T) {
	for _, zip := range []string{"abc", "123", "123456", "7700a", ""} {
		p := baseProfile()
		p.ZipCode = zip
		if _, err := EstimateUsage(p); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("zip=%q: expected ErrInvalidInput, got %v", zip, err)
		}
	}
}

func TestEstimateUsage_AcceptsValidZip(t *testing.T) {
	p := baseProfile()
	p.ZipCode = "77001"
	if _, err := EstimateUsage(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEstimateUsage_TotalEqualsSumOfBuckets(t *testing.T) {
	p := baseProfile()
	p.HasElectricVehicle = true
	p.SquareFootage = intPtr(2400)

	e, err := EstimateUsage(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := e.BaseUsage + e.BedroomAdjustment + e.SquareFootageAdjustment +
		e.EVAdjustment + e.SolarAdjustment + e.ClimateAdjustment
	if got := int(math.Round(sum)); got != e.TotalUsage {
		t.Fatalf("TotalUsage=%d not reproducible from buckets (sum=%v)", e.TotalUsage, sum)
	}
}

func TestEstimateUsage_MonotonicInBedrooms(t *testing.T) {
	prev := 0
	for n := 1; n <= 6; n++ {
		p := baseProfile()
		p.BedroomCount = n
		e, err := EstimateUsage(p)
		if err != nil {
			t.Fatalf("bedrooms=%d: %v", n, err)
		}
		if e.TotalUsage < prev {
			t.Fatalf("estimate decreased from %d to %d at %d bedrooms", prev, e.TotalUsage, n)
		}
		prev = e.TotalUsage
	}
}

func TestEstimateUsage_MonotonicInSquareFootage(t *testing.T) {
	prev := 0
	for _, sqft := range []int{500, 1000, 1500, 2500, 4000} {
		p := baseProfile()
		p.SquareFootage = intPtr(sqft)
		e, err := EstimateUsage(p)
		if err != nil {
			t.Fatalf("sqft=%d: %v", sqft, err)
		}
		if e.TotalUsage < prev {
			t.Fatalf("estimate decreased from %d to %d at %d sqft", prev, e.TotalUsage, sqft)
		}
		prev = e.TotalUsage
	}
}

func TestEstimateUsage_SolarReducesByFixedScaledAmount(t *testing.T) {
	without := baseProfile()
	with := baseProfile()
	with.HasSolarPanels = true

	ew, err := EstimateUsage(without)
	if err != nil {
		t.Fatalf("without solar: %v", err)
	}
	es, err := EstimateUsage(with)
	if err != nil {
		t.Fatalf("with solar: %v", err)
	}
	if es.TotalUsage > ew.TotalUsage {
		t.Fatalf("solar increased the estimate: %d > %d", es.TotalUsage, ew.TotalUsage)
	}
	if es.SolarAdjustment != -SolarOffsetKWh() {
		t.Fatalf("solar bucket = %v, want %v", es.SolarAdjustment, -SolarOffsetKWh())
	}
	// Difference is the fixed reduction scaled by the climate multiplier.
	zone := climate.ResolveZone(with.ZipCode)
	wantDiff := SolarOffsetKWh() * (1 + zone.UsageModifier)
	gotDiff := float64(ew.TotalUsage - es.TotalUsage)
	if math.Abs(gotDiff-wantDiff) > 1 {
		t.Fatalf("solar difference = %v, want ~%v", gotDiff, wantDiff)
	}
}

func TestEstimateUsage_FloorApplies(t *testing.T) {
	// Smallest possible household with solar: subtotal can fall near or
	// below the floor; the final figure must never drop under it.
	p := HouseholdProfile{BedroomCount: 1, SquareFootage: intPtr(200), HasSolarPanels: true, ZipCode: "79901"}
	e, err := EstimateUsage(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if float64(e.TotalUsage) < MinTotalKWh() {
		t.Fatalf("TotalUsage=%d fell below floor %v", e.TotalUsage, MinTotalKWh())
	}
}

func TestEstimateUsage_ClimateZoneScenario(t *testing.T) {
	// 3 bedrooms, derived square footage, EV, no solar: Houston (0.15)
	// must come out strictly above Fort Worth (0.10).
	houston := HouseholdProfile{BedroomCount: 3, HasElectricVehicle: true, ZipCode: "77001"}
	fortWorth := HouseholdProfile{BedroomCount: 3, HasElectricVehicle: true, ZipCode: "76903"}

	eh, err := EstimateUsage(houston)
	if err != nil {
		t.Fatalf("houston: %v", err)
	}
	if eh.Zone.ID != climate.ZoneHouston || eh.Zone.UsageModifier != 0.15 {
		t.Fatalf("expected houston zone with 0.15 modifier, got %+v", eh.Zone)
	}

	ef, err := EstimateUsage(fortWorth)
	if err != nil {
		t.Fatalf("fort worth: %v", err)
	}
	if ef.Zone.ID != climate.ZoneFortWorth || ef.Zone.UsageModifier != 0.10 {
		t.Fatalf("expected fort-worth zone with 0.10 modifier, got %+v", ef.Zone)
	}

	if eh.TotalUsage <= ef.TotalUsage {
		t.Fatalf("houston estimate %d not greater than fort worth %d", eh.TotalUsage, ef.TotalUsage)
	}
}

func TestEstimateUsage_DerivedSquareFootageNeverRequired(t *testing.T) {
	p := baseProfile()
	p.SquareFootage = nil
	e, err := EstimateUsage(p)
	if err != nil {
		t.Fatalf("unexpected error without square footage: %v", err)
	}
	if e.SquareFootageAdjustment < 0 {
		t.Fatalf("square footage bucket must be non-negative, got %v", e.SquareFootageAdjustment)
	}
}
