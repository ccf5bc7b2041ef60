// Package usage estimates monthly household electricity usage in kWh from
// household attributes, decomposed into named contribution buckets.
package usage

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/wattfinder/wattfinder/internal/climate"
)

// ErrInvalidInput marks validation failures on user-supplied profile fields.
var ErrInvalidInput = errors.New("invalid input")

// Estimation constants, in kWh per month unless noted. These are fixed
// reference values, not tuned at runtime.
const (
	// baseUsageKWh is the always-on household baseline (fridge, lighting,
	// electronics).
	baseUsageKWh = 450.0

	// perExtraBedroomKWh is added for each bedroom beyond the first.
	perExtraBedroomKWh = 250.0

	// perSquareFootKWh applies to conditioned space above baselineSquareFeet.
	perSquareFootKWh   = 0.25
	baselineSquareFeet = 1000.0

	// assumedSquareFeetPerBedroom derives square footage when the caller did
	// not supply one.
	assumedSquareFeetPerBedroom = 700.0

	// evChargingKWh is the flat addition for home EV charging.
	evChargingKWh = 450.0

	// solarOffsetKWh is the flat reduction for rooftop solar. The only
	// negative bucket.
	solarOffsetKWh = 400.0

	// minTotalKWh floors the final estimate so degenerate profiles never
	// produce a zero or negative figure.
	minTotalKWh = 100.0
)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// HouseholdProfile describes the household a usage estimate is computed for.
// SquareFootage may be nil, in which case an assumed figure is derived from
// BedroomCount.
type HouseholdProfile struct {
	BedroomCount       int    `json:"bedroomCount"`
	SquareFootage      *int   `json:"squareFootage,omitempty"`
	HasElectricVehicle bool   `json:"hasElectricVehicle"`
	HasSolarPanels     bool   `json:"hasSolarPanels"`
	ZipCode            string `json:"zipCode"`
}

// Estimate is the decomposed usage estimate. TotalUsage equals the rounded sum
// of the buckets except when the minimum floor applies.
type Estimate struct {
	BaseUsage               float64      `json:"baseUsage"`
	BedroomAdjustment       float64      `json:"bedroomAdjustment"`
	SquareFootageAdjustment float64      `json:"squareFootageAdjustment"`
	EVAdjustment            float64      `json:"evAdjustment"`
	SolarAdjustment         float64      `json:"solarAdjustment"`
	ClimateAdjustment       float64      `json:"climateAdjustment"`
	TotalUsage              int          `json:"totalUsage"`
	Zone                    climate.Zone `json:"zone"`
}

// EstimateUsage computes a monthly usage estimate for the profile. It rejects
// non-positive bedroom counts and ZIP codes that are not exactly five digits;
// no other input can cause failure. Pure computation, no side effects.
func EstimateUsage(p HouseholdProfile) (*Estimate, error) {
	if p.BedroomCount <= 0 {
		return nil, fmt.Errorf("%w: bedroom count must be positive, got %d", ErrInvalidInput, p.BedroomCount)
	}
	if !zipPattern.MatchString(p.ZipCode) {
		return nil, fmt.Errorf("%w: zip code must be 5 digits, got %q", ErrInvalidInput, p.ZipCode)
	}

	e := &Estimate{BaseUsage: baseUsageKWh}

	e.BedroomAdjustment = perExtraBedroomKWh * float64(p.BedroomCount-1)

	sqft := assumedSquareFeetPerBedroom * float64(p.BedroomCount)
	if p.SquareFootage != nil {
		sqft = float64(*p.SquareFootage)
	}
	if sqft > baselineSquareFeet {
		e.SquareFootageAdjustment = perSquareFootKWh * (sqft - baselineSquareFeet)
	}

	if p.HasElectricVehicle {
		e.EVAdjustment = evChargingKWh
	}
	if p.HasSolarPanels {
		e.SolarAdjustment = -solarOffsetKWh
	}

	// Climate scales the full pre-climate subtotal rather than adding a flat
	// amount.
	subtotal := e.BaseUsage + e.BedroomAdjustment + e.SquareFootageAdjustment + e.EVAdjustment + e.SolarAdjustment
	e.Zone = climate.ResolveZone(p.ZipCode)
	e.ClimateAdjustment = subtotal * e.Zone.UsageModifier

	total := subtotal + e.ClimateAdjustment
	if total < minTotalKWh {
		total = minTotalKWh
	}
	e.TotalUsage = int(math.Round(total))

	return e, nil
}

// MinTotalKWh exposes the estimate floor for callers and tests.
func MinTotalKWh() float64 { return minTotalKWh }

// SolarOffsetKWh exposes the fixed solar reduction constant.
func SolarOffsetKWh() float64 { return solarOffsetKWh }
