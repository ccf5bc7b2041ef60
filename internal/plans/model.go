// Package plans holds the electricity plan domain model and the ranking
// engine that orders plans by effective rate for a usage tier.
package plans

import "errors"

// ErrInvalidInput marks validation failures on caller-supplied arguments.
var ErrInvalidInput = errors.New("invalid input")

// Tier is a standardized monthly usage level used to quote comparable rates.
type Tier int

const (
	Tier500  Tier = 500
	Tier1000 Tier = 1000
	Tier2000 Tier = 2000
)

// Tiers lists the accepted usage tiers in ascending order.
func Tiers() []Tier { return []Tier{Tier500, Tier1000, Tier2000} }

// Valid reports whether t is one of the three accepted tiers.
func (t Tier) Valid() bool {
	return t == Tier500 || t == Tier1000 || t == Tier2000
}

// NearestTier rounds a usage estimate in kWh to the closest quoting tier.
// Midpoints round up, matching how the site presents "about 1,000 kWh" homes.
func NearestTier(totalUsage int) Tier {
	switch {
	case totalUsage < 750:
		return Tier500
	case totalUsage < 1500:
		return Tier1000
	default:
		return Tier2000
	}
}

// PlanRecord is a read-only snapshot of an electricity plan as consumed by the
// ranking engine. A plan may appear multiple times in a raw query result, once
// per geographic coverage row; identity is ID.
type PlanRecord struct {
	ID         string           `json:"id"`
	Provider   string           `json:"provider"`
	Name       string           `json:"name"`
	TermMonths int              `json:"termMonths"`
	RateAtTier map[Tier]float64 `json:"rateAtTier"`
	EFLURL     string           `json:"eflUrl,omitempty"`
	IsActive   bool             `json:"isActive"`
}

// Rate returns the cents-per-kWh rate quoted at the given tier.
func (p PlanRecord) Rate(t Tier) float64 {
	return p.RateAtTier[t]
}
