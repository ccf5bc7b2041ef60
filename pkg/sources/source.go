package sources

import (
	"context"
	"errors"
)

// PlanListing is one retail electricity plan as published by a source,
// before it is persisted.
type PlanListing struct {
	ID         string  `json:"id"`
	Provider   string  `json:"provider"`
	Name       string  `json:"name"`
	TermMonths int     `json:"term_months"`
	Rate500    float64 `json:"rate_500"`
	Rate1000   float64 `json:"rate_1000"`
	Rate2000   float64 `json:"rate_2000"`
	EFLURL     string  `json:"efl_url,omitempty"`
	Zips       []string `json:"zips,omitempty"`
}

// Source is the interface all plan sources implement.
type Source interface {
	// Key returns the unique identifier for the source (e.g., "powertochoose").
	Key() string
	// Name returns the human-readable name of the source.
	Name() string
	// LandingURL returns the URL of the page the source's data is published on.
	LandingURL() string
	// Fetch retrieves the current plan listings from the source.
	Fetch(ctx context.Context) ([]PlanListing, error)
}

// Common errors shared across sources.
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrParseFailed    = errors.New("failed to parse plan listings")
	ErrNoListings     = errors.New("source returned no plan listings")
)
