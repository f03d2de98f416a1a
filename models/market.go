package models

import "time"

// ComparableListing is one market comparable returned by the valuation
// search.
type ComparableListing struct {
	Source      string  `json:"source"`
	Price       float64 `json:"price"`
	Mileage     int     `json:"mileage"`
	Distance    string  `json:"distance,omitempty"`
	ListingNote string  `json:"listing_note,omitempty"`
}

// MarketValuation is the externally derived fair-market-value reference for
// a make/model/year, cached with an expiry.
type MarketValuation struct {
	ID               string              `json:"id"`
	Make             string              `json:"make"`
	Model            string              `json:"model"`
	Year             int                 `json:"year"`
	Region           string              `json:"region"`
	FairMarketValue  float64             `json:"fair_market_value"`
	PriceRangeLow    float64             `json:"price_range_low"`
	PriceRangeHigh   float64             `json:"price_range_high"`
	Comparables      []ComparableListing `json:"comparables"`
	PotentialSavings float64             `json:"potential_savings"`
	LastUpdated      time.Time           `json:"last_updated"`
	ExpiresAt        time.Time           `json:"expires_at"`
}
