package models

import (
	"errors"
	"time"
)

// Names of the CNN sub-indexes the daily fetch tracks.
// IndexFearAndGreed is the one that drives alerting.
const IndexFearAndGreed = "fear_and_greed"

// SupportedIndexes lists every sub-index present in the CNN payload.
var SupportedIndexes = []string{
	IndexFearAndGreed,
	"market_momentum_sp500",
	"market_momentum_sp125",
	"stock_price_strength",
	"stock_price_breadth",
	"put_call_options",
	"market_volatility_vix",
	"market_volatility_vix_50",
	"junk_bond_demand",
	"safe_haven_demand",
}

// Reading is one daily observation of one sentiment sub-index.
type Reading struct {
	IndexName  string    `json:"index_name"`
	Date       string    `json:"date"` // YYYY-MM-DD, derived from ObservedAt
	Score      float64   `json:"score"`
	Rating     string    `json:"rating,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
	Source     string    `json:"source"`
}

// Validate checks reading field constraints.
func (r *Reading) Validate() error {
	if r.IndexName == "" {
		return errors.New("index name must not be empty")
	}
	if r.Date == "" {
		return errors.New("date must not be empty")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return errors.New("date must be YYYY-MM-DD")
	}
	if r.ObservedAt.IsZero() {
		return errors.New("observed at must be set")
	}
	if r.Source == "" {
		return errors.New("source must not be empty")
	}
	return nil
}
