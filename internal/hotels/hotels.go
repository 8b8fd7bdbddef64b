// Package hotels searches Google Travel hotel listings.
package hotels

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Fetch modes.
const (
	ModeLive  = "live"  // headless browser render
	ModeLocal = "local" // bundled sample data
)

// DefaultLimit caps results when the request does not set one.
const DefaultLimit = 3

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid hotel search request")

// SearchRequest describes one hotel search.
type SearchRequest struct {
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
	Location     string `json:"location"`
	Adults       int    `json:"adults"`
	Children     int    `json:"children"`
	FetchMode    string `json:"fetch_mode"`
	Limit        int    `json:"limit"`
	Debug        bool   `json:"debug"`
}

// Normalize fills defaults.
func (r *SearchRequest) Normalize() {
	r.Location = strings.TrimSpace(r.Location)
	if r.FetchMode == "" {
		r.FetchMode = ModeLive
	}
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
}

// Validate checks the request invariants.
func (r SearchRequest) Validate() error {
	checkin, err := time.Parse("2006-01-02", r.CheckinDate)
	if err != nil {
		return fmt.Errorf("%w: checkin_date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	checkout, err := time.Parse("2006-01-02", r.CheckoutDate)
	if err != nil {
		return fmt.Errorf("%w: checkout_date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if !checkout.After(checkin) {
		return fmt.Errorf("%w: checkout_date must be after checkin_date", ErrInvalidRequest)
	}
	if r.Location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidRequest)
	}
	if r.Adults < 1 {
		return fmt.Errorf("%w: adults must be at least 1", ErrInvalidRequest)
	}
	if r.Children < 0 {
		return fmt.Errorf("%w: children must not be negative", ErrInvalidRequest)
	}
	if r.Limit < 1 {
		return fmt.Errorf("%w: limit must be at least 1", ErrInvalidRequest)
	}
	switch r.FetchMode {
	case ModeLive, ModeLocal:
	default:
		return fmt.Errorf("%w: unknown fetch_mode %q", ErrInvalidRequest, r.FetchMode)
	}
	return nil
}

// Hotel is one listing.
type Hotel struct {
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	Rating    *float64 `json:"rating"`
	URL       *string  `json:"url"`
	Amenities []string `json:"amenities"`
}

// Result is a completed search.
type Result struct {
	Hotels      []Hotel  `json:"hotels"`
	LowestPrice *float64 `json:"lowest_price"`
	// Price of the first (most relevant) listing.
	CurrentPrice *float64 `json:"current_price"`
}

// Finalize truncates to the limit and computes the price summaries.
func (r *Result) Finalize(limit int) {
	if limit > 0 && len(r.Hotels) > limit {
		r.Hotels = r.Hotels[:limit]
	}
	r.LowestPrice = nil
	r.CurrentPrice = nil
	for i, h := range r.Hotels {
		if h.Price == nil {
			continue
		}
		if i == 0 || r.CurrentPrice == nil {
			v := *h.Price
			r.CurrentPrice = &v
		}
		if r.LowestPrice == nil || *h.Price < *r.LowestPrice {
			v := *h.Price
			r.LowestPrice = &v
		}
	}
}
