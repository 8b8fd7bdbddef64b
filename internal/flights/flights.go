// Package flights searches Google Flights itineraries.
package flights

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Trip types accepted by a search.
const (
	TripOneWay    = "one-way"
	TripRoundTrip = "round-trip"
	TripMultiCity = "multi-city"
)

// Seat classes accepted by a search.
const (
	SeatEconomy        = "economy"
	SeatPremiumEconomy = "premium-economy"
	SeatBusiness       = "business"
	SeatFirst          = "first"
)

// Fetch modes.
const (
	ModeFallback = "fallback" // plain HTTP fetch
	ModeLive     = "live"     // headless browser render
	ModeLocal    = "local"    // bundled sample data
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid flight search request")

// SearchRequest describes one flight search.
type SearchRequest struct {
	Date          string `json:"date"`
	FromAirport   string `json:"from_airport"`
	ToAirport     string `json:"to_airport"`
	Trip          string `json:"trip"`
	Seat          string `json:"seat"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children"`
	InfantsInSeat int    `json:"infants_in_seat"`
	InfantsOnLap  int    `json:"infants_on_lap"`
	FetchMode     string `json:"fetch_mode"`
}

// Normalize fills defaults and upper-cases airport codes.
func (r *SearchRequest) Normalize() {
	r.FromAirport = strings.ToUpper(strings.TrimSpace(r.FromAirport))
	r.ToAirport = strings.ToUpper(strings.TrimSpace(r.ToAirport))
	if r.Trip == "" {
		r.Trip = TripOneWay
	}
	if r.Seat == "" {
		r.Seat = SeatEconomy
	}
	if r.FetchMode == "" {
		r.FetchMode = ModeFallback
	}
}

// Validate checks the request invariants.
func (r SearchRequest) Validate() error {
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if !isIATA(r.FromAirport) {
		return fmt.Errorf("%w: from_airport must be a 3-letter IATA code", ErrInvalidRequest)
	}
	if !isIATA(r.ToAirport) {
		return fmt.Errorf("%w: to_airport must be a 3-letter IATA code", ErrInvalidRequest)
	}
	switch r.Trip {
	case TripOneWay, TripRoundTrip, TripMultiCity:
	default:
		return fmt.Errorf("%w: unknown trip type %q", ErrInvalidRequest, r.Trip)
	}
	switch r.Seat {
	case SeatEconomy, SeatPremiumEconomy, SeatBusiness, SeatFirst:
	default:
		return fmt.Errorf("%w: unknown seat class %q", ErrInvalidRequest, r.Seat)
	}
	if r.Adults < 1 {
		return fmt.Errorf("%w: adults must be at least 1", ErrInvalidRequest)
	}
	if r.Children < 0 || r.InfantsInSeat < 0 || r.InfantsOnLap < 0 {
		return fmt.Errorf("%w: passenger counts must not be negative", ErrInvalidRequest)
	}
	if total := r.Adults + r.Children + r.InfantsInSeat + r.InfantsOnLap; total > 9 {
		return fmt.Errorf("%w: at most 9 travellers per booking, got %d", ErrInvalidRequest, total)
	}
	if r.InfantsOnLap > r.Adults {
		return fmt.Errorf("%w: each lap infant needs an adult", ErrInvalidRequest)
	}
	switch r.FetchMode {
	case ModeFallback, ModeLive, ModeLocal:
	default:
		return fmt.Errorf("%w: unknown fetch_mode %q", ErrInvalidRequest, r.FetchMode)
	}
	return nil
}

func isIATA(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// Flight is one itinerary option.
type Flight struct {
	Name             string   `json:"name"`
	Departure        string   `json:"departure"`
	Arrival          string   `json:"arrival"`
	ArrivalTimeAhead *string  `json:"arrival_time_ahead"`
	Duration         *string  `json:"duration"`
	Stops            *int     `json:"stops"`
	Delay            *string  `json:"delay"`
	Price            *float64 `json:"price"`
	IsBest           *bool    `json:"is_best"`
}

// Result is a completed search.
type Result struct {
	Flights []Flight `json:"flights"`
	// Google's price-level hint for the route: low, typical, or high.
	CurrentPrice *string `json:"current_price"`
}

var priceRe = regexp.MustCompile(`[\d,.]+`)

// ParsePrice extracts a numeric price from a scraped string like "$1,236".
// Returns nil when no number is present.
func ParsePrice(s string) *float64 {
	m := priceRe.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseStops converts scraped stop text to a count. "Nonstop" is 0;
// "1 stop" and "2 stops" parse to their number; unknown text is nil.
func ParseStops(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.EqualFold(s, "nonstop") || strings.EqualFold(s, "non-stop") {
		zero := 0
		return &zero
	}
	fields := strings.Fields(s)
	if n, err := strconv.Atoi(fields[0]); err == nil {
		return &n
	}
	return nil
}
