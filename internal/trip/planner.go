// Package trip composes flight and hotel searches into trip plans.
package trip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"traveld/internal/flights"
	"traveld/internal/hotels"
)

// ErrInvalidRequest wraps plan validation failures.
var ErrInvalidRequest = errors.New("invalid trip plan request")

// ErrUpstream marks scrape failures in a required leg; handlers map it
// to 502.
var ErrUpstream = errors.New("upstream search failed")

// FlightSearcher is the flight search dependency.
type FlightSearcher interface {
	Search(ctx context.Context, req flights.SearchRequest) (*flights.Result, error)
}

// HotelSearcher is the hotel search dependency.
type HotelSearcher interface {
	Search(ctx context.Context, req hotels.SearchRequest) (*hotels.Result, error)
}

// HotelPreferences filter the hotel candidates.
type HotelPreferences struct {
	StarRating       *int     `json:"star_rating"`
	MaxPricePerNight *float64 `json:"max_price_per_night"`
	Amenities        []string `json:"amenities"`
}

// PlanRequest describes a trip to plan.
type PlanRequest struct {
	Origin           string            `json:"origin"`
	Destination      string            `json:"destination"`
	DepartDate       string            `json:"depart_date"`
	ReturnDate       string            `json:"return_date"`
	Adults           int               `json:"adults"`
	Children         int               `json:"children"`
	HotelPreferences *HotelPreferences `json:"hotel_preferences"`
	MaxTotalBudget   *float64          `json:"max_total_budget"`
}

// PlanResponse is the assembled plan.
type PlanResponse struct {
	BestOutboundFlight *flights.Flight `json:"best_outbound_flight"`
	BestReturnFlight   *flights.Flight `json:"best_return_flight"`
	BestHotel          *hotels.Hotel   `json:"best_hotel"`
	TotalEstimatedCost *float64        `json:"total_estimated_cost"`
	PerPersonPerDay    *float64        `json:"per_person_per_day"`
	Breakdown          map[string]any  `json:"breakdown"`
	Suggestions        *string         `json:"suggestions"`
}

// Modes supplies the fetch modes for the flight and hotel legs. Reading
// through a func lets config reloads take effect per request.
type Modes func() (flightMode, hotelMode string)

// FixedModes returns a Modes that always yields the given pair.
func FixedModes(flightMode, hotelMode string) Modes {
	return func() (string, string) { return flightMode, hotelMode }
}

// Planner runs the three legs and assembles the result.
type Planner struct {
	flights FlightSearcher
	hotels  HotelSearcher
	logger  *zap.Logger
	modes   Modes

	// For depart-date-in-the-past checks; overridable in tests.
	now func() time.Time
}

// NewPlanner wires the searchers.
func NewPlanner(f FlightSearcher, h HotelSearcher, modes Modes, logger *zap.Logger) *Planner {
	if modes == nil {
		modes = FixedModes(flights.ModeLocal, hotels.ModeLive)
	}
	return &Planner{
		flights: f,
		hotels:  h,
		logger:  logger,
		modes:   modes,
		now:     time.Now,
	}
}

// Validate checks the request invariants, including that the departure
// is not in the past.
func (p *Planner) Validate(req PlanRequest) error {
	depart, err := time.Parse("2006-01-02", req.DepartDate)
	if err != nil {
		return fmt.Errorf("%w: depart_date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	today := p.now().UTC().Truncate(24 * time.Hour)
	if depart.Before(today) {
		return fmt.Errorf("%w: depart_date cannot be in the past", ErrInvalidRequest)
	}
	if req.ReturnDate != "" {
		ret, err := time.Parse("2006-01-02", req.ReturnDate)
		if err != nil {
			return fmt.Errorf("%w: return_date must be YYYY-MM-DD", ErrInvalidRequest)
		}
		if ret.Before(depart) {
			return fmt.Errorf("%w: return_date cannot precede depart_date", ErrInvalidRequest)
		}
	}
	if req.Adults < 1 {
		return fmt.Errorf("%w: adults must be at least 1", ErrInvalidRequest)
	}
	if req.Children < 0 {
		return fmt.Errorf("%w: children must not be negative", ErrInvalidRequest)
	}
	return nil
}

// Plan searches all legs and assembles the cheapest viable combination.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*PlanResponse, error) {
	if err := p.Validate(req); err != nil {
		return nil, err
	}

	flightMode, hotelMode := p.modes()
	if flightMode == "" {
		flightMode = flights.ModeLocal
	}
	if hotelMode == "" {
		hotelMode = hotels.ModeLive
	}

	var (
		bestOutbound *flights.Flight
		bestReturn   *flights.Flight
		hotelResult  *hotels.Result
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := p.flights.Search(gctx, flights.SearchRequest{
			Date:        req.DepartDate,
			FromAirport: req.Origin,
			ToAirport:   req.Destination,
			Trip:        flights.TripOneWay,
			Seat:        flights.SeatEconomy,
			Adults:      req.Adults,
			Children:    req.Children,
			FetchMode:   flightMode,
		})
		if err != nil {
			if errors.Is(err, flights.ErrInvalidRequest) {
				return err
			}
			return fmt.Errorf("%w: outbound flight search failed: %v", ErrUpstream, err)
		}
		bestOutbound = cheapestFlight(res.Flights)
		return nil
	})

	if req.ReturnDate != "" {
		g.Go(func() error {
			bestReturn = p.searchReturn(gctx, req, flightMode)
			return nil
		})
	}

	g.Go(func() error {
		res, err := p.hotels.Search(gctx, hotels.SearchRequest{
			CheckinDate:  req.DepartDate,
			CheckoutDate: p.checkoutDate(req),
			Location:     req.Destination,
			Adults:       req.Adults,
			Children:     req.Children,
			FetchMode:    hotelMode,
			Limit:        10,
		})
		if err != nil {
			if errors.Is(err, hotels.ErrInvalidRequest) {
				return err
			}
			return fmt.Errorf("%w: hotel search failed: %v", ErrUpstream, err)
		}
		hotelResult = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	bestHotel := p.pickHotel(hotelResult, req.HotelPreferences)

	travellers := req.Adults + req.Children
	nights := p.nights(req)

	var totalFlightCost float64
	if bestOutbound != nil && bestOutbound.Price != nil {
		totalFlightCost += *bestOutbound.Price * float64(travellers)
	}
	if bestReturn != nil && bestReturn.Price != nil {
		totalFlightCost += *bestReturn.Price * float64(travellers)
	}
	var totalHotelCost float64
	if bestHotel != nil && bestHotel.Price != nil {
		totalHotelCost = *bestHotel.Price * float64(nights)
	}
	total := totalFlightCost + totalHotelCost

	var perPersonPerDay *float64
	if nights > 0 && travellers > 0 {
		v := total / (float64(travellers) * float64(nights))
		perPersonPerDay = &v
	}

	resp := &PlanResponse{
		BestOutboundFlight: bestOutbound,
		BestReturnFlight:   bestReturn,
		BestHotel:          bestHotel,
		TotalEstimatedCost: &total,
		PerPersonPerDay:    perPersonPerDay,
		Breakdown: map[string]any{
			"flight":   totalFlightCost,
			"hotel":    totalHotelCost,
			"nights":   nights,
			"adults":   req.Adults,
			"children": req.Children,
		},
	}

	if req.MaxTotalBudget != nil && total > *req.MaxTotalBudget {
		s := "Consider adjusting your dates, reducing hotel star rating, or increasing your budget."
		resp.Suggestions = &s
	}

	return resp, nil
}

// searchReturn tries every trip type and keeps the cheapest priced
// flight. Per-type failures are warnings, not fatal.
func (p *Planner) searchReturn(ctx context.Context, req PlanRequest, fetchMode string) *flights.Flight {
	var best *flights.Flight
	for _, tripType := range []string{flights.TripOneWay, flights.TripRoundTrip, flights.TripMultiCity} {
		res, err := p.flights.Search(ctx, flights.SearchRequest{
			Date:        req.ReturnDate,
			FromAirport: req.Destination,
			ToAirport:   req.Origin,
			Trip:        tripType,
			Seat:        flights.SeatEconomy,
			Adults:      req.Adults,
			Children:    req.Children,
			FetchMode:   fetchMode,
		})
		if err != nil {
			p.logger.Warn("return flight search failed",
				zap.String("trip_type", tripType), zap.Error(err))
			continue
		}
		candidate := cheapestFlight(res.Flights)
		if candidate == nil {
			continue
		}
		if best == nil || *candidate.Price < *best.Price {
			best = candidate
		}
	}
	return best
}

// checkoutDate derives the hotel checkout. Without a return date the
// stay is a single night.
func (p *Planner) checkoutDate(req PlanRequest) string {
	if req.ReturnDate != "" && req.ReturnDate != req.DepartDate {
		return req.ReturnDate
	}
	depart, _ := time.Parse("2006-01-02", req.DepartDate)
	return depart.AddDate(0, 0, 1).Format("2006-01-02")
}

func (p *Planner) nights(req PlanRequest) int {
	if req.ReturnDate == "" {
		return 1
	}
	depart, _ := time.Parse("2006-01-02", req.DepartDate)
	ret, _ := time.Parse("2006-01-02", req.ReturnDate)
	return int(ret.Sub(depart).Hours() / 24)
}

func (p *Planner) pickHotel(res *hotels.Result, prefs *HotelPreferences) *hotels.Hotel {
	if res == nil {
		return nil
	}
	candidates := res.Hotels
	if prefs != nil {
		candidates = filterHotels(candidates, *prefs)
	}
	return cheapestHotel(candidates)
}

func filterHotels(in []hotels.Hotel, prefs HotelPreferences) []hotels.Hotel {
	out := in
	if prefs.StarRating != nil {
		out = keepHotels(out, func(h hotels.Hotel) bool {
			return h.Rating != nil && *h.Rating >= float64(*prefs.StarRating)
		})
	}
	if prefs.MaxPricePerNight != nil {
		out = keepHotels(out, func(h hotels.Hotel) bool {
			return h.Price != nil && *h.Price <= *prefs.MaxPricePerNight
		})
	}
	if len(prefs.Amenities) > 0 {
		out = keepHotels(out, func(h hotels.Hotel) bool {
			return hasAllAmenities(h, prefs.Amenities)
		})
	}
	return out
}

func keepHotels(in []hotels.Hotel, keep func(hotels.Hotel) bool) []hotels.Hotel {
	var out []hotels.Hotel
	for _, h := range in {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

func hasAllAmenities(h hotels.Hotel, required []string) bool {
	if len(h.Amenities) == 0 {
		return false
	}
	for _, want := range required {
		found := false
		for _, have := range h.Amenities {
			if strings.EqualFold(have, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// cheapestFlight returns the lowest-priced flight; unpriced entries
// never win.
func cheapestFlight(in []flights.Flight) *flights.Flight {
	var best *flights.Flight
	for i := range in {
		if in[i].Price == nil {
			continue
		}
		if best == nil || *in[i].Price < *best.Price {
			best = &in[i]
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

func cheapestHotel(in []hotels.Hotel) *hotels.Hotel {
	var best *hotels.Hotel
	for i := range in {
		if in[i].Price == nil {
			continue
		}
		if best == nil || *in[i].Price < *best.Price {
			best = &in[i]
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}
