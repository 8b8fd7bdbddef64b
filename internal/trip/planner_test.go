package trip

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"traveld/internal/flights"
	"traveld/internal/hotels"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubFlights struct {
	mu       sync.Mutex
	requests []flights.SearchRequest
	// keyed by "from-to-trip"; fallback to err
	results map[string]*flights.Result
	err     error
}

func (s *stubFlights) Search(ctx context.Context, req flights.SearchRequest) (*flights.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.results != nil {
		if res, ok := s.results[req.FromAirport+"-"+req.ToAirport+"-"+req.Trip]; ok {
			return res, nil
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &flights.Result{}, nil
}

type stubHotels struct {
	mu       sync.Mutex
	requests []hotels.SearchRequest
	result   *hotels.Result
	err      error
}

func (s *stubHotels) Search(ctx context.Context, req hotels.SearchRequest) (*hotels.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func price(v float64) *float64 { return &v }

func flight(name string, p *float64) flights.Flight {
	return flights.Flight{Name: name, Departure: "8:00 AM", Arrival: "11:00 AM", Price: p}
}

func fixedNow() time.Time {
	return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

func newTestPlanner(t *testing.T, f FlightSearcher, h HotelSearcher) *Planner {
	t.Helper()
	p := NewPlanner(f, h, FixedModes(flights.ModeLocal, hotels.ModeLocal), zaptest.NewLogger(t))
	p.now = fixedNow
	return p
}

func validPlan() PlanRequest {
	return PlanRequest{
		Origin:      "LHR",
		Destination: "CDG",
		DepartDate:  "2026-09-10",
		ReturnDate:  "2026-09-13",
		Adults:      2,
		Children:    0,
	}
}

func TestPlanner_Validate(t *testing.T) {
	p := newTestPlanner(t, &stubFlights{}, &stubHotels{result: &hotels.Result{}})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, p.Validate(validPlan()))
	})

	cases := []struct {
		name   string
		mutate func(*PlanRequest)
	}{
		{"bad depart date", func(r *PlanRequest) { r.DepartDate = "tomorrow" }},
		{"depart in the past", func(r *PlanRequest) { r.DepartDate = "2026-08-31" }},
		{"bad return date", func(r *PlanRequest) { r.ReturnDate = "eventually" }},
		{"return before depart", func(r *PlanRequest) { r.ReturnDate = "2026-09-09" }},
		{"no adults", func(r *PlanRequest) { r.Adults = 0 }},
		{"negative children", func(r *PlanRequest) { r.Children = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validPlan()
			tc.mutate(&req)
			err := p.Validate(req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestPlanner_Plan_RoundTrip(t *testing.T) {
	fs := &stubFlights{results: map[string]*flights.Result{
		"LHR-CDG-one-way": {Flights: []flights.Flight{
			flight("Skyline Air", price(120)),
			flight("Pacific Wings", price(95)),
			flight("Ghost Air", nil),
		}},
		"CDG-LHR-one-way":    {Flights: []flights.Flight{flight("Skyline Air", price(110))}},
		"CDG-LHR-round-trip": {Flights: []flights.Flight{flight("Aurora Jet", price(88))}},
		"CDG-LHR-multi-city": {Flights: []flights.Flight{flight("Pricey Air", price(300))}},
	}}
	hs := &stubHotels{result: &hotels.Result{Hotels: []hotels.Hotel{
		{Name: "Grand Meridian", Price: price(182), Rating: price(4.5)},
		{Name: "Harborview", Price: price(121), Rating: price(4.1)},
	}}}

	p := newTestPlanner(t, fs, hs)
	res, err := p.Plan(context.Background(), validPlan())
	require.NoError(t, err)

	t.Run("cheapest priced options win", func(t *testing.T) {
		require.NotNil(t, res.BestOutboundFlight)
		assert.Equal(t, "Pacific Wings", res.BestOutboundFlight.Name)
		require.NotNil(t, res.BestReturnFlight)
		assert.Equal(t, "Aurora Jet", res.BestReturnFlight.Name)
		require.NotNil(t, res.BestHotel)
		assert.Equal(t, "Harborview", res.BestHotel.Name)
	})

	t.Run("costs", func(t *testing.T) {
		// flights: (95 + 88) * 2 travellers; hotel: 121 * 3 nights
		require.NotNil(t, res.TotalEstimatedCost)
		assert.InDelta(t, 366+363, *res.TotalEstimatedCost, 0.001)
		require.NotNil(t, res.PerPersonPerDay)
		assert.InDelta(t, 729.0/6.0, *res.PerPersonPerDay, 0.001)
		assert.Equal(t, 3, res.Breakdown["nights"])
		assert.InDelta(t, 366, res.Breakdown["flight"].(float64), 0.001)
		assert.InDelta(t, 363, res.Breakdown["hotel"].(float64), 0.001)
	})

	t.Run("no suggestion without budget", func(t *testing.T) {
		assert.Nil(t, res.Suggestions)
	})

	t.Run("hotel leg uses the stay window", func(t *testing.T) {
		require.Len(t, hs.requests, 1)
		assert.Equal(t, "2026-09-10", hs.requests[0].CheckinDate)
		assert.Equal(t, "2026-09-13", hs.requests[0].CheckoutDate)
		assert.Equal(t, "CDG", hs.requests[0].Location)
		assert.Equal(t, 10, hs.requests[0].Limit)
	})

	t.Run("return leg tried every trip type", func(t *testing.T) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		var returnTrips []string
		for _, r := range fs.requests {
			if r.FromAirport == "CDG" {
				returnTrips = append(returnTrips, r.Trip)
			}
		}
		assert.ElementsMatch(t, []string{"one-way", "round-trip", "multi-city"}, returnTrips)
	})
}

func TestPlanner_Plan_NoReturnDate(t *testing.T) {
	fs := &stubFlights{results: map[string]*flights.Result{
		"LHR-CDG-one-way": {Flights: []flights.Flight{flight("Skyline Air", price(100))}},
	}}
	hs := &stubHotels{result: &hotels.Result{Hotels: []hotels.Hotel{
		{Name: "Lantern House", Price: price(90)},
	}}}

	p := newTestPlanner(t, fs, hs)
	req := validPlan()
	req.ReturnDate = ""

	res, err := p.Plan(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, res.BestReturnFlight)
	assert.Equal(t, 1, res.Breakdown["nights"])
	// flights 100*2 + hotel 90*1
	assert.InDelta(t, 290, *res.TotalEstimatedCost, 0.001)

	// Single-night stay window.
	require.Len(t, hs.requests, 1)
	assert.Equal(t, "2026-09-10", hs.requests[0].CheckinDate)
	assert.Equal(t, "2026-09-11", hs.requests[0].CheckoutDate)
}

func TestPlanner_DefaultFetchModes(t *testing.T) {
	fs := &stubFlights{results: map[string]*flights.Result{
		"LHR-CDG-one-way": {Flights: []flights.Flight{flight("Skyline Air", price(100))}},
	}}
	hs := &stubHotels{result: &hotels.Result{}}

	// No modes supplied: flight legs run on sample data, hotels on the
	// rendered page.
	p := NewPlanner(fs, hs, nil, zaptest.NewLogger(t))
	p.now = fixedNow

	req := validPlan()
	req.ReturnDate = ""
	_, err := p.Plan(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, fs.requests, 1)
	assert.Equal(t, flights.ModeLocal, fs.requests[0].FetchMode)
	require.Len(t, hs.requests, 1)
	assert.Equal(t, hotels.ModeLive, hs.requests[0].FetchMode)
}

func TestPlanner_Plan_OutboundFailureIsUpstream(t *testing.T) {
	fs := &stubFlights{err: errors.New("scrape blocked")}
	hs := &stubHotels{result: &hotels.Result{}}

	p := newTestPlanner(t, fs, hs)
	_, err := p.Plan(context.Background(), validPlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "outbound")
}

func TestPlanner_Plan_HotelFailureIsUpstream(t *testing.T) {
	fs := &stubFlights{results: map[string]*flights.Result{
		"LHR-CDG-one-way": {Flights: []flights.Flight{flight("Skyline Air", price(100))}},
	}}
	hs := &stubHotels{err: errors.New("render timeout")}

	p := newTestPlanner(t, fs, hs)
	req := validPlan()
	req.ReturnDate = ""

	_, err := p.Plan(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "hotel")
}

func TestPlanner_Plan_ReturnFailuresAreNotFatal(t *testing.T) {
	fs := &stubFlights{results: map[string]*flights.Result{
		"LHR-CDG-one-way": {Flights: []flights.Flight{flight("Skyline Air", price(100))}},
		// No CDG-LHR entries: every return search errors.
	}, err: errors.New("scrape blocked")}
	hs := &stubHotels{result: &hotels.Result{Hotels: []hotels.Hotel{
		{Name: "Lantern House", Price: price(90)},
	}}}

	p := newTestPlanner(t, fs, hs)
	res, err := p.Plan(context.Background(), validPlan())
	require.NoError(t, err)
	assert.NotNil(t, res.BestOutboundFlight)
	assert.Nil(t, res.BestReturnFlight)
}

func TestPlanner_Plan_HotelPreferences(t *testing.T) {
	fs := &stubFlights{results: map[string]*flights.Result{
		"LHR-CDG-one-way": {Flights: []flights.Flight{flight("Skyline Air", price(100))}},
	}}
	hs := &stubHotels{result: &hotels.Result{Hotels: []hotels.Hotel{
		{Name: "Cheap No-Frills", Price: price(60), Rating: price(3.0), Amenities: []string{"Parking ($)"}},
		{Name: "Grand Meridian", Price: price(182), Rating: price(4.5), Amenities: []string{"Free Wi-Fi", "Pool"}},
		{Name: "Harborview", Price: price(121), Rating: price(4.1), Amenities: []string{"Free Wi-Fi"}},
	}}}

	p := newTestPlanner(t, fs, hs)

	t.Run("star rating filter", func(t *testing.T) {
		req := validPlan()
		req.ReturnDate = ""
		four := 4
		req.HotelPreferences = &HotelPreferences{StarRating: &four}

		res, err := p.Plan(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, res.BestHotel)
		assert.Equal(t, "Harborview", res.BestHotel.Name)
	})

	t.Run("amenity filter", func(t *testing.T) {
		req := validPlan()
		req.ReturnDate = ""
		req.HotelPreferences = &HotelPreferences{Amenities: []string{"Free Wi-Fi", "Pool"}}

		res, err := p.Plan(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, res.BestHotel)
		assert.Equal(t, "Grand Meridian", res.BestHotel.Name)
	})

	t.Run("price cap filter", func(t *testing.T) {
		req := validPlan()
		req.ReturnDate = ""
		req.HotelPreferences = &HotelPreferences{MaxPricePerNight: price(100)}

		res, err := p.Plan(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, res.BestHotel)
		assert.Equal(t, "Cheap No-Frills", res.BestHotel.Name)
	})

	t.Run("nothing matches", func(t *testing.T) {
		req := validPlan()
		req.ReturnDate = ""
		req.HotelPreferences = &HotelPreferences{Amenities: []string{"Helipad"}}

		res, err := p.Plan(context.Background(), req)
		require.NoError(t, err)
		assert.Nil(t, res.BestHotel)
	})
}

func TestPlanner_Plan_BudgetSuggestion(t *testing.T) {
	fs := &stubFlights{results: map[string]*flights.Result{
		"LHR-CDG-one-way": {Flights: []flights.Flight{flight("Skyline Air", price(500))}},
	}}
	hs := &stubHotels{result: &hotels.Result{Hotels: []hotels.Hotel{
		{Name: "Grand Meridian", Price: price(300)},
	}}}

	p := newTestPlanner(t, fs, hs)
	req := validPlan()
	req.ReturnDate = ""
	req.MaxTotalBudget = price(800)

	res, err := p.Plan(context.Background(), req)
	require.NoError(t, err)
	// 500*2 + 300*1 = 1300 > 800
	require.NotNil(t, res.Suggestions)
	assert.Contains(t, *res.Suggestions, "budget")
}
