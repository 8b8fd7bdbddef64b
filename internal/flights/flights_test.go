package flights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() SearchRequest {
	return SearchRequest{
		Date:        "2026-09-15",
		FromAirport: "TPE",
		ToAirport:   "MYJ",
		Trip:        TripOneWay,
		Seat:        SeatEconomy,
		Adults:      2,
		Children:    1,
		FetchMode:   ModeLocal,
	}
}

func TestSearchRequest_Normalize(t *testing.T) {
	r := SearchRequest{Date: "2026-09-15", FromAirport: " tpe ", ToAirport: "myj", Adults: 1}
	r.Normalize()

	assert.Equal(t, "TPE", r.FromAirport)
	assert.Equal(t, "MYJ", r.ToAirport)
	assert.Equal(t, TripOneWay, r.Trip)
	assert.Equal(t, SeatEconomy, r.Seat)
	assert.Equal(t, ModeFallback, r.FetchMode)
}

func TestSearchRequest_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validRequest().Validate())
	})

	cases := []struct {
		name   string
		mutate func(*SearchRequest)
	}{
		{"bad date", func(r *SearchRequest) { r.Date = "15-09-2026" }},
		{"short airport", func(r *SearchRequest) { r.FromAirport = "TP" }},
		{"lowercase airport", func(r *SearchRequest) { r.ToAirport = "myj" }},
		{"unknown trip", func(r *SearchRequest) { r.Trip = "open-jaw" }},
		{"unknown seat", func(r *SearchRequest) { r.Seat = "cargo" }},
		{"no adults", func(r *SearchRequest) { r.Adults = 0 }},
		{"negative children", func(r *SearchRequest) { r.Children = -1 }},
		{"too many travellers", func(r *SearchRequest) { r.Adults = 5; r.Children = 5 }},
		{"lap infants exceed adults", func(r *SearchRequest) { r.Adults = 1; r.InfantsOnLap = 2 }},
		{"unknown fetch mode", func(r *SearchRequest) { r.FetchMode = "psychic" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRequest()
			tc.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"$1,236", f64(1236)},
		{"1236", f64(1236)},
		{"from $89 round trip", f64(89)},
		{"$12.50", f64(12.5)},
		{"unavailable", nil},
		{"", nil},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := ParsePrice(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tc.want, *got, 0.001)
		})
	}
}

func TestParseStops(t *testing.T) {
	cases := []struct {
		in   string
		want *int
	}{
		{"Nonstop", intp(0)},
		{"non-stop", intp(0)},
		{"1 stop", intp(1)},
		{"2 stops", intp(2)},
		{"3", intp(3)},
		{"several", nil},
		{"", nil},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := ParseStops(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }
