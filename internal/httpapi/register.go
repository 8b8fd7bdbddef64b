// Package httpapi exposes the search operations over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"traveld/internal/flights"
	"traveld/internal/hotels"
	"traveld/internal/trip"
)

// FlightService runs flight searches.
type FlightService interface {
	Search(ctx context.Context, req flights.SearchRequest) (*flights.Result, error)
}

// HotelService runs hotel searches.
type HotelService interface {
	Search(ctx context.Context, req hotels.SearchRequest) (*hotels.Result, error)
}

// TripService plans trips.
type TripService interface {
	Plan(ctx context.Context, req trip.PlanRequest) (*trip.PlanResponse, error)
}

// Services bundles the handler dependencies.
type Services struct {
	Flights FlightService
	Hotels  HotelService
	Trips   TripService
}

// Register attaches API routes to the provided mux.
func Register(mux *http.ServeMux, logger *zap.Logger, svc Services) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusOK, map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	registerFlightRoutes(mux, logger, svc.Flights)
	registerHotelRoutes(mux, logger, svc.Hotels)
	registerTripRoutes(mux, logger, svc.Trips)
}
