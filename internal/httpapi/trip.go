package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"traveld/internal/trip"
)

func registerTripRoutes(mux *http.ServeMux, logger *zap.Logger, svc TripService) {
	mux.HandleFunc("POST /trip/plan", func(w http.ResponseWriter, r *http.Request) {
		var req trip.PlanRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}

		res, err := svc.Plan(r.Context(), req)
		if err != nil {
			logger.Error("trip plan error", zap.Error(err))
			// A failed required leg is the upstream's fault, not the
			// caller's.
			if errors.Is(err, trip.ErrUpstream) {
				writeError(logger, w, http.StatusBadGateway, err)
				return
			}
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, res)
	})
}
