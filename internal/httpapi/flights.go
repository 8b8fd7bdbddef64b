package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"traveld/internal/flights"
)

func registerFlightRoutes(mux *http.ServeMux, logger *zap.Logger, svc FlightService) {
	mux.HandleFunc("POST /flights/search", func(w http.ResponseWriter, r *http.Request) {
		var req flights.SearchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}

		res, err := svc.Search(r.Context(), req)
		if err != nil {
			logger.Error("flight search error", zap.Error(err))
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, res)
	})
}
