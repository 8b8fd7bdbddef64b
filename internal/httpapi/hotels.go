package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"traveld/internal/hotels"
)

func registerHotelRoutes(mux *http.ServeMux, logger *zap.Logger, svc HotelService) {
	mux.HandleFunc("POST /hotels/search", func(w http.ResponseWriter, r *http.Request) {
		var req hotels.SearchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}

		res, err := svc.Search(r.Context(), req)
		if err != nil {
			logger.Error("hotel search error", zap.Error(err))
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, res)
	})
}
