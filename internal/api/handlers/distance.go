package handlers

import (
	"net/http"
	"strings"
	"truckmates-route-service/internal/api/dto"
	"truckmates-route-service/internal/ports"
	"truckmates-route-service/internal/services"
)

type DistanceHandler struct {
	Geocoder  ports.Geocoder
	Estimator ports.DistanceEstimator
}

// Get estimates the distance between two free-text addresses.
// Fallback estimates still answer 200; the soft warning travels in the body.
func (h *DistanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	origin := strings.TrimSpace(q.Get("origin"))
	destination := strings.TrimSpace(q.Get("destination"))
	if origin == "" || destination == "" {
		writeError(w, r, http.StatusBadRequest, "origin and destination are required")
		return
	}

	d, err := services.CalculateRouteDistance(r.Context(), origin, destination, h.Geocoder, h.Estimator)
	if err != nil {
		internalError(w, r, "calculate route distance failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DistanceResponse{
		Distance:        d.Distance,
		Duration:        d.Duration,
		UsedExternalAPI: d.UsedExternalAPI,
		Error:           d.Error,
	})
}
