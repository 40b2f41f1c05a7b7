package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"truckmates-route-service/internal/api/dto"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/ports"
	"truckmates-route-service/internal/services"
)

const maxStopsPerRequest = 100

// RouteHandler exposes route listing and the two sequencing endpoints.
type RouteHandler struct {
	Repo      ports.RouteRepository
	Sequencer *services.Sequencer
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodGet) {
		return
	}

	routes, err := h.Repo.ListRoutes(r.Context(), CompanyID(r.Context()))
	if err != nil {
		internalError(w, r, "list routes failed", err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, rt := range routes {
		res.Routes = append(res.Routes, dto.RouteResponse{
			ID:            rt.ID,
			Name:          rt.Name,
			Distance:      rt.Distance,
			EstimatedTime: rt.EstimatedTime,
			Version:       rt.Version,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// OptimizeOrder sequences an ad-hoc list of stops without touching storage.
func (h *RouteHandler) OptimizeOrder(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodPost) {
		return
	}

	var req dto.OptimizeOrderRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	if len(req.Stops) > maxStopsPerRequest {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("at most %d stops per request", maxStopsPerRequest))
		return
	}

	stops, err := toStops(req.Stops)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.Sequencer.OptimizeRouteOrder(r.Context(), stops)
	if err != nil {
		internalError(w, r, "optimize route order failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.OptimizeOrderResponse{
		OptimizedOrder:  toRankResponses(order.Order),
		TotalDistance:   order.TotalDistanceMiles,
		EstimatedTime:   order.EstimatedMinutes,
		UsedExternalAPI: order.UsedExternalAPI,
	})
}

// Optimize re-sequences a stored route and persists the result.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodPost) {
		return
	}

	routeID := strings.TrimSpace(r.PathValue("id"))
	if routeID == "" {
		writeError(w, r, http.StatusBadRequest, "route id is required")
		return
	}

	res, err := services.OptimizeMultiStopRoute(r.Context(), CompanyID(r.Context()), routeID, h.Repo, h.Sequencer)
	switch {
	case errors.Is(err, ports.ErrRouteNotFound):
		writeError(w, r, http.StatusNotFound, "route not found")
		return
	case errors.Is(err, ports.ErrVersionConflict):
		writeError(w, r, http.StatusConflict, "route was modified concurrently; retry")
		return
	case err != nil:
		internalError(w, r, "optimize route failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.OptimizeRouteResponse{
		Optimized:       res.Optimized,
		OptimizedStops:  toRankResponses(res.OptimizedStops),
		Distance:        res.Distance,
		Time:            res.Time,
		UsedExternalAPI: res.UsedExternalAPI,
		Error:           res.Error,
	})
}

func toStops(in []dto.StopRequest) ([]domain.Stop, error) {
	out := make([]domain.Stop, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for i, s := range in {
		st := domain.Stop{
			ID:              strings.TrimSpace(s.ID),
			Address:         strings.TrimSpace(s.Address),
			Priority:        s.Priority,
			TimeWindowStart: s.TimeWindowStart,
			TimeWindowEnd:   s.TimeWindowEnd,
		}
		if (s.Lat == nil) != (s.Lng == nil) {
			return nil, fmt.Errorf("stop %d: lat and lng must be given together", i+1)
		}
		if s.Lat != nil {
			st.Coords = &domain.Coordinates{Lat: *s.Lat, Lon: *s.Lng}
		}
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("stop %d: %w", i+1, err)
		}
		if _, dup := seen[st.ID]; dup {
			return nil, fmt.Errorf("stop %d: duplicate id %q", i+1, st.ID)
		}
		seen[st.ID] = struct{}{}
		out = append(out, st)
	}

	return out, nil
}

func toRankResponses(in []domain.StopRank) []dto.StopRankResponse {
	if in == nil {
		return nil
	}
	out := make([]dto.StopRankResponse, 0, len(in))
	for _, sr := range in {
		out = append(out, dto.StopRankResponse{StopID: sr.StopID, Rank: sr.Rank})
	}
	return out
}
