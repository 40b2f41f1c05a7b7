package services

import (
	"context"
	"errors"
	"fmt"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/ports"
)

// MsgNotEnoughStops is returned in MultiStopResult.Error for routes with at
// most one stop.
const MsgNotEnoughStops = "Not enough stops to optimize"

type MultiStopResult struct {
	Optimized       bool
	OptimizedStops  []domain.StopRank
	Distance        string
	Time            string
	UsedExternalAPI bool
	Error           string
}

// OptimizeMultiStopRoute re-sequences a stored route's stops and persists
// the new order together with the route's distance and time strings.
//
// Routes with fewer than two stops are reported as not optimized and
// nothing is written. Persistence failures, including a concurrent update
// of the same route, are returned as errors.
func OptimizeMultiStopRoute(
	ctx context.Context,
	companyID string,
	routeID string,
	repo ports.RouteRepository,
	seq *Sequencer,
) (MultiStopResult, error) {
	if repo == nil || seq == nil {
		return MultiStopResult{}, errors.New("optimize multi-stop route: repository and sequencer must be non-nil")
	}

	route, err := repo.GetRoute(ctx, companyID, routeID)
	if err != nil {
		return MultiStopResult{}, fmt.Errorf("optimize multi-stop route: %w", err)
	}

	if len(route.Stops) <= 1 {
		return MultiStopResult{Optimized: false, Error: MsgNotEnoughStops}, nil
	}

	stops := make([]domain.Stop, 0, len(route.Stops))
	for _, st := range route.Stops {
		stops = append(stops, *st)
	}

	order, err := seq.OptimizeRouteOrder(ctx, stops)
	if err != nil {
		return MultiStopResult{}, fmt.Errorf("optimize multi-stop route %s: %w", routeID, err)
	}

	if err := route.ApplyOrder(&order); err != nil {
		return MultiStopResult{}, fmt.Errorf("optimize multi-stop route: %w", err)
	}

	if err := repo.ApplyRouteOrder(ctx, companyID, route); err != nil {
		return MultiStopResult{}, fmt.Errorf("optimize multi-stop route: %w", err)
	}

	return MultiStopResult{
		Optimized:       true,
		OptimizedStops:  order.Order,
		Distance:        route.Distance,
		Time:            route.EstimatedTime,
		UsedExternalAPI: order.UsedExternalAPI,
	}, nil
}
