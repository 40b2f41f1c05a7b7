package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/ports"
)

const (
	msgDistanceAPINotConfigured = "Distance API not configured; using estimated distance"
	msgDistanceAPIUnavailable   = "Distance API unavailable; using estimated distance"
)

// Distance between two addresses as reported to callers. Error carries a
// soft warning whenever the external routing API was not used; the numbers
// are still a usable estimate.
type RouteDistance struct {
	Distance        float64
	Duration        int
	UsedExternalAPI bool
	Error           string
}

// CalculateRouteDistance estimates the distance and drive time between two
// free-text addresses. Addresses are geocoded first; the estimator chain then
// degrades from the routing API to great-circle to a constant placeholder.
func CalculateRouteDistance(
	ctx context.Context,
	originAddress string,
	destinationAddress string,
	geocoder ports.Geocoder,
	estimator ports.DistanceEstimator,
) (RouteDistance, error) {
	origin := strings.TrimSpace(originAddress)
	destination := strings.TrimSpace(destinationAddress)
	if origin == "" || destination == "" {
		return RouteDistance{}, errors.New("calculate route distance: origin and destination must be non-empty")
	}

	if estimator == nil {
		return RouteDistance{}, errors.New("calculate route distance: estimator must be non-nil")
	}

	from := domain.Stop{ID: "origin", Address: origin}
	to := domain.Stop{ID: "destination", Address: destination}

	configured := geocoder != nil
	if geocoder != nil {
		for _, st := range []*domain.Stop{&from, &to} {
			c, err := geocoder.ResolveCoordinates(ctx, st.Address)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return RouteDistance{}, fmt.Errorf("calculate route distance: %w", ctxErr)
				}
				if errors.Is(err, ports.ErrGeocoderUnavailable) {
					configured = false
				}
				continue
			}
			st.Coords = &c
		}
	}

	r, err := estimator.Estimate(ctx, from, to)
	if err != nil {
		return RouteDistance{}, fmt.Errorf("calculate route distance: %w", err)
	}

	out := RouteDistance{
		Distance:        domain.RoundMiles(r.Miles),
		Duration:        int(math.Round(r.Minutes)),
		UsedExternalAPI: r.External(),
	}

	if !out.UsedExternalAPI {
		out.Error = msgDistanceAPIUnavailable
		if !configured {
			out.Error = msgDistanceAPINotConfigured
		}
	}

	return out, nil
}
