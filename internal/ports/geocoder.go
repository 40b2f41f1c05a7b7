package ports

import (
	"context"
	"errors"
	"truckmates-route-service/internal/domain"
)

// ErrGeocoderUnavailable means no geocoding credential is configured.
var ErrGeocoderUnavailable = errors.New("geocoder unavailable")

// Contract for resolving free-text addresses to coordinates.
type Geocoder interface {
	ResolveCoordinates(ctx context.Context, address string) (domain.Coordinates, error)
}
