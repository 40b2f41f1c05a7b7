package ports

import (
	"context"
	"truckmates-route-service/internal/domain"
)

// Persistent or shared memoization of external distance results.
// Keys are built by the caller from rounded coordinates.
type DistanceCache interface {
	Get(ctx context.Context, key string) (DistanceResult, bool, error)
	Put(ctx context.Context, key string, r DistanceResult) error
}

// Address -> coordinate memoization used by geocoders.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
