package ports

import (
	"context"
	"errors"
	"truckmates-route-service/internal/domain"
)

var (
	ErrRouteNotFound   = errors.New("route not found")
	ErrVersionConflict = errors.New("route was modified concurrently")
)

// Port: a tenant-scoped boundary for reading and updating routes.
// Every method filters by company id; a route owned by another tenant is
// reported as ErrRouteNotFound.
type RouteRepository interface {
	// Retrieve all routes for a tenant, without stops.
	ListRoutes(ctx context.Context, companyID string) ([]*domain.Route, error)
	// Retrieve one route with its stops ordered by current rank.
	GetRoute(ctx context.Context, companyID, routeID string) (*domain.Route, error)
	// Persist stop ranks and display strings. route.Version is the version
	// that was read; a mismatch yields ErrVersionConflict. On success the
	// route's Version is advanced.
	ApplyRouteOrder(ctx context.Context, companyID string, route *domain.Route) error
}
