package api

import (
	"net/http"
	"truckmates-route-service/internal/api/handlers"
	"truckmates-route-service/internal/ports"
	"truckmates-route-service/internal/services"
)

// Deps groups what NewRouter wires into handlers.
type Deps struct {
	Repo      ports.RouteRepository
	Sequencer *services.Sequencer
	Geocoder  ports.Geocoder
	Estimator ports.DistanceEstimator
	JWTSecret string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root; handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{Repo: d.Repo, Sequencer: d.Sequencer}
	distanceHandler := &handlers.DistanceHandler{Geocoder: d.Geocoder, Estimator: d.Estimator}

	secret := []byte(d.JWTSecret)
	authed := func(h http.HandlerFunc) http.Handler { return tenantMiddleware(secret, h) }

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/routes", authed(routeHandler.List))
	mux.Handle("/routes/optimize-order", authed(routeHandler.OptimizeOrder))
	mux.Handle("/routes/{id}/optimize", authed(routeHandler.Optimize))
	mux.Handle("/distance", authed(distanceHandler.Get))

	return requestIDMiddleware(loggingMiddleware(mux))
}
