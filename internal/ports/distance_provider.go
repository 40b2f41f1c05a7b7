package ports

import (
	"context"
	"errors"
	"truckmates-route-service/internal/domain"
)

// ErrNoEstimate is returned by an estimator tier that cannot answer for the
// given pair. Callers fall through to the next tier.
var ErrNoEstimate = errors.New("no distance estimate available")

// Source identifies which tier produced a distance result.
type Source string

const (
	SourceExternal    Source = "external"
	SourceGreatCircle Source = "great_circle"
	SourcePlaceholder Source = "placeholder"
)

// Distance in statute miles and travel duration in minutes between two stops.
type DistanceResult struct {
	Miles   float64
	Minutes float64
	Source  Source
}

// External reports whether the result came from the routing API.
func (r DistanceResult) External() bool { return r.Source == SourceExternal }

// Contract for a single distance strategy.
type DistanceEstimator interface {
	// Return distance and estimated duration from one stop to another.
	Estimate(ctx context.Context, from, to domain.Stop) (DistanceResult, error)
}
