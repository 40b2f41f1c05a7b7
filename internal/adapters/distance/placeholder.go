package distance

import (
	"context"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/ports"
)

// PlaceholderEstimator is the last tier and always answers. It signals
// degraded accuracy through its Source rather than failing: the distance is
// a constant, or 1000 / priority miles when the destination has a positive
// priority so urgent stops still sort first.
type PlaceholderEstimator struct {
	Miles    float64
	SpeedMPH float64
}

func NewPlaceholderEstimator(miles, speedMPH float64) *PlaceholderEstimator {
	return &PlaceholderEstimator{Miles: miles, SpeedMPH: speedMPH}
}

func (e *PlaceholderEstimator) Estimate(_ context.Context, _, to domain.Stop) (ports.DistanceResult, error) {
	miles := e.Miles
	if miles <= 0 {
		miles = 100
	}
	if to.Priority != nil && *to.Priority > 0 {
		miles = 1000 / *to.Priority
	}

	return ports.DistanceResult{
		Miles:   miles,
		Minutes: minutesAt(miles, e.SpeedMPH),
		Source:  ports.SourcePlaceholder,
	}, nil
}
