package distance

import (
	"context"
	"math"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/ports"
)

// EarthRadiusMiles is the mean Earth radius used by the geometric tier.
const EarthRadiusMiles = 3959.0

// GreatCircleEstimator computes straight-line distance with the spherical
// law of cosines and converts it to minutes at a fixed average speed.
type GreatCircleEstimator struct {
	SpeedMPH float64
}

func NewGreatCircleEstimator(speedMPH float64) *GreatCircleEstimator {
	return &GreatCircleEstimator{SpeedMPH: speedMPH}
}

func (e *GreatCircleEstimator) Estimate(_ context.Context, from, to domain.Stop) (ports.DistanceResult, error) {
	if from.Coords == nil || to.Coords == nil {
		return ports.DistanceResult{}, ports.ErrNoEstimate
	}

	miles := GreatCircleMiles(*from.Coords, *to.Coords)
	return ports.DistanceResult{
		Miles:   miles,
		Minutes: minutesAt(miles, e.SpeedMPH),
		Source:  ports.SourceGreatCircle,
	}, nil
}

// GreatCircleMiles returns the spherical law of cosines distance in miles.
func GreatCircleMiles(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	cos := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLon)
	// Rounding can push identical points just past 1.
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * EarthRadiusMiles
}

func minutesAt(miles, speedMPH float64) float64 {
	if speedMPH <= 0 {
		speedMPH = 50
	}
	return miles / speedMPH * 60
}
