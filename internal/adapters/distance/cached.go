package distance

import (
	"context"
	"fmt"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/ports"

	"go.uber.org/zap"
)

// CachedEstimator memoizes an external estimator across requests.
// Only pairs with coordinates on both ends are cached, and only results the
// inner estimator attributes to the external API are stored.
type CachedEstimator struct {
	inner ports.DistanceEstimator
	cache ports.DistanceCache
}

func NewCachedEstimator(inner ports.DistanceEstimator, cache ports.DistanceCache) *CachedEstimator {
	return &CachedEstimator{inner: inner, cache: cache}
}

// PairKey builds the cache key for a directed coordinate pair.
func PairKey(from, to domain.Coordinates) string {
	a := from.Round(5)
	b := to.Round(5)
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", a.Lat, a.Lon, b.Lat, b.Lon)
}

func (c *CachedEstimator) Estimate(ctx context.Context, from, to domain.Stop) (ports.DistanceResult, error) {
	if from.Coords == nil || to.Coords == nil {
		return c.inner.Estimate(ctx, from, to)
	}

	key := PairKey(*from.Coords, *to.Coords)

	r, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("distance cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return r, nil
	}

	r, err = c.inner.Estimate(ctx, from, to)
	if err != nil {
		return ports.DistanceResult{}, err
	}

	if r.External() {
		if err := c.cache.Put(ctx, key, r); err != nil {
			zap.L().Warn("distance cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return r, nil
}
