package distance

import (
	"context"
	"errors"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/ports"

	"go.uber.org/zap"
)

// ChainEstimator tries each tier in order and returns the first answer.
// Tier failures are logged and swallowed; only context cancellation is
// returned to the caller as-is.
type ChainEstimator struct {
	tiers []ports.DistanceEstimator
}

func NewChainEstimator(tiers ...ports.DistanceEstimator) *ChainEstimator {
	out := make([]ports.DistanceEstimator, 0, len(tiers))
	for _, t := range tiers {
		if t != nil {
			out = append(out, t)
		}
	}
	return &ChainEstimator{tiers: out}
}

func (c *ChainEstimator) Estimate(ctx context.Context, from, to domain.Stop) (ports.DistanceResult, error) {
	for i, tier := range c.tiers {
		if err := ctx.Err(); err != nil {
			return ports.DistanceResult{}, err
		}

		r, err := tier.Estimate(ctx, from, to)
		if err == nil {
			return r, nil
		}

		if !errors.Is(err, ports.ErrNoEstimate) {
			zap.L().Debug("distance tier failed, falling back",
				zap.Int("tier", i),
				zap.String("from", from.ID),
				zap.String("to", to.ID),
				zap.Error(err),
			)
		}
	}

	if err := ctx.Err(); err != nil {
		return ports.DistanceResult{}, err
	}
	return ports.DistanceResult{}, ports.ErrNoEstimate
}

// ChainOptions describes the tiers NewDefaultChain assembles.
type ChainOptions struct {
	Client           *ORSClient
	Cache            ports.DistanceCache
	SpeedMPH         float64
	PlaceholderMiles float64
}

// NewDefaultChain assembles external (optionally cached) -> great circle ->
// placeholder. A nil client drops the external tier.
func NewDefaultChain(opts ChainOptions) *ChainEstimator {
	var external ports.DistanceEstimator
	if opts.Client != nil {
		external = NewORSMatrixEstimator(opts.Client)
		if opts.Cache != nil {
			external = NewCachedEstimator(external, opts.Cache)
		}
	}

	return NewChainEstimator(
		external,
		NewGreatCircleEstimator(opts.SpeedMPH),
		NewPlaceholderEstimator(opts.PlaceholderMiles, opts.SpeedMPH),
	)
}
