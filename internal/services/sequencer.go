package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/platform/obs"
	"truckmates-route-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultParallelism = 4

// Sequencer orders stops with a greedy nearest-neighbor heuristic.
//
// From the current stop it looks up the distance to every unvisited stop,
// weights each by the candidate's priority, and moves to the smallest. It
// never backtracks and is not a TSP solver; stop counts per route are small
// and a reasonably good order is all dispatch needs.
type Sequencer struct {
	Geocoder  ports.Geocoder
	Estimator ports.DistanceEstimator
	// Parallelism bounds concurrent candidate lookups within one step.
	Parallelism int
}

func NewSequencer(geocoder ports.Geocoder, estimator ports.DistanceEstimator, parallelism int) *Sequencer {
	return &Sequencer{
		Geocoder:    geocoder,
		Estimator:   estimator,
		Parallelism: parallelism,
	}
}

// OptimizeRouteOrder returns a visiting order over stops starting from the
// first stop in input order.
//
// Lookup failures never abort the run: a candidate whose distance cannot be
// estimated is ranked last among the remaining candidates and contributes
// nothing to the totals. Only context cancellation is returned as an error.
func (s *Sequencer) OptimizeRouteOrder(ctx context.Context, stops []domain.Stop) (_ domain.OptimizedOrder, err error) {
	defer obs.Time(ctx, "sequencer.OptimizeRouteOrder")(&err)

	if s.Estimator == nil {
		return domain.OptimizedOrder{}, errors.New("optimize route order: estimator must be non-nil")
	}

	if len(stops) <= 1 {
		order := make([]domain.StopRank, 0, len(stops))
		for i, st := range stops {
			order = append(order, domain.StopRank{StopID: st.ID, Rank: i + 1})
		}
		return domain.OptimizedOrder{Order: order}, nil
	}

	// Work on a copy; resolved coordinates are not written back to the caller.
	work := make([]domain.Stop, len(stops))
	copy(work, stops)

	if err := s.resolveCoordinates(ctx, work); err != nil {
		return domain.OptimizedOrder{}, err
	}

	visited := make([]bool, len(work))
	visited[0] = true
	current := 0

	order := make([]domain.StopRank, 0, len(work))
	order = append(order, domain.StopRank{StopID: work[0].ID, Rank: 1})

	var (
		totalMiles   float64
		totalMinutes float64
		usedExternal bool
	)

	for len(order) < len(work) {
		candidates := make([]int, 0, len(work)-len(order))
		for i := range work {
			if !visited[i] {
				candidates = append(candidates, i)
			}
		}

		results, ok, err := s.lookupAll(ctx, work[current], work, candidates)
		if err != nil {
			return domain.OptimizedOrder{}, fmt.Errorf("optimize route order: from %q: %w", work[current].ID, err)
		}

		best := -1
		bestAdjusted := math.Inf(1)

		// Stable scan: the first candidate wins ties.
		for i, ci := range candidates {
			adjusted := math.Inf(1)
			if ok[i] {
				usedExternal = usedExternal || results[i].External()
				adjusted = results[i].Miles * domain.PriorityFactor(work[ci].Priority)
			}
			if best == -1 || adjusted < bestAdjusted {
				best = i
				bestAdjusted = adjusted
			}
		}

		if best == -1 {
			// Unreachable while candidates is non-empty.
			break
		}

		next := candidates[best]
		if ok[best] {
			totalMiles += results[best].Miles
			totalMinutes += results[best].Minutes
		}

		visited[next] = true
		order = append(order, domain.StopRank{StopID: work[next].ID, Rank: len(order) + 1})
		current = next
	}

	return domain.OptimizedOrder{
		Order:              order,
		TotalDistanceMiles: domain.RoundMiles(totalMiles),
		EstimatedMinutes:   int(math.Round(totalMinutes)),
		UsedExternalAPI:    usedExternal,
	}, nil
}

// resolveCoordinates geocodes stops without coordinates, in input order.
// Failures leave the stop coordinate-less.
func (s *Sequencer) resolveCoordinates(ctx context.Context, stops []domain.Stop) error {
	if s.Geocoder == nil {
		return nil
	}

	for i := range stops {
		if stops[i].HasCoords() || strings.TrimSpace(stops[i].Address) == "" {
			continue
		}

		c, err := s.Geocoder.ResolveCoordinates(ctx, stops[i].Address)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !errors.Is(err, ports.ErrGeocoderUnavailable) {
				zap.L().Debug("geocode failed, stop left without coordinates",
					zap.String("stop", stops[i].ID),
					zap.Error(err),
				)
			}
			continue
		}

		stops[i].Coords = &c
	}

	return nil
}

// lookupAll estimates from one stop to every candidate concurrently.
// ok[i] reports whether results[i] is usable.
func (s *Sequencer) lookupAll(
	ctx context.Context,
	from domain.Stop,
	stops []domain.Stop,
	candidates []int,
) ([]ports.DistanceResult, []bool, error) {
	results := make([]ports.DistanceResult, len(candidates))
	ok := make([]bool, len(candidates))

	limit := s.Parallelism
	if limit < 1 {
		limit = defaultParallelism
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, ci := range candidates {
		g.Go(func() error {
			r, err := s.Estimator.Estimate(gctx, from, stops[ci])
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return nil
			}
			results[i] = r
			ok[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return results, ok, nil
}
