package distance

import (
	"context"
	"fmt"
	"sync"
	"truckmates-route-service/internal/domain"
	"truckmates-route-service/internal/ports"
)

type StubPair struct {
	From, To string
	Miles    float64
	Minutes  float64
}

// StubEstimator is a deterministic, map-backed estimator keyed by stop id.
// Pairs are symmetric unless the reverse direction is listed explicitly.
// It reports results as external so callers exercise that path.
type StubEstimator struct {
	m map[string]ports.DistanceResult

	mu    sync.Mutex
	calls int
}

func NewStubEstimator(pairs []StubPair) *StubEstimator {
	m := make(map[string]ports.DistanceResult, 2*len(pairs))
	for _, p := range pairs {
		r := ports.DistanceResult{Miles: p.Miles, Minutes: p.Minutes, Source: ports.SourceExternal}
		m[p.From+"|"+p.To] = r
		if _, ok := m[p.To+"|"+p.From]; !ok {
			m[p.To+"|"+p.From] = r
		}
	}
	return &StubEstimator{m: m}
}

func (s *StubEstimator) Estimate(_ context.Context, from, to domain.Stop) (ports.DistanceResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	r, ok := s.m[from.ID+"|"+to.ID]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing pair %q -> %q: %w", from.ID, to.ID, ports.ErrNoEstimate)
	}
	return r, nil
}

// Calls returns how many lookups were made.
func (s *StubEstimator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
