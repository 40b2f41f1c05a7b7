package domain

import (
	"fmt"
	"math"
	"sort"
)

// StopRank pairs a stop identifier with its 1-based visit position.
type StopRank struct {
	StopID string
	Rank   int
}

// Represents the result of sequencing a set of stops.
// An OptimizedOrder is produced once per sequencing run and is not mutated
// afterwards. Totals are already rounded: miles to one decimal place and
// minutes to a whole number.
type OptimizedOrder struct {
	Order              []StopRank
	TotalDistanceMiles float64
	EstimatedMinutes   int
	UsedExternalAPI    bool
}

// Represents a tenant-owned multi-stop route.
// Distance and EstimatedTime are display strings derived from the last
// optimization. Version increments on every write and guards against two
// optimizations racing on the same route.
type Route struct {
	ID            string
	CompanyID     string
	Name          string
	Distance      string
	EstimatedTime string
	Version       int
	Stops         []*Stop
}

// ApplyOrder rewrites stop ranks from an optimized order, sorts the stops by
// their new rank and re-derives the display strings.
func (r *Route) ApplyOrder(order *OptimizedOrder) error {
	if order == nil {
		return fmt.Errorf("apply order: route %s: order must be non-nil", r.ID)
	}

	if len(order.Order) != len(r.Stops) {
		return fmt.Errorf(
			"apply order: route %s: order covers %d stops, route has %d",
			r.ID, len(order.Order), len(r.Stops),
		)
	}

	byID := make(map[string]*Stop, len(r.Stops))
	for _, s := range r.Stops {
		byID[s.ID] = s
	}

	seen := make(map[string]struct{}, len(order.Order))
	for _, sr := range order.Order {
		s, ok := byID[sr.StopID]
		if !ok {
			return fmt.Errorf("apply order: route %s: unknown stop %q", r.ID, sr.StopID)
		}
		if _, dup := seen[sr.StopID]; dup {
			return fmt.Errorf("apply order: route %s: stop %q ranked twice", r.ID, sr.StopID)
		}
		seen[sr.StopID] = struct{}{}
		s.Rank = sr.Rank
	}

	sort.SliceStable(r.Stops, func(i, j int) bool { return r.Stops[i].Rank < r.Stops[j].Rank })

	r.Distance = FormatMiles(order.TotalDistanceMiles)
	r.EstimatedTime = FormatMinutes(order.EstimatedMinutes)
	return nil
}

// FormatMiles renders a distance as "55.0 mi".
func FormatMiles(miles float64) string {
	return fmt.Sprintf("%.1f mi", miles)
}

// FormatMinutes renders a duration as "Xh Ym", dropping the hour part under
// one hour.
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h := minutes / 60
	m := minutes % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// RoundMiles rounds to one decimal place.
func RoundMiles(miles float64) float64 {
	return math.Round(miles*10) / 10
}
