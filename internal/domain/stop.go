package domain

import (
	"errors"
	"strings"
)

// Stop is a single pickup or delivery location within a multi-stop route.
//
// Coordinates are optional; when they are absent the address is geocoded on
// demand. Priority is optional too, and a higher value is more urgent.
// Time windows are carried through persistence but do not affect ordering.
type Stop struct {
	ID              string
	Address         string
	Coords          *Coordinates
	Priority        *float64
	TimeWindowStart string
	TimeWindowEnd   string
	Rank            int
}

// Validate checks that the stop can be located: either coordinates or an
// address must be present.
func (s Stop) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("stop: id must not be empty")
	}
	if s.Coords == nil && strings.TrimSpace(s.Address) == "" {
		return errors.New("stop " + s.ID + ": address is required when coordinates are absent")
	}
	if s.Coords != nil && !s.Coords.Valid() {
		return errors.New("stop " + s.ID + ": coordinates out of range")
	}
	return nil
}

// HasCoords reports whether the stop carries resolved coordinates.
func (s Stop) HasCoords() bool { return s.Coords != nil }

// Priority bounds. Values outside are clamped before being used as weights.
const (
	MinPriority = 0.0
	MaxPriority = 100.0
)

// PriorityFactor returns the multiplier applied to a candidate's distance
// during sequencing: (100 - priority) / 100, or 1 when priority is unset.
// Priority is clamped to [0, 100] so the factor stays within [0, 1].
func PriorityFactor(priority *float64) float64 {
	if priority == nil {
		return 1
	}
	p := *priority
	if p < MinPriority {
		p = MinPriority
	}
	if p > MaxPriority {
		p = MaxPriority
	}
	return (MaxPriority - p) / MaxPriority
}

// Float64 returns a pointer to v. Handy for optional priorities.
func Float64(v float64) *float64 { return &v }
