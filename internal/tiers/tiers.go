package tiers

import (
	"fmt"
	"strings"
	"time"
)

// ID identifies a check tier (check type)
type ID string

const (
	Daily  ID = "daily"
	Weekly ID = "weekly"
	A      ID = "A"
	B      ID = "B"
	C      ID = "C"
	D      ID = "D"
)

// ParseID normalizes a check type as sent by the scheduler ("A", "a", "daily", "Daily", "weekly")
func ParseID(s string) (ID, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, true
	case "weekly":
		return Weekly, true
	case "a":
		return A, true
	case "b":
		return B, true
	case "c":
		return C, true
	case "d":
		return D, true
	}
	return "", false
}

// Basis is the unit a tier's interval is measured in
type Basis string

const (
	Calendar Basis = "calendar" // intervals in days
	Hours    Basis = "hours"    // intervals in flight hours
)

// Range is an inclusive interval range. Min == Max expresses a fixed interval.
type Range struct {
	Min int
	Max int
}

// Fixed reports whether the range has zero width
func (r Range) Fixed() bool {
	return r.Max <= r.Min
}

// CheckTierConfig is the static configuration of one tier
type CheckTierConfig struct {
	ID    ID
	Basis Basis
	// ValidityWindow is the longest legal interval (days or flight hours).
	// Explicit per-aircraft overrides above it are ignored.
	ValidityWindow int
	// WarningThreshold is how far ahead of expiry a calendar tier reports a warning
	WarningThreshold time.Duration
	// WarningHours is the remaining flight hours below which an hour tier warns
	WarningHours  float64
	IntervalRange Range
}

// Scheme is a named tier table ordered from lowest to highest precedence
type Scheme struct {
	Name  string
	Tiers []CheckTierConfig
}

const (
	SchemeStandard = "standard"
	SchemeCalendar = "calendar"
)

const day = 24 * time.Hour

// Standard is the five-tier daily/A/weekly/C/D table with an hour-based A check
func Standard() Scheme {
	return Scheme{
		Name: SchemeStandard,
		Tiers: []CheckTierConfig{
			{ID: Daily, Basis: Calendar, ValidityWindow: 3, WarningThreshold: 6 * time.Hour, IntervalRange: Range{Min: 1, Max: 2}},
			{ID: A, Basis: Hours, ValidityWindow: 1200, WarningHours: 100, IntervalRange: Range{Min: 800, Max: 1000}},
			{ID: Weekly, Basis: Calendar, ValidityWindow: 10, WarningThreshold: day, IntervalRange: Range{Min: 7, Max: 8}},
			{ID: C, Basis: Calendar, ValidityWindow: 900, WarningThreshold: 30 * day, IntervalRange: Range{Min: 730, Max: 730}},
			{ID: D, Basis: Calendar, ValidityWindow: 3650, WarningThreshold: 90 * day, IntervalRange: Range{Min: 2190, Max: 2920}},
		},
	}
}

// CalendarOnly is the daily/A/B/C/D table where every tier is calendar based
func CalendarOnly() Scheme {
	return Scheme{
		Name: SchemeCalendar,
		Tiers: []CheckTierConfig{
			{ID: Daily, Basis: Calendar, ValidityWindow: 3, WarningThreshold: 6 * time.Hour, IntervalRange: Range{Min: 1, Max: 2}},
			{ID: A, Basis: Calendar, ValidityWindow: 60, WarningThreshold: 3 * day, IntervalRange: Range{Min: 30, Max: 45}},
			{ID: B, Basis: Calendar, ValidityWindow: 270, WarningThreshold: 14 * day, IntervalRange: Range{Min: 180, Max: 240}},
			{ID: C, Basis: Calendar, ValidityWindow: 900, WarningThreshold: 30 * day, IntervalRange: Range{Min: 730, Max: 730}},
			{ID: D, Basis: Calendar, ValidityWindow: 3650, WarningThreshold: 90 * day, IntervalRange: Range{Min: 2190, Max: 2920}},
		},
	}
}

// Lookup returns the tier table registered under name
func Lookup(name string) (Scheme, error) {
	switch strings.ToLower(name) {
	case SchemeStandard, "":
		return Standard(), nil
	case SchemeCalendar:
		return CalendarOnly(), nil
	}
	return Scheme{}, fmt.Errorf("unknown maintenance scheme: %s (must be %s or %s)", name, SchemeStandard, SchemeCalendar)
}

// Tier returns the configuration for id
func (s Scheme) Tier(id ID) (CheckTierConfig, bool) {
	for _, t := range s.Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return CheckTierConfig{}, false
}

// Rank returns the precedence of id; higher ranks are heavier checks
func (s Scheme) Rank(id ID) (int, bool) {
	for i, t := range s.Tiers {
		if t.ID == id {
			return i, true
		}
	}
	return -1, false
}

// AtOrAbove returns id and every heavier tier, heaviest first.
// This is the walk order for cascading coverage.
func (s Scheme) AtOrAbove(id ID) []CheckTierConfig {
	rank, ok := s.Rank(id)
	if !ok {
		return nil
	}
	out := make([]CheckTierConfig, 0, len(s.Tiers)-rank)
	for i := len(s.Tiers) - 1; i >= rank; i-- {
		out = append(out, s.Tiers[i])
	}
	return out
}

// IDs lists the tier ids from lowest to highest precedence
func (s Scheme) IDs() []ID {
	ids := make([]ID, len(s.Tiers))
	for i, t := range s.Tiers {
		ids[i] = t.ID
	}
	return ids
}
