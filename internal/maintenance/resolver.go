package maintenance

import (
	"time"

	"airline_sim/internal/tiers"
)

// DefaultPendingLead is how far ahead of its start a scheduled window already
// counts as covering, in simulated time
const DefaultPendingLead = 24 * time.Hour

// CoverageState distinguishes a window in execution from one about to start
type CoverageState string

const (
	CoverageActive  CoverageState = "active"
	CoveragePending CoverageState = "pending"
)

// Coverage describes the window that covers a tier
type Coverage struct {
	Tier   tiers.ID // tier of the covering window
	Window Window
	State  CoverageState
}

// Resolver answers coverage queries against an immutable snapshot of windows.
// It is safe for concurrent use.
type Resolver struct {
	scheme      tiers.Scheme
	pendingLead time.Duration
	byAircraft  map[string][]Window
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithPendingLead sets the lead for scheduled-but-not-started coverage.
// Zero disables pending coverage.
func WithPendingLead(lead time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.pendingLead = lead
	}
}

// NewResolver indexes windows by aircraft. Display copies are dropped.
func NewResolver(scheme tiers.Scheme, windows []Window, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		scheme:      scheme,
		pendingLead: DefaultPendingLead,
		byAircraft:  make(map[string][]Window),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, w := range windows {
		if w.DisplayCopy {
			continue
		}
		r.byAircraft[w.AircraftID] = append(r.byAircraft[w.AircraftID], w)
	}
	return r
}

// Active returns the heaviest window on tier or above that is executing at now
func (r *Resolver) Active(aircraftID string, tier tiers.ID, now time.Time) (Coverage, bool) {
	return r.walk(aircraftID, tier, func(w Window) bool {
		return w.ActiveAt(now)
	}, CoverageActive)
}

// Pending returns the heaviest window on tier or above that has not started
// yet but starts within the pending lead of now
func (r *Resolver) Pending(aircraftID string, tier tiers.ID, now time.Time) (Coverage, bool) {
	if r == nil || r.pendingLead <= 0 {
		return Coverage{}, false
	}
	return r.walk(aircraftID, tier, func(w Window) bool {
		return w.PendingAt(now, r.pendingLead)
	}, CoveragePending)
}

// Covering returns the active coverage for tier, falling back to pending coverage
func (r *Resolver) Covering(aircraftID string, tier tiers.ID, now time.Time) (Coverage, bool) {
	if c, ok := r.Active(aircraftID, tier, now); ok {
		return c, true
	}
	return r.Pending(aircraftID, tier, now)
}

// CompletesAt returns when the window currently covering tier ends
func (r *Resolver) CompletesAt(aircraftID string, tier tiers.ID, now time.Time) (time.Time, bool) {
	c, ok := r.Covering(aircraftID, tier, now)
	if !ok {
		return time.Time{}, false
	}
	return c.Window.End(), true
}

// Windows returns the primary windows indexed for aircraftID
func (r *Resolver) Windows(aircraftID string) []Window {
	if r == nil {
		return nil
	}
	return append([]Window(nil), r.byAircraft[aircraftID]...)
}

// walk visits tiers from the heaviest down to tier inclusive and returns the
// first match. Within one tier the window ending last wins.
func (r *Resolver) walk(aircraftID string, tier tiers.ID, match func(Window) bool, state CoverageState) (Coverage, bool) {
	if r == nil {
		return Coverage{}, false
	}
	windows := r.byAircraft[aircraftID]
	if len(windows) == 0 {
		return Coverage{}, false
	}

	for _, t := range r.scheme.AtOrAbove(tier) {
		var best *Window
		for i := range windows {
			w := &windows[i]
			if w.CheckType != t.ID || !match(*w) {
				continue
			}
			if best == nil || w.End().After(best.End()) {
				best = w
			}
		}
		if best != nil {
			return Coverage{Tier: t.ID, Window: *best, State: state}, true
		}
	}
	return Coverage{}, false
}
