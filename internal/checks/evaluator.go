package checks

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"airline_sim/internal/fleet"
	"airline_sim/internal/interval"
	"airline_sim/internal/maintenance"
	"airline_sim/internal/tiers"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04 UTC"
)

// TimeSource provides the current simulated time
type TimeSource interface {
	Now() (time.Time, error)
}

// Coverage answers whether a tier is covered by a maintenance window
type Coverage interface {
	Covering(aircraftID string, tier tiers.ID, now time.Time) (maintenance.Coverage, bool)
}

// Evaluator derives check statuses for one tier scheme
type Evaluator struct {
	scheme   tiers.Scheme
	assignor *interval.Assignor
	clock    TimeSource
}

func NewEvaluator(scheme tiers.Scheme, clock TimeSource) *Evaluator {
	return &Evaluator{
		scheme:   scheme,
		assignor: interval.NewAssignor(scheme),
		clock:    clock,
	}
}

func (e *Evaluator) Scheme() tiers.Scheme {
	return e.scheme
}

// Evaluate derives the status of tier for ac at the current simulated time
func (e *Evaluator) Evaluate(ac fleet.Aircraft, tier tiers.ID, windows Coverage) CheckStatus {
	now, err := e.clock.Now()
	if err != nil {
		return unavailable(tier)
	}
	return e.EvaluateAt(now, ac, tier, windows)
}

// EvaluateAll derives every tier of the scheme for ac, lowest tier first
func (e *Evaluator) EvaluateAll(ac fleet.Aircraft, windows Coverage) []CheckStatus {
	now, err := e.clock.Now()
	return e.evaluateTiers(now, err, ac, windows)
}

// EvaluateFleet evaluates every aircraft against one clock reading, keyed by aircraft id
func (e *Evaluator) EvaluateFleet(aircraft []fleet.Aircraft, windows Coverage) map[string][]CheckStatus {
	now, err := e.clock.Now()
	return e.EvaluateFleetAt(now, err, aircraft, windows)
}

// EvaluateFleetAt evaluates every aircraft against a clock reading taken by
// the caller. A non-nil clockErr makes every tier unavailable.
func (e *Evaluator) EvaluateFleetAt(now time.Time, clockErr error, aircraft []fleet.Aircraft, windows Coverage) map[string][]CheckStatus {
	out := make(map[string][]CheckStatus, len(aircraft))
	for _, ac := range aircraft {
		out[ac.ID] = e.evaluateTiers(now, clockErr, ac, windows)
	}
	return out
}

func (e *Evaluator) evaluateTiers(now time.Time, clockErr error, ac fleet.Aircraft, windows Coverage) []CheckStatus {
	out := make([]CheckStatus, 0, len(e.scheme.Tiers))
	for _, t := range e.scheme.Tiers {
		if clockErr != nil {
			out = append(out, unavailable(t.ID))
			continue
		}
		out = append(out, e.EvaluateAt(now, ac, t.ID, windows))
	}
	return out
}

// EvaluateAt is the pure state machine: first match wins
//  1. covered by an active or imminent window on this or a heavier tier
//  2. no last-check record
//  3. hour basis: remaining flight hours
//  4. calendar basis: time until the end of the expiry day (UTC), or unknown
//     when the recorded date is unreadable
func (e *Evaluator) EvaluateAt(now time.Time, ac fleet.Aircraft, tier tiers.ID, windows Coverage) CheckStatus {
	cfg, ok := e.scheme.Tier(tier)
	if !ok {
		return unknown(tier, "Not part of "+e.scheme.Name+" scheme")
	}

	if windows != nil {
		if cov, ok := windows.Covering(ac.ID, tier, now); ok {
			return inProgress(tier, cov)
		}
	}

	length := e.intervalFor(ac, cfg)

	if cfg.Basis == tiers.Hours {
		last, ok := ac.LastHours(tier)
		if !ok {
			return never(tier)
		}
		return evaluateHours(cfg, last, length, ac.TotalFlightHours)
	}

	if err, bad := ac.MalformedDates[tier]; bad {
		slog.Warn("Unreadable last check date", "aircraft_id", ac.ID, "tier", tier, "error", err)
		return unknown(tier, "Check record unreadable")
	}
	last, ok := ac.LastDate(tier)
	if !ok {
		return never(tier)
	}
	return evaluateCalendar(cfg, last, int(math.Floor(length)), now)
}

// intervalFor prefers a legal explicit override and falls back to the assigned interval
func (e *Evaluator) intervalFor(ac fleet.Aircraft, cfg tiers.CheckTierConfig) float64 {
	if v, ok := ac.Override(cfg.ID, cfg.Basis); ok {
		if v > 0 && v <= float64(cfg.ValidityWindow) {
			return v
		}
		slog.Debug("Ignoring out of range interval override",
			"aircraft_id", ac.ID,
			"tier", cfg.ID,
			"override", v,
			"max", cfg.ValidityWindow,
		)
	}
	assigned, err := e.assignor.IntervalFor(ac.ID, cfg.ID)
	if err != nil {
		// cfg always comes from e.scheme
		return float64(interval.Pick(ac.ID, cfg))
	}
	return float64(assigned)
}

func evaluateHours(cfg tiers.CheckTierConfig, lastHours, intervalHours, currentHours float64) CheckStatus {
	remaining := (lastHours + intervalHours) - currentHours

	st := CheckStatus{
		Tier:           cfg.ID,
		HoursRemaining: remaining,
		LastCheckInfo:  fmt.Sprintf("At %.1f hrs", RoundTenth(lastHours)),
	}
	switch {
	case remaining < 0:
		st.Status = StatusExpired
		st.ExpiryInfo = fmt.Sprintf("Overdue by %.1f hrs", RoundTenth(-remaining))
	case remaining < cfg.WarningHours:
		st.Status = StatusWarning
		st.ExpiryInfo = fmt.Sprintf("%.1f hrs remaining", RoundTenth(remaining))
	default:
		st.Status = StatusValid
		st.ExpiryInfo = fmt.Sprintf("%.1f hrs remaining", RoundTenth(remaining))
	}
	st.DisplayText = displayText(st.Status)
	return st
}

// ExpiryInstant is the last millisecond of the day intervalDays after lastCheck, in UTC
func ExpiryInstant(lastCheck time.Time, intervalDays int) time.Time {
	day := time.Date(lastCheck.Year(), lastCheck.Month(), lastCheck.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, intervalDays+1).Add(-time.Millisecond)
}

func evaluateCalendar(cfg tiers.CheckTierConfig, lastCheck time.Time, intervalDays int, now time.Time) CheckStatus {
	expiry := ExpiryInstant(lastCheck, intervalDays)
	until := expiry.Sub(now)

	st := CheckStatus{
		Tier:           cfg.ID,
		ExpiresAt:      expiry,
		HoursRemaining: until.Hours(),
		LastCheckInfo:  "Last: " + lastCheck.Format(dateLayout),
	}
	switch {
	case until < 0:
		st.Status = StatusExpired
		st.ExpiryInfo = "Expired " + expiry.Format(dateLayout)
	case until < cfg.WarningThreshold:
		st.Status = StatusWarning
		st.ExpiryInfo = fmt.Sprintf("Expires in %.1f hrs", RoundTenth(until.Hours()))
	default:
		st.Status = StatusValid
		st.ExpiryInfo = "Valid until " + expiry.Format(dateLayout)
	}
	st.DisplayText = displayText(st.Status)
	return st
}

func inProgress(tier tiers.ID, cov maintenance.Coverage) CheckStatus {
	end := cov.Window.End()
	info := "Until " + end.Format(dateTimeLayout)
	if cov.State == maintenance.CoveragePending {
		info = "Starts " + cov.Window.Start.Format(dateTimeLayout)
	}
	last := ""
	if cov.Tier != tier {
		last = fmt.Sprintf("Covered by %s check", cov.Tier)
	}
	return CheckStatus{
		Tier:          tier,
		Status:        StatusInProgress,
		DisplayText:   displayText(StatusInProgress),
		ExpiryInfo:    info,
		LastCheckInfo: last,
		CompletesAt:   end,
	}
}

func never(tier tiers.ID) CheckStatus {
	return CheckStatus{
		Tier:          tier,
		Status:        StatusNone,
		DisplayText:   displayText(StatusNone),
		ExpiryInfo:    "Check required",
		LastCheckInfo: "Never",
	}
}

func unavailable(tier tiers.ID) CheckStatus {
	return CheckStatus{
		Tier:        tier,
		Status:      StatusUnavailable,
		DisplayText: displayText(StatusUnavailable),
	}
}

func unknown(tier tiers.ID, info string) CheckStatus {
	return CheckStatus{
		Tier:        tier,
		Status:      StatusUnknown,
		DisplayText: displayText(StatusUnknown),
		ExpiryInfo:  info,
	}
}
