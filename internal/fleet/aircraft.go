// Package fleet holds the read-only aircraft view the status engine works on.
package fleet

import (
	"fmt"
	"time"

	"airline_sim/internal/models"
	"airline_sim/internal/tiers"
)

// Aircraft is the maintenance state of one aircraft, keyed by tier
type Aircraft struct {
	ID               string
	Registration     string
	TotalFlightHours float64

	LastCheckDates map[tiers.ID]time.Time // UTC midnight of the check day
	LastCheckHours map[tiers.ID]float64   // airframe hours at the check
	OverrideDays   map[tiers.ID]float64
	OverrideHours  map[tiers.ID]float64

	// MalformedDates lists tiers whose last check date could not be parsed.
	// Only calendar-based evaluation reads it.
	MalformedDates map[tiers.ID]error
}

// LastDate returns the last check day for tier
func (a Aircraft) LastDate(tier tiers.ID) (time.Time, bool) {
	d, ok := a.LastCheckDates[tier]
	return d, ok
}

// LastHours returns the airframe hours at the last check for tier
func (a Aircraft) LastHours(tier tiers.ID) (float64, bool) {
	h, ok := a.LastCheckHours[tier]
	return h, ok
}

// Override returns the explicit interval for tier in the unit of basis
func (a Aircraft) Override(tier tiers.ID, basis tiers.Basis) (float64, bool) {
	if basis == tiers.Hours {
		v, ok := a.OverrideHours[tier]
		return v, ok
	}
	v, ok := a.OverrideDays[tier]
	return v, ok
}

// FromRecord converts a fleet API record. Fields that fail to parse are
// recorded per tier in MalformedDates and leave the rest of the aircraft usable.
func FromRecord(rec models.MaintenanceRecord) (Aircraft, error) {
	if rec.AircraftID == "" {
		return Aircraft{}, fmt.Errorf("%w: maintenance record without aircraft id", models.ErrMalformedRecord)
	}

	ac := Aircraft{
		ID:               rec.AircraftID,
		Registration:     rec.Registration,
		TotalFlightHours: rec.TotalFlightHours.Float(),
		LastCheckDates:   make(map[tiers.ID]time.Time),
		LastCheckHours:   make(map[tiers.ID]float64),
		OverrideDays:     make(map[tiers.ID]float64),
		OverrideHours:    make(map[tiers.ID]float64),
		MalformedDates:   make(map[tiers.ID]error),
	}

	dates := map[tiers.ID]*string{
		tiers.Daily:  rec.LastDailyCheckDate,
		tiers.Weekly: rec.LastWeeklyCheckDate,
		tiers.A:      rec.LastACheckDate,
		tiers.B:      rec.LastBCheckDate,
		tiers.C:      rec.LastCCheckDate,
		tiers.D:      rec.LastDCheckDate,
	}
	for tier, raw := range dates {
		if raw == nil || *raw == "" {
			continue
		}
		d, err := models.ParseDate(*raw)
		if err != nil {
			ac.MalformedDates[tier] = err
			continue
		}
		ac.LastCheckDates[tier] = d
	}

	if rec.LastACheckHours != nil {
		ac.LastCheckHours[tiers.A] = rec.LastACheckHours.Float()
	}

	setOverride(ac.OverrideDays, tiers.Daily, rec.DailyIntervalDays)
	setOverride(ac.OverrideDays, tiers.Weekly, rec.WeeklyIntervalDays)
	setOverride(ac.OverrideDays, tiers.A, rec.ACheckIntervalDays)
	setOverride(ac.OverrideDays, tiers.B, rec.BCheckIntervalDays)
	setOverride(ac.OverrideDays, tiers.C, rec.CCheckIntervalDays)
	setOverride(ac.OverrideDays, tiers.D, rec.DCheckIntervalDays)
	setOverride(ac.OverrideHours, tiers.A, rec.ACheckIntervalHours)

	return ac, nil
}

func setOverride(dst map[tiers.ID]float64, tier tiers.ID, v *models.Number) {
	if v != nil {
		dst[tier] = v.Float()
	}
}
