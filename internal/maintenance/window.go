package maintenance

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"airline_sim/internal/models"
	"airline_sim/internal/tiers"
)

var ErrMalformedWindow = errors.New("malformed maintenance window")

const minutesPerDay = 24 * 60

// Window is a primary scheduled maintenance block in UTC
type Window struct {
	ID              string
	AircraftID      string
	CheckType       tiers.ID
	Start           time.Time
	DurationMinutes int
	DisplayCopy     bool
}

// End is Start plus the duration. Whole days are rolled forward on the
// calendar first and the remaining minutes are applied to the resulting day.
func (w Window) End() time.Time {
	days := w.DurationMinutes / minutesPerDay
	rem := w.DurationMinutes % minutesPerDay
	return w.Start.AddDate(0, 0, days).Add(time.Duration(rem) * time.Minute)
}

// ActiveAt reports whether t falls in [Start, End)
func (w Window) ActiveAt(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End())
}

// PendingAt reports whether the window has not started at t but starts within lead
func (w Window) PendingAt(t time.Time, lead time.Duration) bool {
	if !t.Before(w.Start) {
		return false
	}
	return w.Start.Sub(t) <= lead
}

// ParseWindow converts a scheduler record into a Window
func ParseWindow(rec models.WindowRecord) (Window, error) {
	if rec.AircraftID == "" {
		return Window{}, fmt.Errorf("%w: missing aircraft id", ErrMalformedWindow)
	}
	checkType, ok := tiers.ParseID(rec.CheckType)
	if !ok {
		return Window{}, fmt.Errorf("%w: unknown check type %q", ErrMalformedWindow, rec.CheckType)
	}
	if rec.Duration <= 0 {
		return Window{}, fmt.Errorf("%w: non-positive duration %d", ErrMalformedWindow, rec.Duration)
	}

	date, err := models.ParseDate(rec.ScheduledDate)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrMalformedWindow, err)
	}
	offset, err := parseClock(rec.StartTime)
	if err != nil {
		return Window{}, err
	}

	return Window{
		ID:              rec.ID,
		AircraftID:      rec.AircraftID,
		CheckType:       checkType,
		Start:           date.Add(offset),
		DurationMinutes: rec.Duration,
		DisplayCopy:     rec.IsOngoing,
	}, nil
}

// parseClock parses HH:MM:SS or HH:MM into an offset from midnight
func parseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	layout := "15:04:05"
	if strings.Count(s, ":") == 1 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable start time %q", ErrMalformedWindow, s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
}

// ParseWindows converts a batch of records, skipping and logging any that are malformed
func ParseWindows(records []models.WindowRecord) []Window {
	windows := make([]Window, 0, len(records))
	for _, rec := range records {
		w, err := ParseWindow(rec)
		if err != nil {
			slog.Warn("Skipping maintenance window", "aircraft_id", rec.AircraftID, "check_type", rec.CheckType, "error", err)
			continue
		}
		windows = append(windows, w)
	}
	return windows
}
