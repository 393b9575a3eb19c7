package models

// WindowRecord is one scheduled maintenance window as returned by the
// scheduler's date-range query
type WindowRecord struct {
	ID            string `json:"id,omitempty"`
	AircraftID    string `json:"aircraftId"`
	CheckType     string `json:"checkType"`
	ScheduledDate string `json:"scheduledDate"` // YYYY-MM-DD
	StartTime     string `json:"startTime"`     // HH:MM:SS
	Duration      int    `json:"duration"`      // minutes
	IsOngoing     bool   `json:"isOngoing"`     // display copy of a multi-day window
}

// MaintenanceRecord is the per-aircraft maintenance state owned by the fleet API.
// Absent fields mean the check was never performed or no override is set.
type MaintenanceRecord struct {
	AircraftID   string `json:"id"`
	Registration string `json:"registration,omitempty"`

	LastDailyCheckDate  *string `json:"lastDailyCheckDate,omitempty"`
	LastWeeklyCheckDate *string `json:"lastWeeklyCheckDate,omitempty"`
	LastACheckDate      *string `json:"lastACheckDate,omitempty"`
	LastACheckHours     *Number `json:"lastACheckHours,omitempty"`
	LastBCheckDate      *string `json:"lastBCheckDate,omitempty"`
	LastCCheckDate      *string `json:"lastCCheckDate,omitempty"`
	LastDCheckDate      *string `json:"lastDCheckDate,omitempty"`
	TotalFlightHours    Number  `json:"totalFlightHours"`

	DailyIntervalDays   *Number `json:"dailyIntervalDays,omitempty"`
	WeeklyIntervalDays  *Number `json:"weeklyIntervalDays,omitempty"`
	ACheckIntervalHours *Number `json:"aCheckIntervalHours,omitempty"`
	ACheckIntervalDays  *Number `json:"aCheckIntervalDays,omitempty"`
	BCheckIntervalDays  *Number `json:"bCheckIntervalDays,omitempty"`
	CCheckIntervalDays  *Number `json:"cCheckIntervalDays,omitempty"`
	DCheckIntervalDays  *Number `json:"dCheckIntervalDays,omitempty"`
}
