package checks

import (
	"math"
	"time"

	"airline_sim/internal/tiers"
)

// Status is the derived airworthiness state of one tier
type Status string

const (
	StatusNone        Status = "none" // never performed, treated as expired
	StatusValid       Status = "valid"
	StatusWarning     Status = "warning"
	StatusExpired     Status = "expired"
	StatusInProgress  Status = "inprogress"
	StatusUnavailable Status = "unavailable" // simulated time not established yet
	StatusUnknown     Status = "unknown"     // tier data could not be interpreted
)

// Airworthy reports whether the status allows the aircraft to operate
func (s Status) Airworthy() bool {
	return s == StatusValid || s == StatusWarning
}

// CheckStatus is recomputed on demand and never stored as the source of truth
type CheckStatus struct {
	Tier          tiers.ID `json:"tier"`
	Status        Status   `json:"status"`
	DisplayText   string   `json:"displayText"`
	ExpiryInfo    string   `json:"expiryInfo"`
	LastCheckInfo string   `json:"lastCheckInfo"`

	ExpiresAt      time.Time `json:"expiresAt,omitempty"`
	HoursRemaining float64   `json:"hoursRemaining"`
	CompletesAt    time.Time `json:"completesAt,omitempty"`
}

// RoundTenth rounds to one decimal for display
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func displayText(s Status) string {
	switch s {
	case StatusValid:
		return "Valid"
	case StatusWarning:
		return "Due Soon"
	case StatusExpired:
		return "Expired"
	case StatusNone:
		return "Never Performed"
	case StatusInProgress:
		return "In Progress"
	case StatusUnavailable:
		return "Awaiting Game Time"
	}
	return "Unknown"
}
