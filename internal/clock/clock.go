package clock

import (
	"errors"
	"math"
	"time"
)

// ErrUnavailable is returned when no channel has delivered a reference yet.
// Callers must not substitute wall-clock time.
var ErrUnavailable = errors.New("simulated time unavailable")

// Source identifies the channel an accepted update arrived on
type Source string

const (
	SourcePush Source = "push"
	SourcePoll Source = "poll"
)

// WorldClock is an immutable snapshot of the synchronization state
type WorldClock struct {
	ReferenceTime      time.Time // simulated instant last confirmed authoritative
	ReferenceTimestamp time.Time // wall-clock instant the reference was captured
	AccelerationFactor float64   // simulated seconds per real second
	Source             Source
	Sequence           uint64 // incremented on every accepted update
}

// At extrapolates simulated time at the real instant now. The result is always
// derived from the reference, never accumulated.
func (c WorldClock) At(now time.Time) time.Time {
	elapsed := now.Sub(c.ReferenceTimestamp)
	if elapsed < 0 {
		elapsed = 0
	}
	return c.ReferenceTime.Add(scale(elapsed, c.AccelerationFactor))
}

func scale(d time.Duration, factor float64) time.Duration {
	if factor == math.Trunc(factor) && math.Abs(factor) < 1<<31 {
		return d * time.Duration(factor)
	}
	return time.Duration(float64(d) * factor)
}

// Update is one authoritative time report from either channel
type Update struct {
	Time               time.Time
	AccelerationFactor float64
	WorldID            string
}

func (u Update) valid() bool {
	if u.Time.IsZero() {
		return false
	}
	if math.IsNaN(u.AccelerationFactor) || math.IsInf(u.AccelerationFactor, 0) {
		return false
	}
	return u.AccelerationFactor >= 0
}

// Outcome is the result of offering an update to the engine
type Outcome string

const (
	Accepted     Outcome = "accepted"
	Stale        Outcome = "stale"         // poll response superseded by a newer request
	Backwards    Outcome = "backwards"     // poll would rewind time while push is authoritative
	ForeignWorld Outcome = "foreign_world" // update for a world other than the active one
	Invalid      Outcome = "invalid"
)
