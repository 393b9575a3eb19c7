// Package interval assigns per-aircraft check intervals.
//
// Intervals are a pure function of the aircraft id and the check type so that a
// reconnect or refresh can never move an aircraft's due dates.
package interval

import (
	"errors"
	"fmt"
	"unicode/utf16"

	"airline_sim/internal/tiers"
)

var ErrUnknownTier = errors.New("tier not in scheme")

// Hash is the rolling multiplicative hash (h = h*31 + code unit) over the
// UTF-16 code units of s, wrapped to a signed 32-bit integer and returned as
// its absolute value. math.MinInt32 maps to 2147483648.
func Hash(s string) uint32 {
	var h int32
	for _, cu := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(cu)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return uint32(abs)
}

// Pick maps the hash of aircraftID+tier into the tier's configured range
func Pick(aircraftID string, tier tiers.CheckTierConfig) int {
	r := tier.IntervalRange
	if r.Fixed() {
		return r.Min
	}
	span := uint32(r.Max - r.Min + 1)
	return r.Min + int(Hash(aircraftID+string(tier.ID))%span)
}

// Assignor hands out default intervals for one tier scheme
type Assignor struct {
	scheme tiers.Scheme
}

func NewAssignor(scheme tiers.Scheme) *Assignor {
	return &Assignor{scheme: scheme}
}

// IntervalFor returns the default interval in days or flight hours, per the tier basis
func (a *Assignor) IntervalFor(aircraftID string, checkType tiers.ID) (int, error) {
	tier, ok := a.scheme.Tier(checkType)
	if !ok {
		return 0, fmt.Errorf("%w: %s (%s)", ErrUnknownTier, checkType, a.scheme.Name)
	}
	return Pick(aircraftID, tier), nil
}
