package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedRecord marks a record that cannot be interpreted and must be skipped
var ErrMalformedRecord = errors.New("malformed record")

// WorldInfo is the body of the periodic world info poll
type WorldInfo struct {
	CurrentTime      string  `json:"currentTime"`
	TimeAcceleration float64 `json:"timeAcceleration"`
	WorldID          string  `json:"worldId"`
}

// WorldTick is a push event carrying the authoritative game time
type WorldTick struct {
	GameTime         string  `json:"gameTime"`
	TimeAcceleration float64 `json:"timeAcceleration"`
	WorldID          string  `json:"worldId"`
}

// ParseTimestamp parses the ISO-8601 timestamps used by the world feeds.
// Timestamps without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrMalformedRecord)
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrMalformedRecord, s)
}

// ParseDate parses a calendar date. Full timestamps are accepted and truncated
// to their UTC day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) == len("2006-01-02") {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: unparseable date %q", ErrMalformedRecord, s)
		}
		return d, nil
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Number accepts JSON numbers as well as numeric strings, which is how
// DECIMAL columns come back from the fleet API
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%w: not a number %q", ErrMalformedRecord, s)
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}
