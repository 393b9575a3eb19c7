// Package push delivers world tick events from the game server to the clock
// engine. The push channel is authoritative while connected.
package push

import (
	"encoding/json"
	"fmt"

	"airline_sim/internal/clock"
	"airline_sim/internal/models"
)

// EventWorldTick is the envelope type carrying a models.WorldTick
const EventWorldTick = "world:tick"

// Sink receives decoded ticks and connection state changes
type Sink interface {
	ApplyPush(u clock.Update) clock.Outcome
	SetPushConnected(connected bool)
}

// envelope is the {type, payload} framing used on the socket
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeTick decodes a bare tick payload into a clock update
func DecodeTick(data []byte) (clock.Update, error) {
	var tick models.WorldTick
	if err := json.Unmarshal(data, &tick); err != nil {
		return clock.Update{}, fmt.Errorf("failed to decode tick: %w", err)
	}
	ts, err := models.ParseTimestamp(tick.GameTime)
	if err != nil {
		return clock.Update{}, err
	}
	return clock.Update{
		Time:               ts,
		AccelerationFactor: tick.TimeAcceleration,
		WorldID:            tick.WorldID,
	}, nil
}

// decodeEnvelope returns the tick inside a socket frame. ok is false for
// frames of other event types.
func decodeEnvelope(data []byte) (u clock.Update, ok bool, err error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return clock.Update{}, false, fmt.Errorf("failed to decode frame: %w", err)
	}
	if env.Type != EventWorldTick {
		return clock.Update{}, false, nil
	}
	u, err = DecodeTick(env.Payload)
	if err != nil {
		return clock.Update{}, false, err
	}
	return u, true, nil
}
