package clock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SyncEvent is broadcast to subscribers after every accepted update
type SyncEvent struct {
	ID     string
	Source Source
	Clock  WorldClock
	At     time.Time
}

// Engine owns the single WorldClock of a world and arbitrates the push and
// poll channels. Readers only ever see copies.
type Engine struct {
	mu            sync.Mutex
	worldID       string
	wallClock     func() time.Time
	clock         *WorldClock
	issued        uint64 // latest poll sequence handed out
	applied       uint64 // latest poll sequence applied
	pushConnected bool
	subscribers   []func(SyncEvent)
}

// Option configures an Engine
type Option func(*Engine)

// WithWallClock replaces time.Now, mainly for tests
func WithWallClock(fn func() time.Time) Option {
	return func(e *Engine) {
		e.wallClock = fn
	}
}

// NewEngine creates an engine for worldID. An empty worldID accepts updates for any world.
func NewEngine(worldID string, opts ...Option) *Engine {
	e := &Engine{
		worldID:   worldID,
		wallClock: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns a copy of the current reference
func (e *Engine) Snapshot() (WorldClock, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clock == nil {
		return WorldClock{}, false
	}
	return *e.clock, true
}

// Now returns the extrapolated simulated time at the current wall-clock instant
func (e *Engine) Now() (time.Time, error) {
	return e.At(e.wallClock())
}

// At returns the extrapolated simulated time at the real instant now
func (e *Engine) At(now time.Time) (time.Time, error) {
	c, ok := e.Snapshot()
	if !ok {
		return time.Time{}, ErrUnavailable
	}
	return c.At(now), nil
}

// NextSequence issues the token for a new poll request. Only the response
// carrying the latest token will be applied.
func (e *Engine) NextSequence() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.issued++
	return e.issued
}

// SetPushConnected records the push channel state. While connected, push is
// authoritative and poll updates may not move time backwards.
func (e *Engine) SetPushConnected(connected bool) {
	e.mu.Lock()
	changed := e.pushConnected != connected
	e.pushConnected = connected
	e.mu.Unlock()
	if changed {
		slog.Info("Push channel state changed", "world_id", e.worldID, "connected", connected)
	}
}

func (e *Engine) PushConnected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pushConnected
}

// Subscribe registers fn to be called after every accepted update.
// fn runs on the goroutine that delivered the update.
func (e *Engine) Subscribe(fn func(SyncEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// ApplyPush offers a push-channel tick. Ticks for the active world are always accepted.
func (e *Engine) ApplyPush(u Update) Outcome {
	if !u.valid() {
		slog.Warn("Discarding invalid push update", "world_id", u.WorldID, "acceleration", u.AccelerationFactor)
		return Invalid
	}
	if !e.sameWorld(u.WorldID) {
		return ForeignWorld
	}

	e.mu.Lock()
	now := e.wallClock()
	event := e.acceptLocked(SourcePush, u, now)
	subs := e.subscribers
	e.mu.Unlock()

	e.broadcast(subs, event)
	return Accepted
}

// ApplyPoll offers the response to the poll request identified by seq
func (e *Engine) ApplyPoll(seq uint64, u Update) Outcome {
	if !u.valid() {
		slog.Warn("Discarding invalid poll update", "world_id", u.WorldID, "sequence", seq)
		return Invalid
	}
	if !e.sameWorld(u.WorldID) {
		return ForeignWorld
	}

	e.mu.Lock()
	if seq != e.issued || seq <= e.applied {
		latest := e.issued
		e.mu.Unlock()
		slog.Debug("Discarding stale poll response", "sequence", seq, "latest", latest)
		return Stale
	}

	now := e.wallClock()
	if e.pushConnected && e.clock != nil {
		current := e.clock.At(now)
		if u.Time.Before(current) {
			e.applied = seq
			e.mu.Unlock()
			slog.Debug("Rejecting poll update behind push-synchronized time",
				"sequence", seq,
				"polled", u.Time.Format(time.RFC3339Nano),
				"current", current.Format(time.RFC3339Nano),
			)
			return Backwards
		}
	}

	e.applied = seq
	event := e.acceptLocked(SourcePoll, u, now)
	subs := e.subscribers
	e.mu.Unlock()

	e.broadcast(subs, event)
	return Accepted
}

// sameWorld reports whether an update belongs to the active world. Once a
// world is configured, updates must name it.
func (e *Engine) sameWorld(worldID string) bool {
	return e.worldID == "" || worldID == e.worldID
}

func (e *Engine) acceptLocked(source Source, u Update, now time.Time) SyncEvent {
	var seq uint64 = 1
	if e.clock != nil {
		seq = e.clock.Sequence + 1
	}
	e.clock = &WorldClock{
		ReferenceTime:      u.Time,
		ReferenceTimestamp: now,
		AccelerationFactor: u.AccelerationFactor,
		Source:             source,
		Sequence:           seq,
	}
	return SyncEvent{
		ID:     uuid.New().String(),
		Source: source,
		Clock:  *e.clock,
		At:     now,
	}
}

func (e *Engine) broadcast(subs []func(SyncEvent), event SyncEvent) {
	for _, fn := range subs {
		fn(event)
	}
}
