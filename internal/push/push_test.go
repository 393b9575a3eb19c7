package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"airline_sim/internal/clock"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink wraps an engine and records connection state changes
type recordingSink struct {
	mu     sync.Mutex
	engine *clock.Engine
	states []bool
}

func (r *recordingSink) ApplyPush(u clock.Update) clock.Outcome {
	return r.engine.ApplyPush(u)
}

func (r *recordingSink) SetPushConnected(connected bool) {
	r.mu.Lock()
	r.states = append(r.states, connected)
	r.mu.Unlock()
	r.engine.SetPushConnected(connected)
}

func (r *recordingSink) States() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.states...)
}

func TestDecodeTick(t *testing.T) {
	u, err := DecodeTick([]byte(`{"gameTime":"2024-01-01T06:00:00.000Z","timeAcceleration":60,"worldId":"w-1"}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), u.Time)
	assert.Equal(t, 60.0, u.AccelerationFactor)
	assert.Equal(t, "w-1", u.WorldID)

	_, err = DecodeTick([]byte(`{"gameTime":"soon"}`))
	assert.Error(t, err)

	_, err = DecodeTick([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeEnvelope(t *testing.T) {
	_, ok, err := decodeEnvelope([]byte(`{"type":"flight:landed","payload":{}}`))
	require.NoError(t, err)
	assert.False(t, ok)

	u, ok, err := decodeEnvelope([]byte(`{"type":"world:tick","payload":{"gameTime":"2024-01-01T06:00:00Z","timeAcceleration":30,"worldId":"w-1"}}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30.0, u.AccelerationFactor)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "world.w-1.tick", Subject("", "w-1"))
	assert.Equal(t, "ticks.w-1", Subject("ticks.%s", "w-1"))
}

func TestWebSocketSource_AppliesTicksForActiveWorld(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		frames := []string{
			`{"type":"aircraft:moved","payload":{"id":"AC-1"}}`,
			`{"type":"world:tick","payload":{"gameTime":"2024-01-01T06:00:00Z","timeAcceleration":60,"worldId":"w-1"}}`,
			`{"type":"world:tick","payload":{"gameTime":"2030-01-01T00:00:00Z","timeAcceleration":1,"worldId":"w-2"}}`,
			`garbage`,
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// hold the connection until the client goes away
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	engine := clock.NewEngine("w-1")
	sink := &recordingSink{engine: engine}
	source := NewWebSocketSource("ws"+strings.TrimPrefix(srv.URL, "http"), sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- source.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		_, ok := engine.Snapshot()
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	snap, _ := engine.Snapshot()
	assert.Equal(t, time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), snap.ReferenceTime)
	assert.Equal(t, clock.SourcePush, snap.Source)
	assert.True(t, engine.PushConnected())

	// let the foreign-world tick arrive and be ignored
	time.Sleep(50 * time.Millisecond)
	snap, _ = engine.Snapshot()
	assert.Equal(t, 60.0, snap.AccelerationFactor)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Source did not exit after context cancellation")
	}

	states := sink.States()
	require.NotEmpty(t, states)
	assert.True(t, states[0])
	assert.False(t, states[len(states)-1])
	assert.False(t, engine.PushConnected())
}

func TestWebSocketSource_GivesUpAfterMaxRetries(t *testing.T) {
	engine := clock.NewEngine("w-1")
	source := NewWebSocketSource("ws://127.0.0.1:1/ticks", &recordingSink{engine: engine})
	source.retryBackoff = time.Millisecond
	source.maxRetries = 2

	err := source.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
}

func TestNATSSource_Handle(t *testing.T) {
	engine := clock.NewEngine("w-1")
	source := NewNATSSource("nats://localhost:4222", "world.w-1.tick", &recordingSink{engine: engine})

	source.handle([]byte(`not json`))
	_, ok := engine.Snapshot()
	assert.False(t, ok)

	source.handle([]byte(`{"gameTime":"2024-01-01T06:00:00Z","timeAcceleration":60,"worldId":"w-1"}`))
	snap, ok := engine.Snapshot()
	require.True(t, ok)
	assert.Equal(t, clock.SourcePush, snap.Source)
}
