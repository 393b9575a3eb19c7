package push

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"airline_sim/internal/clock"

	"github.com/gorilla/websocket"
)

// WebSocketSource streams world ticks over a websocket and reconnects with
// exponential backoff until its context is cancelled
type WebSocketSource struct {
	url          string
	sink         Sink
	dialer       *websocket.Dialer
	header       http.Header
	retryBackoff time.Duration
	maxBackoff   time.Duration
	maxRetries   int
}

func NewWebSocketSource(url string, sink Sink) *WebSocketSource {
	return &WebSocketSource{
		url:          url,
		sink:         sink,
		dialer:       &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		header:       http.Header{},
		retryBackoff: 1 * time.Second,
		maxBackoff:   30 * time.Second,
		maxRetries:   -1, // -1 means infinite retries
	}
}

// SetHeader adds a header sent on every dial (e.g. Authorization)
func (s *WebSocketSource) SetHeader(key, value string) {
	s.header.Set(key, value)
}

// Run blocks until ctx is cancelled or the retry budget is exhausted
func (s *WebSocketSource) Run(ctx context.Context) error {
	retryCount := 0
	backoff := s.retryBackoff

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			retryCount++
			if s.maxRetries > 0 && retryCount > s.maxRetries {
				return fmt.Errorf("max retries (%d) exceeded", s.maxRetries)
			}
			slog.Warn("Failed to connect to tick stream", "url", s.url, "retry", retryCount, "error", err)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff *= 2
			if backoff > s.maxBackoff {
				backoff = s.maxBackoff
			}
			continue
		}

		retryCount = 0
		backoff = s.retryBackoff
		slog.Info("Connected to tick stream", "url", s.url)
		s.sink.SetPushConnected(true)

		err = s.readTicks(ctx, conn)
		s.sink.SetPushConnected(false)
		conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("Tick stream disconnected, reconnecting", "error", err)
	}
}

func (s *WebSocketSource) readTicks(ctx context.Context, conn *websocket.Conn) error {
	// unblock ReadMessage on shutdown
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}

		u, ok, err := decodeEnvelope(data)
		if err != nil {
			slog.Debug("Skipping undecodable frame", "error", err)
			continue
		}
		if !ok {
			continue
		}
		if outcome := s.sink.ApplyPush(u); outcome != clock.Accepted {
			slog.Debug("Tick not applied", "outcome", outcome, "world_id", u.WorldID)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
