package push

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"airline_sim/internal/clock"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPattern is formatted with the world id
const DefaultSubjectPattern = "world.%s.tick"

// NATSSource subscribes to world ticks published on a NATS subject
type NATSSource struct {
	url     string
	subject string
	sink    Sink
}

func NewNATSSource(url, subject string, sink Sink) *NATSSource {
	return &NATSSource{
		url:     url,
		subject: subject,
		sink:    sink,
	}
}

// Subject returns the subject for worldID built from pattern
func Subject(pattern, worldID string) string {
	if pattern == "" {
		pattern = DefaultSubjectPattern
	}
	return fmt.Sprintf(pattern, worldID)
}

// Run connects, subscribes and blocks until ctx is cancelled. The NATS client
// reconnects on its own; connection state is mirrored into the sink.
func (s *NATSSource) Run(ctx context.Context) error {
	nc, err := nats.Connect(s.url,
		nats.Name("airline_sim"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.ConnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS connected", "url", nc.ConnectedUrl())
			s.sink.SetPushConnected(true)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
			s.sink.SetPushConnected(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "url", nc.ConnectedUrl())
			s.sink.SetPushConnected(true)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(s.subject, func(msg *nats.Msg) {
		s.handle(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	slog.Info("Subscribed to tick subject", "subject", s.subject)
	if nc.IsConnected() {
		s.sink.SetPushConnected(true)
	}

	<-ctx.Done()
	_ = sub.Unsubscribe()
	s.sink.SetPushConnected(false)
	return ctx.Err()
}

func (s *NATSSource) handle(data []byte) {
	u, err := DecodeTick(data)
	if err != nil {
		slog.Debug("Skipping undecodable tick", "subject", s.subject, "error", err)
		return
	}
	if outcome := s.sink.ApplyPush(u); outcome != clock.Accepted {
		slog.Debug("Tick not applied", "outcome", outcome, "world_id", u.WorldID)
	}
}
