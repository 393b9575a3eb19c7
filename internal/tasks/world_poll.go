package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"airline_sim/internal/clock"
	"airline_sim/internal/models"
)

const WorldPollTaskName = "world_poll"

// WorldInfoFetcher is the polling channel of the game server
type WorldInfoFetcher interface {
	WorldInfo(ctx context.Context) (models.WorldInfo, error)
}

// PollSink accepts sequenced poll responses
type PollSink interface {
	NextSequence() uint64
	ApplyPoll(seq uint64, u clock.Update) clock.Outcome
}

// WorldPollTask periodically re-anchors the world clock from the REST API.
// A failed poll leaves the clock extrapolating from its last reference.
type WorldPollTask struct {
	api      WorldInfoFetcher
	engine   PollSink
	interval time.Duration
	timeout  time.Duration
}

func NewWorldPollTask(api WorldInfoFetcher, engine PollSink, interval, timeout time.Duration) *WorldPollTask {
	return &WorldPollTask{
		api:      api,
		engine:   engine,
		interval: interval,
		timeout:  timeout,
	}
}

func (t *WorldPollTask) Name() string {
	return WorldPollTaskName
}

func (t *WorldPollTask) Interval() time.Duration {
	return t.interval
}

// Run issues one poll. The sequence token is taken before the request so a
// slow response cannot override a newer one.
func (t *WorldPollTask) Run(ctx context.Context) error {
	seq := t.engine.NextSequence()

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	info, err := t.api.WorldInfo(ctx)
	if err != nil {
		return fmt.Errorf("world poll %d: %w", seq, err)
	}

	ts, err := models.ParseTimestamp(info.CurrentTime)
	if err != nil {
		return fmt.Errorf("world poll %d: %w", seq, err)
	}

	outcome := t.engine.ApplyPoll(seq, clock.Update{
		Time:               ts,
		AccelerationFactor: info.TimeAcceleration,
		WorldID:            info.WorldID,
	})
	slog.Debug("World poll applied",
		"sequence", seq,
		"outcome", outcome,
		"game_time", ts.Format(time.RFC3339),
		"acceleration", info.TimeAcceleration,
	)
	return nil
}
