package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"airline_sim/internal/checks"
	"airline_sim/internal/clock"
	"airline_sim/internal/config"
	"airline_sim/internal/database"
	"airline_sim/internal/push"
	"airline_sim/internal/scheduler"
	"airline_sim/internal/statuscache"
	"airline_sim/internal/tasks"
	"airline_sim/internal/tiers"
	"airline_sim/internal/worldapi"
)

// PushSource delivers world ticks until its context is cancelled
type PushSource interface {
	Run(ctx context.Context) error
}

// Daemon represents the main daemon structure
type Daemon struct {
	ctx       context.Context
	cancel    context.CancelFunc
	engine    *clock.Engine
	scheduler *scheduler.Scheduler
	database  database.Repository
	push      PushSource
	closers   []io.Closer
	wg        sync.WaitGroup
	done      chan struct{}
}

// New creates a new daemon instance
func New(cfg *config.Config) (*Daemon, error) {
	scheme, err := tiers.Lookup(cfg.Maintenance.Scheme)
	if err != nil {
		return nil, err
	}

	// Initialize database
	db, err := database.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var sink tasks.StatusSink = tasks.LogSink{}
	var closers []io.Closer
	if cfg.Redis.Addr != "" {
		cache, err := statuscache.New(cfg.Redis.Addr, cfg.World.ID, cfg.Redis.TTL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize status cache: %w", err)
		}
		sink = cache
		closers = append(closers, cache)
	}

	ctx, cancel := context.WithCancel(context.Background())
	engine := clock.NewEngine(cfg.World.ID)
	api := worldapi.New(cfg.World.APIURL, cfg.World.PollTimeout)
	evaluator := checks.NewEvaluator(scheme, engine)

	// Create scheduler
	sched := scheduler.New(ctx)
	sched.AddTask(tasks.NewWorldPollTask(api, engine, cfg.World.PollInterval, cfg.World.PollTimeout))
	sched.AddTask(tasks.NewFleetRefreshTask(api, db, engine, cfg.Fleet.RefreshInterval, cfg.Fleet.WindowDays))
	sched.AddTask(tasks.NewStatusPublishTask(db, engine, evaluator, sink, cfg.Maintenance.PendingLead, cfg.Status.PublishInterval))

	engine.Subscribe(republishOnDiscontinuity(sched))

	source := newPushSource(cfg.Push, cfg.World.ID, &pushSink{
		Engine: engine,
		onDisconnect: func() {
			// fall back to the poll immediately instead of waiting for the next tick
			sched.Trigger(tasks.WorldPollTaskName)
		},
	})

	slog.Info("Daemon configured",
		"world_id", cfg.World.ID,
		"api_url", cfg.World.APIURL,
		"push_transport", cfg.Push.Transport,
		"scheme", scheme.Name,
		"status_sink", fmt.Sprintf("%T", sink),
	)

	return &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		engine:    engine,
		scheduler: sched,
		database:  db,
		push:      source,
		closers:   closers,
		done:      make(chan struct{}),
	}, nil
}

func newPushSource(cfg config.PushConfig, worldID string, sink push.Sink) PushSource {
	switch cfg.Transport {
	case config.TransportWebSocket:
		source := push.NewWebSocketSource(cfg.URL, sink)
		if cfg.AuthToken != "" {
			source.SetHeader("Authorization", "Bearer "+cfg.AuthToken)
		}
		return source
	case config.TransportNATS:
		return push.NewNATSSource(cfg.URL, push.Subject(cfg.NATSSubject, worldID), sink)
	}
	return nil
}

// pushSink forwards ticks to the engine and reports lost connections
type pushSink struct {
	*clock.Engine
	onDisconnect func()
}

func (p *pushSink) SetPushConnected(connected bool) {
	was := p.Engine.PushConnected()
	p.Engine.SetPushConnected(connected)
	if was && !connected && p.onDisconnect != nil {
		p.onDisconnect()
	}
}

// republishOnDiscontinuity triggers a status round when the clock is first
// established or its source or rate changes. Regular ticks are left to the
// publish interval.
func republishOnDiscontinuity(sched *scheduler.Scheduler) func(clock.SyncEvent) {
	var (
		mu   sync.Mutex
		last *clock.WorldClock
	)
	return func(ev clock.SyncEvent) {
		mu.Lock()
		prev := last
		current := ev.Clock
		last = &current
		mu.Unlock()

		if prev != nil && prev.Source == current.Source && prev.AccelerationFactor == current.AccelerationFactor {
			return
		}
		slog.Info("World clock synchronized",
			"event_id", ev.ID,
			"source", current.Source,
			"acceleration", current.AccelerationFactor,
			"game_time", current.ReferenceTime,
		)
		sched.Trigger(tasks.StatusPublishTaskName)
	}
}

func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	d.scheduler.Start()

	if d.push != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := d.push.Run(d.ctx); err != nil && d.ctx.Err() == nil {
				// polling keeps the clock alive without push
				slog.Error("Push channel stopped", "error", err)
			}
		}()
	}

	// Wait for context cancellation
	go func() {
		<-d.ctx.Done()
		close(d.done)
	}()

	slog.Info("Daemon started successfully")
	return nil
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")
	d.cancel()
	<-d.done

	d.scheduler.Stop()
	d.wg.Wait()

	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			slog.Error("Error closing status cache", "error", err)
		}
	}

	if err := d.database.Close(); err != nil {
		slog.Error("Error closing database", "error", err)
	}

	slog.Info("Daemon stopped")
	return nil
}
