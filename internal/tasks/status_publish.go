package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"airline_sim/internal/checks"
	"airline_sim/internal/clock"
	"airline_sim/internal/database"
	"airline_sim/internal/fleet"
	"airline_sim/internal/maintenance"
)

const StatusPublishTaskName = "status_publish"

// ClockReader is the read side of the clock engine
type ClockReader interface {
	Now() (time.Time, error)
	Snapshot() (clock.WorldClock, bool)
}

// StatusSink receives every evaluation round
type StatusSink interface {
	PublishStatuses(ctx context.Context, evaluatedAt time.Time, fleet map[string][]checks.CheckStatus) error
	PublishClock(ctx context.Context, wc clock.WorldClock) error
}

// FleetReport is one evaluation of the stored fleet
type FleetReport struct {
	EvaluatedAt time.Time
	Aircraft    []fleet.Aircraft
	Windows     *maintenance.Resolver
	Statuses    map[string][]checks.CheckStatus
}

// StatusPublishTask re-derives every check status from the stored snapshots
type StatusPublishTask struct {
	fleet       database.FleetRepository
	windows     database.WindowRepository
	evaluator   *checks.Evaluator
	clock       ClockReader
	sink        StatusSink
	pendingLead time.Duration
	interval    time.Duration
}

func NewStatusPublishTask(repo database.Repository, clk ClockReader, evaluator *checks.Evaluator, sink StatusSink, pendingLead, interval time.Duration) *StatusPublishTask {
	return &StatusPublishTask{
		fleet:       repo.FleetRepository(),
		windows:     repo.WindowRepository(),
		evaluator:   evaluator,
		clock:       clk,
		sink:        sink,
		pendingLead: pendingLead,
		interval:    interval,
	}
}

func (t *StatusPublishTask) Name() string {
	return StatusPublishTaskName
}

func (t *StatusPublishTask) Interval() time.Duration {
	return t.interval
}

func (t *StatusPublishTask) Run(ctx context.Context) error {
	report, err := t.Evaluate()
	if err != nil {
		return err
	}

	if err := t.sink.PublishStatuses(ctx, report.EvaluatedAt, report.Statuses); err != nil {
		return fmt.Errorf("failed to publish statuses: %w", err)
	}

	if wc, ok := t.clock.Snapshot(); ok {
		if err := t.sink.PublishClock(ctx, wc); err != nil {
			return fmt.Errorf("failed to publish clock: %w", err)
		}
	}
	return nil
}

// Evaluate loads the stored snapshots and evaluates every aircraft.
// Records that cannot be interpreted are logged and left out.
func (t *StatusPublishTask) Evaluate() (FleetReport, error) {
	records, err := t.fleet.List()
	if err != nil {
		return FleetReport{}, fmt.Errorf("failed to load fleet snapshot: %w", err)
	}
	windowRecords, err := t.windows.List()
	if err != nil {
		return FleetReport{}, fmt.Errorf("failed to load window snapshot: %w", err)
	}

	aircraft := make([]fleet.Aircraft, 0, len(records))
	for _, rec := range records {
		ac, err := fleet.FromRecord(rec)
		if err != nil {
			slog.Warn("Skipping maintenance record", "aircraft_id", rec.AircraftID, "error", err)
			continue
		}
		aircraft = append(aircraft, ac)
	}

	resolver := maintenance.NewResolver(
		t.evaluator.Scheme(),
		maintenance.ParseWindows(windowRecords),
		maintenance.WithPendingLead(t.pendingLead),
	)

	now, clockErr := t.clock.Now()
	if clockErr != nil {
		slog.Debug("Evaluating without simulated time", "reason", clockErr)
		now = time.Time{}
	}
	return FleetReport{
		EvaluatedAt: now,
		Aircraft:    aircraft,
		Windows:     resolver,
		Statuses:    t.evaluator.EvaluateFleetAt(now, clockErr, aircraft, resolver),
	}, nil
}

// LogSink reports each evaluation round through the structured logger.
// It is used when no Redis address is configured.
type LogSink struct{}

func (LogSink) PublishStatuses(ctx context.Context, evaluatedAt time.Time, fleet map[string][]checks.CheckStatus) error {
	counts := make(map[checks.Status]int)
	for id, statuses := range fleet {
		for _, st := range statuses {
			counts[st.Status]++
			if st.Status == checks.StatusExpired || st.Status == checks.StatusNone {
				slog.Debug("Check not current", "aircraft_id", id, "tier", st.Tier, "status", st.Status, "info", st.ExpiryInfo)
			}
		}
	}
	slog.Info("Fleet maintenance status",
		"evaluated_at", evaluatedAt.Format(time.RFC3339),
		"aircraft", len(fleet),
		"valid", counts[checks.StatusValid],
		"warning", counts[checks.StatusWarning],
		"expired", counts[checks.StatusExpired]+counts[checks.StatusNone],
		"in_progress", counts[checks.StatusInProgress],
		"unavailable", counts[checks.StatusUnavailable],
		"unknown", counts[checks.StatusUnknown],
	)
	return nil
}

func (LogSink) PublishClock(ctx context.Context, wc clock.WorldClock) error {
	slog.Debug("World clock",
		"reference_time", wc.ReferenceTime.Format(time.RFC3339),
		"acceleration", wc.AccelerationFactor,
		"source", wc.Source,
		"sequence", wc.Sequence,
	)
	return nil
}
