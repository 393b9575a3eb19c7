package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"airline_sim/internal/checks"
	"airline_sim/internal/clock"
	"airline_sim/internal/models"
	"airline_sim/internal/tiers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncedEngine(t *testing.T, gameTime time.Time) *clock.Engine {
	t.Helper()
	wall := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := clock.NewEngine("w-1", clock.WithWallClock(func() time.Time { return wall }))
	require.Equal(t, clock.Accepted, e.ApplyPush(clock.Update{Time: gameTime, AccelerationFactor: 60, WorldID: "w-1"}))
	return e
}

func TestStatusPublishTask_PublishesFleet(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	engine := syncedEngine(t, now)

	repo := newMockRepository()
	repo.fleet.records = []models.MaintenanceRecord{
		{AircraftID: "AC-1", LastDailyCheckDate: strPtr("2024-03-05")},
		{AircraftID: ""}, // skipped
		{AircraftID: "AC-2"},
	}
	repo.windows.windows = []models.WindowRecord{
		{AircraftID: "AC-2", CheckType: "D", ScheduledDate: "2024-03-01", StartTime: "23:00:00", Duration: 20160},
		{AircraftID: "AC-2", CheckType: "X", ScheduledDate: "2024-03-01", StartTime: "23:00:00", Duration: 60}, // skipped
	}

	sink := &recordingSink{}
	evaluator := checks.NewEvaluator(tiers.Standard(), engine)
	task := NewStatusPublishTask(repo, engine, evaluator, sink, 24*time.Hour, 30*time.Second)
	assert.Equal(t, StatusPublishTaskName, task.Name())

	require.NoError(t, task.Run(context.Background()))

	require.Len(t, sink.statuses, 2)
	assert.True(t, sink.evaluatedAt.Equal(now))
	assert.Equal(t, checks.StatusValid, sink.statuses["AC-1"][0].Status)
	assert.Equal(t, checks.StatusNone, sink.statuses["AC-1"][1].Status)
	for _, st := range sink.statuses["AC-2"] {
		assert.Equal(t, checks.StatusInProgress, st.Status, "tier %s", st.Tier)
	}
	require.NotNil(t, sink.clock)
	assert.Equal(t, clock.SourcePush, sink.clock.Source)
}

func TestStatusPublishTask_UnavailableBeforeSync(t *testing.T) {
	engine := clock.NewEngine("w-1")
	repo := newMockRepository()
	repo.fleet.records = []models.MaintenanceRecord{{AircraftID: "AC-1", LastDailyCheckDate: strPtr("2024-03-05")}}

	sink := &recordingSink{}
	task := NewStatusPublishTask(repo, engine, checks.NewEvaluator(tiers.CalendarOnly(), engine), sink, 0, time.Minute)
	require.NoError(t, task.Run(context.Background()))

	require.Len(t, sink.statuses["AC-1"], 5)
	for _, st := range sink.statuses["AC-1"] {
		assert.Equal(t, checks.StatusUnavailable, st.Status)
	}
	assert.Nil(t, sink.clock)
}

func TestStatusPublishTask_LoadError(t *testing.T) {
	engine := clock.NewEngine("w-1")
	repo := newMockRepository()
	repo.windows.err = errors.New("no such table")

	task := NewStatusPublishTask(repo, engine, checks.NewEvaluator(tiers.Standard(), engine), &recordingSink{}, 0, time.Minute)
	assert.ErrorContains(t, task.Run(context.Background()), "failed to load window snapshot")
}

func TestStatusPublishTask_SinkError(t *testing.T) {
	engine := syncedEngine(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))
	sink := &recordingSink{err: errors.New("READONLY")}

	task := NewStatusPublishTask(newMockRepository(), engine, checks.NewEvaluator(tiers.Standard(), engine), sink, 0, time.Minute)
	assert.ErrorContains(t, task.Run(context.Background()), "failed to publish statuses")
}

func TestLogSink(t *testing.T) {
	var sink LogSink
	fleet := map[string][]checks.CheckStatus{
		"AC-1": {{Tier: tiers.Daily, Status: checks.StatusExpired}},
	}
	assert.NoError(t, sink.PublishStatuses(context.Background(), time.Now(), fleet))
	assert.NoError(t, sink.PublishClock(context.Background(), clock.WorldClock{}))
}

// Snapshot lets fixedClock satisfy ClockReader; it never holds a world clock
func (f fixedClock) Snapshot() (clock.WorldClock, bool) {
	return clock.WorldClock{}, false
}

func TestStatusPublishTask_EvaluateReadsClockOnce(t *testing.T) {
	repo := newMockRepository()
	repo.fleet.records = []models.MaintenanceRecord{{AircraftID: "AC-1", LastDailyCheckDate: strPtr("2024-03-05")}}
	repo.windows.windows = []models.WindowRecord{
		{AircraftID: "AC-1", CheckType: "C", ScheduledDate: "2024-03-10", StartTime: "08:00:00", Duration: 600},
	}

	// the task's reading fails while the evaluator's own source would succeed
	good := fixedClock{now: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)}
	evaluator := checks.NewEvaluator(tiers.Standard(), good)
	task := NewStatusPublishTask(repo, fixedClock{err: clock.ErrUnavailable}, evaluator, &recordingSink{}, 0, time.Minute)

	report, err := task.Evaluate()
	require.NoError(t, err)
	assert.True(t, report.EvaluatedAt.IsZero())
	for _, st := range report.Statuses["AC-1"] {
		assert.Equal(t, checks.StatusUnavailable, st.Status)
	}
	assert.Len(t, report.Windows.Windows("AC-1"), 1)
}
