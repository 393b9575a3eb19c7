package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"airline_sim/internal/checks"
	"airline_sim/internal/database"
	"airline_sim/internal/models"
)

const FleetRefreshTaskName = "fleet_refresh"

// FleetFetcher is the fleet and scheduler side of the game server
type FleetFetcher interface {
	FleetMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error)
	MaintenanceWindows(ctx context.Context, from, to time.Time) ([]models.WindowRecord, error)
}

// FleetRefreshTask snapshots maintenance records and scheduled windows into the local store
type FleetRefreshTask struct {
	api        FleetFetcher
	fleet      database.FleetRepository
	windows    database.WindowRepository
	clock      checks.TimeSource
	interval   time.Duration
	windowDays int
}

func NewFleetRefreshTask(api FleetFetcher, repo database.Repository, clock checks.TimeSource, interval time.Duration, windowDays int) *FleetRefreshTask {
	return &FleetRefreshTask{
		api:        api,
		fleet:      repo.FleetRepository(),
		windows:    repo.WindowRepository(),
		clock:      clock,
		interval:   interval,
		windowDays: windowDays,
	}
}

func (t *FleetRefreshTask) Name() string {
	return FleetRefreshTaskName
}

func (t *FleetRefreshTask) Interval() time.Duration {
	return t.interval
}

// Run refreshes both snapshots. Windows are queried around simulated now, so
// they are skipped until the clock is established.
func (t *FleetRefreshTask) Run(ctx context.Context) error {
	records, err := t.api.FleetMaintenance(ctx)
	if err != nil {
		return err
	}
	if err := t.fleet.ReplaceAll(records); err != nil {
		return fmt.Errorf("failed to store fleet snapshot: %w", err)
	}

	now, err := t.clock.Now()
	if err != nil {
		slog.Debug("Skipping window refresh", "reason", err)
		slog.Info("Fleet snapshot refreshed", "aircraft", len(records))
		return nil
	}

	// long checks started before today are still returned by their start date
	from := now.AddDate(0, 0, -t.windowDays)
	to := now.AddDate(0, 0, t.windowDays)
	windows, err := t.api.MaintenanceWindows(ctx, from, to)
	if err != nil {
		return err
	}
	if err := t.windows.ReplaceAll(windows); err != nil {
		return fmt.Errorf("failed to store window snapshot: %w", err)
	}

	slog.Info("Fleet snapshot refreshed", "aircraft", len(records), "windows", len(windows))
	return nil
}
