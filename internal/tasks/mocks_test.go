package tasks

import (
	"context"
	"time"

	"airline_sim/internal/checks"
	"airline_sim/internal/clock"
	"airline_sim/internal/database"
	"airline_sim/internal/models"
)

// mockRepository is an in-memory database.Repository
type mockRepository struct {
	fleet   *mockFleetRepo
	windows *mockWindowRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{fleet: &mockFleetRepo{}, windows: &mockWindowRepo{}}
}

func (m *mockRepository) FleetRepository() database.FleetRepository   { return m.fleet }
func (m *mockRepository) WindowRepository() database.WindowRepository { return m.windows }
func (m *mockRepository) Close() error                                { return nil }

type mockFleetRepo struct {
	records []models.MaintenanceRecord
	err     error
}

func (m *mockFleetRepo) ReplaceAll(records []models.MaintenanceRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = records
	return nil
}

func (m *mockFleetRepo) List() ([]models.MaintenanceRecord, error) {
	return m.records, m.err
}

func (m *mockFleetRepo) Get(aircraftID string) (models.MaintenanceRecord, bool, error) {
	for _, r := range m.records {
		if r.AircraftID == aircraftID {
			return r, true, nil
		}
	}
	return models.MaintenanceRecord{}, false, m.err
}

type mockWindowRepo struct {
	windows  []models.WindowRecord
	replaced int
	err      error
}

func (m *mockWindowRepo) ReplaceAll(windows []models.WindowRecord) error {
	if m.err != nil {
		return m.err
	}
	m.replaced++
	m.windows = windows
	return nil
}

func (m *mockWindowRepo) List() ([]models.WindowRecord, error) {
	return m.windows, m.err
}

// mockAPI serves canned game server responses
type mockAPI struct {
	info       models.WorldInfo
	infoErr    error
	records    []models.MaintenanceRecord
	windows    []models.WindowRecord
	fleetErr   error
	windowFrom time.Time
	windowTo   time.Time
}

func (m *mockAPI) WorldInfo(ctx context.Context) (models.WorldInfo, error) {
	return m.info, m.infoErr
}

func (m *mockAPI) FleetMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error) {
	return m.records, m.fleetErr
}

func (m *mockAPI) MaintenanceWindows(ctx context.Context, from, to time.Time) ([]models.WindowRecord, error) {
	m.windowFrom, m.windowTo = from, to
	return m.windows, nil
}

// recordingSink keeps the last published round
type recordingSink struct {
	evaluatedAt time.Time
	statuses    map[string][]checks.CheckStatus
	clock       *clock.WorldClock
	err         error
}

func (r *recordingSink) PublishStatuses(ctx context.Context, evaluatedAt time.Time, fleet map[string][]checks.CheckStatus) error {
	r.evaluatedAt = evaluatedAt
	r.statuses = fleet
	return r.err
}

func (r *recordingSink) PublishClock(ctx context.Context, wc clock.WorldClock) error {
	r.clock = &wc
	return nil
}

func strPtr(s string) *string { return &s }
