package database

import (
	"errors"
	"path/filepath"
	"testing"

	"airline_sim/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	db, err := New(filepath.Join(t.TempDir(), "airline_sim.db"))
	require.NoError(t, err)
	require.NotNil(t, db)

	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func strPtr(s string) *string { return &s }

func numPtr(f float64) *models.Number {
	n := models.Number(f)
	return &n
}

func TestNew(t *testing.T) {
	db := setupTestDB(t)
	assert.NotNil(t, db)
}

func TestNew_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airline_sim.db")

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(path)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestFleetRepository_ReplaceAllAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := db.FleetRepository()

	records := []models.MaintenanceRecord{
		{
			AircraftID:          "AC-2",
			Registration:        "G-ABCD",
			LastDailyCheckDate:  strPtr("2024-03-01"),
			LastACheckHours:     numPtr(812.5),
			TotalFlightHours:    1500.25,
			ACheckIntervalHours: numPtr(900),
		},
		{
			AircraftID:       "AC-1",
			TotalFlightHours: 0,
		},
	}
	require.NoError(t, repo.ReplaceAll(records))

	got, err := repo.List()
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "AC-1", got[0].AircraftID)
	assert.Nil(t, got[0].LastDailyCheckDate)
	assert.Nil(t, got[0].LastACheckHours)

	assert.Equal(t, "AC-2", got[1].AircraftID)
	assert.Equal(t, "G-ABCD", got[1].Registration)
	require.NotNil(t, got[1].LastDailyCheckDate)
	assert.Equal(t, "2024-03-01", *got[1].LastDailyCheckDate)
	require.NotNil(t, got[1].LastACheckHours)
	assert.Equal(t, 812.5, got[1].LastACheckHours.Float())
	assert.Equal(t, 1500.25, got[1].TotalFlightHours.Float())
	require.NotNil(t, got[1].ACheckIntervalHours)
	assert.Equal(t, 900.0, got[1].ACheckIntervalHours.Float())
	assert.Nil(t, got[1].DCheckIntervalDays)
}

func TestFleetRepository_ReplaceAllDropsPreviousSnapshot(t *testing.T) {
	db := setupTestDB(t)
	repo := db.FleetRepository()

	require.NoError(t, repo.ReplaceAll([]models.MaintenanceRecord{{AircraftID: "AC-1"}, {AircraftID: "AC-2"}}))
	require.NoError(t, repo.ReplaceAll([]models.MaintenanceRecord{{AircraftID: "AC-3"}}))

	got, err := repo.List()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AC-3", got[0].AircraftID)
}

func TestFleetRepository_Get(t *testing.T) {
	db := setupTestDB(t)
	repo := db.FleetRepository()
	require.NoError(t, repo.ReplaceAll([]models.MaintenanceRecord{
		{AircraftID: "AC-1", LastCCheckDate: strPtr("2023-05-10")},
	}))

	rec, ok, err := repo.Get("AC-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, rec.LastCCheckDate)
	assert.Equal(t, "2023-05-10", *rec.LastCCheckDate)

	_, ok, err = repo.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWindowRepository_ReplaceAllAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := db.WindowRepository()

	windows := []models.WindowRecord{
		{ID: "w-2", AircraftID: "AC-1", CheckType: "C", ScheduledDate: "2024-03-02", StartTime: "08:00:00", Duration: 600},
		{ID: "w-1", AircraftID: "AC-1", CheckType: "D", ScheduledDate: "2024-03-01", StartTime: "23:00:00", Duration: 20160},
		{AircraftID: "AC-1", CheckType: "D", ScheduledDate: "2024-03-02", StartTime: "00:00:00", Duration: 20160, IsOngoing: true},
	}
	require.NoError(t, repo.ReplaceAll(windows))

	got, err := repo.List()
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "w-1", got[0].ID)
	assert.Equal(t, 20160, got[0].Duration)
	assert.False(t, got[0].IsOngoing)
	assert.Equal(t, "", got[1].ID)
	assert.True(t, got[1].IsOngoing)
	assert.Equal(t, "w-2", got[2].ID)

	require.NoError(t, repo.ReplaceAll(nil))
	got, err = repo.List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFleetRepository_ReplaceAllBeginError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	err = NewWithDB(sqlDB).FleetRepository().ReplaceAll([]models.MaintenanceRecord{{AircraftID: "AC-1"}})
	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFleetRepository_ReplaceAllRollsBackOnInsertError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM aircraft_maintenance").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectPrepare("INSERT OR REPLACE INTO aircraft_maintenance").
		ExpectExec().
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = NewWithDB(sqlDB).FleetRepository().ReplaceAll([]models.MaintenanceRecord{{AircraftID: "AC-1"}})
	assert.ErrorContains(t, err, "failed to insert maintenance record AC-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWindowRepository_ListQueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT window_id").WillReturnError(errors.New("no such table"))

	_, err = NewWithDB(sqlDB).WindowRepository().List()
	assert.ErrorContains(t, err, "failed to query windows")
	assert.NoError(t, mock.ExpectationsWereMet())
}
