package database

import (
	"database/sql"
	"fmt"

	"airline_sim/internal/models"
)

type FleetRepository interface {
	ReplaceAll(records []models.MaintenanceRecord) error
	List() ([]models.MaintenanceRecord, error)
	Get(aircraftID string) (models.MaintenanceRecord, bool, error)
}

type fleetRepository struct {
	db *sql.DB
}

func NewFleetRepository(db *sql.DB) FleetRepository {
	return &fleetRepository{db: db}
}

const fleetColumns = `id, registration,
	last_daily_check_date, last_weekly_check_date, last_a_check_date, last_a_check_hours,
	last_b_check_date, last_c_check_date, last_d_check_date, total_flight_hours,
	daily_interval_days, weekly_interval_days, a_check_interval_hours, a_check_interval_days,
	b_check_interval_days, c_check_interval_days, d_check_interval_days`

// ReplaceAll swaps the stored fleet snapshot for records in a single transaction
func (r *fleetRepository) ReplaceAll(records []models.MaintenanceRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM aircraft_maintenance`); err != nil {
		return fmt.Errorf("failed to clear fleet snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO aircraft_maintenance (` + fleetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(
			rec.AircraftID, rec.Registration,
			nullString(rec.LastDailyCheckDate), nullString(rec.LastWeeklyCheckDate),
			nullString(rec.LastACheckDate), nullNumber(rec.LastACheckHours),
			nullString(rec.LastBCheckDate), nullString(rec.LastCCheckDate),
			nullString(rec.LastDCheckDate), rec.TotalFlightHours.Float(),
			nullNumber(rec.DailyIntervalDays), nullNumber(rec.WeeklyIntervalDays),
			nullNumber(rec.ACheckIntervalHours), nullNumber(rec.ACheckIntervalDays),
			nullNumber(rec.BCheckIntervalDays), nullNumber(rec.CCheckIntervalDays),
			nullNumber(rec.DCheckIntervalDays),
		); err != nil {
			return fmt.Errorf("failed to insert maintenance record %s: %w", rec.AircraftID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *fleetRepository) List() ([]models.MaintenanceRecord, error) {
	rows, err := r.db.Query(`SELECT ` + fleetColumns + ` FROM aircraft_maintenance ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fleet snapshot: %w", err)
	}
	defer rows.Close()

	var records []models.MaintenanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *fleetRepository) Get(aircraftID string) (models.MaintenanceRecord, bool, error) {
	row := r.db.QueryRow(`SELECT `+fleetColumns+` FROM aircraft_maintenance WHERE id = ?`, aircraftID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return models.MaintenanceRecord{}, false, nil
	}
	if err != nil {
		return models.MaintenanceRecord{}, false, err
	}
	return rec, true, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (models.MaintenanceRecord, error) {
	var (
		rec                                          models.MaintenanceRecord
		registration                                 sql.NullString
		daily, weekly, aDate, bDate, cDate, dDate    sql.NullString
		aHours, total                                sql.NullFloat64
		dailyIv, weeklyIv, aIvH, aIvD, bIv, cIv, dIv sql.NullFloat64
	)
	if err := s.Scan(
		&rec.AircraftID, &registration,
		&daily, &weekly, &aDate, &aHours,
		&bDate, &cDate, &dDate, &total,
		&dailyIv, &weeklyIv, &aIvH, &aIvD,
		&bIv, &cIv, &dIv,
	); err != nil {
		if err == sql.ErrNoRows {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan maintenance record: %w", err)
	}

	rec.Registration = registration.String
	rec.LastDailyCheckDate = stringPtr(daily)
	rec.LastWeeklyCheckDate = stringPtr(weekly)
	rec.LastACheckDate = stringPtr(aDate)
	rec.LastACheckHours = numberPtr(aHours)
	rec.LastBCheckDate = stringPtr(bDate)
	rec.LastCCheckDate = stringPtr(cDate)
	rec.LastDCheckDate = stringPtr(dDate)
	rec.TotalFlightHours = models.Number(total.Float64)
	rec.DailyIntervalDays = numberPtr(dailyIv)
	rec.WeeklyIntervalDays = numberPtr(weeklyIv)
	rec.ACheckIntervalHours = numberPtr(aIvH)
	rec.ACheckIntervalDays = numberPtr(aIvD)
	rec.BCheckIntervalDays = numberPtr(bIv)
	rec.CCheckIntervalDays = numberPtr(cIv)
	rec.DCheckIntervalDays = numberPtr(dIv)
	return rec, nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullNumber(n *models.Number) interface{} {
	if n == nil {
		return nil
	}
	return n.Float()
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func numberPtr(f sql.NullFloat64) *models.Number {
	if !f.Valid {
		return nil
	}
	n := models.Number(f.Float64)
	return &n
}
