package database

import (
	"database/sql"
	"fmt"

	"airline_sim/internal/models"
)

type WindowRepository interface {
	ReplaceAll(windows []models.WindowRecord) error
	List() ([]models.WindowRecord, error)
}

type windowRepository struct {
	db *sql.DB
}

func NewWindowRepository(db *sql.DB) WindowRepository {
	return &windowRepository{db: db}
}

// ReplaceAll swaps the stored window snapshot in a single transaction.
// Display copies are stored as received; the resolver drops them.
func (r *windowRepository) ReplaceAll(windows []models.WindowRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM maintenance_windows`); err != nil {
		return fmt.Errorf("failed to clear window snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO maintenance_windows (
		window_id, aircraft_id, check_type, scheduled_date, start_time, duration, is_ongoing
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, w := range windows {
		if _, err := stmt.Exec(
			w.ID,
			w.AircraftID,
			w.CheckType,
			w.ScheduledDate,
			w.StartTime,
			w.Duration,
			w.IsOngoing,
		); err != nil {
			return fmt.Errorf("failed to insert window: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *windowRepository) List() ([]models.WindowRecord, error) {
	rows, err := r.db.Query(`SELECT window_id, aircraft_id, check_type, scheduled_date, start_time, duration, is_ongoing
		FROM maintenance_windows ORDER BY scheduled_date, start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query windows: %w", err)
	}
	defer rows.Close()

	var windows []models.WindowRecord
	for rows.Next() {
		var (
			w  models.WindowRecord
			id sql.NullString
		)
		if err := rows.Scan(&id, &w.AircraftID, &w.CheckType, &w.ScheduledDate, &w.StartTime, &w.Duration, &w.IsOngoing); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		w.ID = id.String
		windows = append(windows, w)
	}
	return windows, rows.Err()
}
