package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Repository is the local snapshot of the fleet and scheduler feeds
type Repository interface {
	FleetRepository() FleetRepository
	WindowRepository() WindowRepository
	Close() error
}

// DB implements the Repository interface using SQLite
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// NewWithDB wraps an already opened connection without touching the schema
func NewWithDB(db *sql.DB) *DB {
	return &DB{db: db}
}

// optimizeSQLite applies pragmas suited to a single writer with concurrent readers
func optimizeSQLite(db *sql.DB) error {
	// WAL lets the status publisher read while a refresh is writing
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA temp_store=MEMORY"); err != nil {
		return fmt.Errorf("failed to set temp_store: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) FleetRepository() FleetRepository {
	return NewFleetRepository(d.db)
}

func (d *DB) WindowRepository() WindowRepository {
	return NewWindowRepository(d.db)
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	fleetSchema := `CREATE TABLE IF NOT EXISTS aircraft_maintenance (
		id TEXT PRIMARY KEY,
		registration TEXT,
		last_daily_check_date TEXT,
		last_weekly_check_date TEXT,
		last_a_check_date TEXT,
		last_a_check_hours REAL,
		last_b_check_date TEXT,
		last_c_check_date TEXT,
		last_d_check_date TEXT,
		total_flight_hours REAL NOT NULL DEFAULT 0,
		daily_interval_days REAL,
		weekly_interval_days REAL,
		a_check_interval_hours REAL,
		a_check_interval_days REAL,
		b_check_interval_days REAL,
		c_check_interval_days REAL,
		d_check_interval_days REAL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	windowSchema := `CREATE TABLE IF NOT EXISTS maintenance_windows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		window_id TEXT,
		aircraft_id TEXT NOT NULL,
		check_type TEXT NOT NULL,
		scheduled_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		duration INTEGER NOT NULL,
		is_ongoing INTEGER NOT NULL DEFAULT 0
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_maintenance_windows_aircraft ON maintenance_windows(aircraft_id)`,
		`CREATE INDEX IF NOT EXISTS idx_maintenance_windows_date ON maintenance_windows(scheduled_date)`,
	}

	if _, err := d.db.Exec(fleetSchema); err != nil {
		return fmt.Errorf("failed to create aircraft_maintenance table: %w", err)
	}

	if _, err := d.db.Exec(windowSchema); err != nil {
		return fmt.Errorf("failed to create maintenance_windows table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
