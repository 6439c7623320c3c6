package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fleet-ops-report/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Database wraps the SQLite event feed
type Database struct {
	conn *sql.DB
}

// EventQuery narrows a feed read. Zero values disable each predicate.
type EventQuery struct {
	VehicleID string
	Start     time.Time
	End       time.Time
	Limit     int
}

// New opens (and if needed creates) the feed at dbPath
func New(dbPath string) (*Database, error) {
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000", dbPath)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &Database{conn: conn}
	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// initialize creates tables and indexes
func (db *Database) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		vehicle_id TEXT NOT NULL,
		distance_km REAL NOT NULL DEFAULT 0,
		fuel_consumed_l REAL NOT NULL DEFAULT 0,
		event_type TEXT NOT NULL,
		cost REAL NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_events_vehicle_id ON events(vehicle_id);
	CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
	CREATE INDEX IF NOT EXISTS idx_events_vehicle_date ON events(vehicle_id, date);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

// InsertEvents inserts records in one transaction. Every record is validated
// first so a bad batch leaves the feed untouched.
func (db *Database) InsertEvents(ctx context.Context, records []models.EventRecord) (int64, error) {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return 0, models.AtRow(err, i+1)
		}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(date, vehicle_id, distance_km, fuel_consumed_l, event_type, cost, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var count int64
	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.Date.Format(models.DateLayout), r.VehicleID, r.DistanceKM, r.FuelConsumedL,
			string(r.EventType), r.Cost, r.Description,
		)
		if err != nil {
			return 0, err
		}
		count++
	}

	return count, tx.Commit()
}

// QueryEvents reads records ordered by date then insertion order. Rows are
// validated the same way as any other ingested record.
func (db *Database) QueryEvents(ctx context.Context, q EventQuery) ([]models.EventRecord, error) {
	var conditions []string
	var args []interface{}

	baseQuery := `
		SELECT date, vehicle_id, distance_km, fuel_consumed_l, event_type, cost, description
		FROM events
	`

	if q.VehicleID != "" {
		conditions = append(conditions, "vehicle_id = ?")
		args = append(args, q.VehicleID)
	}
	if !q.Start.IsZero() {
		conditions = append(conditions, "date >= ?")
		args = append(args, q.Start.Format(models.DateLayout))
	}
	if !q.End.IsZero() {
		conditions = append(conditions, "date <= ?")
		args = append(args, q.End.Format(models.DateLayout))
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	baseQuery += " ORDER BY date ASC, id ASC"

	if q.Limit > 0 {
		baseQuery += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.EventRecord{}
	row := 0
	for rows.Next() {
		row++
		var date, vehicleID, eventType, description string
		var km, fuel, cost float64

		if err := rows.Scan(&date, &vehicleID, &km, &fuel, &eventType, &cost, &description); err != nil {
			return nil, err
		}

		w := models.RecordWire{
			Date:          &date,
			VehicleID:     &vehicleID,
			DistanceKM:    &km,
			FuelConsumedL: &fuel,
			EventType:     &eventType,
			Cost:          &cost,
			Description:   description,
		}
		rec, err := w.Record()
		if err != nil {
			return nil, models.AtRow(err, row)
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

// ListVehicles returns the distinct vehicle ids in the feed
func (db *Database) ListVehicles(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT vehicle_id FROM events ORDER BY vehicle_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of events in the feed
func (db *Database) Count(ctx context.Context) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&count)
	return count, err
}

// Version identifies the feed contents. Rows are only ever appended or
// deleted, so the row count and highest id change with every write.
func (db *Database) Version(ctx context.Context) (string, error) {
	var count, maxID int64
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(MAX(id), 0) FROM events").Scan(&count, &maxID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%d", count, maxID), nil
}

// Stats returns feed statistics
func (db *Database) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	total, err := db.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats["total_events"] = total

	byType := make(map[string]int64)
	rows, err := db.conn.QueryContext(ctx, "SELECT event_type, COUNT(*) FROM events GROUP BY event_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var et string
		var n int64
		if err := rows.Scan(&et, &n); err != nil {
			return nil, err
		}
		byType[et] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats["events_by_type"] = byType

	var vehicles int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(DISTINCT vehicle_id) FROM events").Scan(&vehicles); err != nil {
		return nil, err
	}
	stats["total_vehicles"] = vehicles

	return stats, nil
}
