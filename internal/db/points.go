package db

import (
	"database/sql"
	"fmt"

	"github.com/urbanflow-data/trajectory.report/internal/trace"
)

// InsertPoints stores a batch of raw normalized points tagged with their
// source ("csv", "xlsx", "nmea"). nil fields are stored as NULL.
func (db *DB) InsertPoints(points []trace.Point, source string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO points (vehicle_id, recorded_at, latitude, longitude, source)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		var recordedAt interface{}
		if p.Time != nil {
			recordedAt = p.Time.UTC()
		}
		if _, err := stmt.Exec(p.VehicleID, recordedAt, nullable(p.Lat), nullable(p.Lon), source); err != nil {
			return fmt.Errorf("failed to insert point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit points: %w", err)
	}
	return nil
}

// Points loads every stored raw point in insertion order.
func (db *DB) Points() ([]trace.Point, error) {
	rows, err := db.Query(`SELECT vehicle_id, recorded_at, latitude, longitude FROM points ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	var points []trace.Point
	for rows.Next() {
		var (
			vehicleID  int64
			recordedAt sql.NullTime
			lat, lon   sql.NullFloat64
		)
		if err := rows.Scan(&vehicleID, &recordedAt, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}

		p := trace.Point{VehicleID: vehicleID}
		if recordedAt.Valid {
			t := recordedAt.Time
			p.Time = &t
		}
		if lat.Valid {
			v := lat.Float64
			p.Lat = &v
		}
		if lon.Valid {
			v := lon.Float64
			p.Lon = &v
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return points, nil
}

// PointCount returns the number of stored raw points.
func (db *DB) PointCount() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM points`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
