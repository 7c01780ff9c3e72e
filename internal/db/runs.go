package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/urbanflow-data/trajectory.report/internal/trace"
)

// ErrNoRuns is returned when no pipeline run has been recorded yet.
var ErrNoRuns = errors.New("no runs recorded")

// Run is one recorded pipeline execution.
type Run struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	MaxSpeedKMH    float64       `json:"max_speed_kmh"`
	MinTrackPoints int           `json:"min_track_points"`
	Stats          trace.Stats   `json:"stats"`
}

// SaveRun records a pipeline result and its trajectories, returning the
// generated run ID. Trajectory rows keep both the vehicle's position in
// the result (the parallel-list order) and each coordinate's sequence.
func (db *DB) SaveRun(res trace.Result, cfg trace.Config, startedAt, finishedAt time.Time) (string, error) {
	runID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (
			run_id, started_at, finished_at, max_speed_kmh, min_track_points,
			raw_points, removed_by_speed, processed_points, trajectory_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, startedAt.UTC(), finishedAt.UTC(), cfg.MaxSpeedKMH, cfg.MinTrackPoints,
		res.Stats.RawPoints, res.Stats.RemovedBySpeed, res.Stats.ProcessedPoints, res.Stats.TrajectoryCount,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO trajectory_points (run_id, position, vehicle_id, seq, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare trajectory insert: %w", err)
	}
	defer stmt.Close()

	for pos, traj := range res.Trajectories {
		vehicleID := res.VehicleIDs[pos]
		for seq, c := range traj {
			if _, err := stmt.Exec(runID, pos, vehicleID, seq, nullable(c.Lat), nullable(c.Lon)); err != nil {
				return "", fmt.Errorf("failed to insert trajectory point: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// Runs lists recorded runs, most recent first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(`SELECT run_id, started_at, finished_at, max_speed_kmh, min_track_points,
			raw_points, removed_by_speed, processed_points, trajectory_count
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.RunID, &r.StartedAt, &r.FinishedAt, &r.MaxSpeedKMH, &r.MinTrackPoints,
			&r.Stats.RawPoints, &r.Stats.RemovedBySpeed, &r.Stats.ProcessedPoints, &r.Stats.TrajectoryCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Stats.ProcessingTime = r.FinishedAt.Sub(r.StartedAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// LatestRun returns the most recently started run, or ErrNoRuns.
func (db *DB) LatestRun() (Run, error) {
	runs, err := db.Runs()
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNoRuns
	}
	return runs[0], nil
}

// RunTrajectories loads the trajectory list and the parallel vehicle ID
// list for a run, in the order the pipeline emitted them.
func (db *DB) RunTrajectories(runID string) ([]trace.Trajectory, []int64, error) {
	rows, err := db.Query(`SELECT position, vehicle_id, latitude, longitude
		FROM trajectory_points WHERE run_id = ? ORDER BY position, seq`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query trajectories: %w", err)
	}
	defer rows.Close()

	var (
		trajectories []trace.Trajectory
		ids          []int64
		lastPos      = -1
	)
	for rows.Next() {
		var (
			pos       int
			vehicleID int64
			lat, lon  sql.NullFloat64
		)
		if err := rows.Scan(&pos, &vehicleID, &lat, &lon); err != nil {
			return nil, nil, fmt.Errorf("failed to scan trajectory point: %w", err)
		}

		if pos != lastPos {
			trajectories = append(trajectories, trace.Trajectory{})
			ids = append(ids, vehicleID)
			lastPos = pos
		}

		var c trace.Coordinate
		if lat.Valid {
			v := lat.Float64
			c.Lat = &v
		}
		if lon.Valid {
			v := lon.Float64
			c.Lon = &v
		}
		trajectories[len(trajectories)-1] = append(trajectories[len(trajectories)-1], c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return trajectories, ids, nil
}
