// Package trace turns raw per-vehicle GPS records into anomaly-filtered,
// time-ordered trajectories suitable as clustering input.
//
// Missing values are modelled as nil pointers rather than NaN sentinels so
// that "unknown" stays distinguishable from "computed zero" all the way
// through the pipeline.
package trace

import "time"

// Point is one raw GPS record. Timestamp and coordinates may be nil when
// the source row was malformed; upstream ingestion normalizes bad values
// to nil instead of rejecting rows.
type Point struct {
	VehicleID int64
	Time      *time.Time
	Lat       *float64
	Lon       *float64
}

// DerivedPoint is a Point augmented with motion features relative to its
// immediate predecessor within the same vehicle's time-ordered trace.
// All three fields are nil for the first point of a trace.
type DerivedPoint struct {
	Point
	TimeDiffS *float64
	DistJumpM *float64
	SpeedKMH  *float64
}

// Coordinate is a single (latitude, longitude) pair of a trajectory.
// Either field may be nil when the retained point had missing coordinates.
type Coordinate struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Trajectory is the ordered coordinate sequence for one vehicle after all
// filtering, paired positionally with a vehicle ID list by the builder.
type Trajectory []Coordinate

// Config holds the tunable parameters of the cleaning pipeline.
type Config struct {
	// MaxSpeedKMH is the anomaly threshold: points whose derived speed
	// strictly exceeds it are discarded.
	MaxSpeedKMH float64

	// MinTrackPoints is the minimum number of points a vehicle must keep
	// after filtering to emit a trajectory. A single point cannot form a
	// segment.
	MinTrackPoints int
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		MaxSpeedKMH:    150,
		MinTrackPoints: 2,
	}
}

// Stats summarizes what a pipeline run did to its input. It replaces
// in-band progress reporting: callers decide whether and how to surface it.
type Stats struct {
	RawPoints       int           `json:"raw_points"`
	RemovedBySpeed  int           `json:"removed_by_speed"`
	ProcessedPoints int           `json:"processed_points"`
	TrajectoryCount int           `json:"trajectory_count"`
	ProcessingTime  time.Duration `json:"processing_time_ns"`
}

// Result is the full output of a pipeline run. Trajectories[i] and
// VehicleIDs[i] refer to the same vehicle.
type Result struct {
	Trajectories []Trajectory
	VehicleIDs   []int64
	Stats        Stats
}
