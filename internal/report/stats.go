// Package report derives presentation-ready statistics and charts from
// pipeline results. Computation stays in trace; everything here is a view.
package report

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/urbanflow-data/trajectory.report/internal/trace"
)

// Summary is the headline view of a pipeline run.
type Summary struct {
	RawPoints         int     `json:"raw_points"`
	ValidTrajectories int     `json:"valid_trajectories"`
	ProcessedPoints   int     `json:"processed_points"`
	RemovedBySpeed    int     `json:"removed_by_speed"`
	MinPointsPerTraj  int     `json:"min_points_per_trajectory"`
	AvgPointsPerTraj  float64 `json:"avg_points_per_trajectory"`
	MaxPointsPerTraj  int     `json:"max_points_per_trajectory"`

	TimeRangeStart *time.Time `json:"time_range_start,omitempty"`
	TimeRangeEnd   *time.Time `json:"time_range_end,omitempty"`
}

// Summarize condenses a pipeline result into a Summary. The per-trajectory
// size aggregates are zero when no trajectory survived.
func Summarize(res trace.Result) Summary {
	s := Summary{
		RawPoints:         res.Stats.RawPoints,
		ValidTrajectories: res.Stats.TrajectoryCount,
		ProcessedPoints:   res.Stats.ProcessedPoints,
		RemovedBySpeed:    res.Stats.RemovedBySpeed,
	}
	if len(res.Trajectories) == 0 {
		return s
	}

	sizes := make([]float64, len(res.Trajectories))
	s.MinPointsPerTraj = len(res.Trajectories[0])
	for i, traj := range res.Trajectories {
		sizes[i] = float64(len(traj))
		if len(traj) < s.MinPointsPerTraj {
			s.MinPointsPerTraj = len(traj)
		}
		if len(traj) > s.MaxPointsPerTraj {
			s.MaxPointsPerTraj = len(traj)
		}
	}
	s.AvgPointsPerTraj = stat.Mean(sizes, nil)

	return s
}

// WithTimeRange fills in the observed timestamp range of the points that
// fed the run. Points without timestamps are ignored.
func (s Summary) WithTimeRange(points []trace.Point) Summary {
	for _, p := range points {
		if p.Time == nil {
			continue
		}
		if s.TimeRangeStart == nil || p.Time.Before(*s.TimeRangeStart) {
			t := *p.Time
			s.TimeRangeStart = &t
		}
		if s.TimeRangeEnd == nil || p.Time.After(*s.TimeRangeEnd) {
			t := *p.Time
			s.TimeRangeEnd = &t
		}
	}
	return s
}

// CollectSpeeds extracts the known derived speeds from a batch of derived
// points, for distribution charts.
func CollectSpeeds(points []trace.DerivedPoint) []float64 {
	var speeds []float64
	for _, p := range points {
		if p.SpeedKMH != nil {
			speeds = append(speeds, *p.SpeedKMH)
		}
	}
	return speeds
}
