package trace

import (
	"github.com/urbanflow-data/trajectory.report/internal/timeutil"
)

// Pipeline chains feature derivation, anomaly filtering and trajectory
// building. Each stage is a pure transformation of its input into a fresh
// structure, so stages are individually testable and a run can be repeated
// or discarded without cleanup.
type Pipeline struct {
	Clock timeutil.Clock
}

// NewPipeline returns a pipeline using the real clock for run timing.
func NewPipeline() *Pipeline {
	return &Pipeline{Clock: timeutil.RealClock()}
}

// Run executes the full cleaning pipeline over raw points.
func (pl *Pipeline) Run(points []Point, cfg Config) Result {
	start := pl.Clock.Now()

	derived := DeriveFeatures(points)
	kept, removed := FilterBySpeed(derived, cfg.MaxSpeedKMH)
	trajectories, ids := BuildTrajectories(kept, cfg.MinTrackPoints)

	processed := 0
	for _, t := range trajectories {
		processed += len(t)
	}

	return Result{
		Trajectories: trajectories,
		VehicleIDs:   ids,
		Stats: Stats{
			RawPoints:       len(points),
			RemovedBySpeed:  removed,
			ProcessedPoints: processed,
			TrajectoryCount: len(trajectories),
			ProcessingTime:  pl.Clock.Since(start),
		},
	}
}
