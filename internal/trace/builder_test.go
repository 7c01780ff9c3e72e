package trace

import (
	"testing"

	"github.com/urbanflow-data/trajectory.report/internal/testutil"
)

func tracked(id int64, seconds int, lat, lon float64) DerivedPoint {
	return DerivedPoint{
		Point: Point{
			VehicleID: id,
			Time:      testutil.At(seconds),
			Lat:       testutil.Float(lat),
			Lon:       testutil.Float(lon),
		},
	}
}

func TestBuildTrajectoriesMinimumLength(t *testing.T) {
	points := []DerivedPoint{
		tracked(1, 0, 10, 20),
		tracked(1, 10, 10.001, 20),
		tracked(2, 0, 30, 40), // single point, excluded
		tracked(3, 0, 50, 60),
		tracked(3, 10, 50.001, 60),
		tracked(3, 20, 50.002, 60),
	}

	trajectories, ids := BuildTrajectories(points, 2)
	if len(trajectories) != len(ids) {
		t.Fatalf("len(trajectories)=%d, len(ids)=%d, want equal", len(trajectories), len(ids))
	}
	if len(ids) != 2 {
		t.Fatalf("got %d trajectories, want 2 (vehicle 2 is degenerate)", len(ids))
	}
	for i, traj := range trajectories {
		if len(traj) < 2 {
			t.Errorf("trajectory %d has %d points, want >= 2", i, len(traj))
		}
	}
	if ids[0] != 1 || ids[1] != 3 {
		t.Errorf("ids = %v, want [1 3]", ids)
	}
	if len(trajectories[1]) != 3 {
		t.Errorf("vehicle 3 trajectory has %d points, want 3", len(trajectories[1]))
	}
}

func TestBuildTrajectoriesReordersByTime(t *testing.T) {
	// Out-of-time-order survivors must be re-sorted per vehicle.
	points := []DerivedPoint{
		tracked(5, 20, 0, 0.002),
		tracked(5, 0, 0, 0),
		tracked(5, 10, 0, 0.001),
	}

	trajectories, _ := BuildTrajectories(points, 2)
	traj := trajectories[0]
	want := []float64{0, 0.001, 0.002}
	for i, lon := range want {
		if *traj[i].Lon != lon {
			t.Errorf("traj[%d].Lon = %f, want %f", i, *traj[i].Lon, lon)
		}
	}
}

func TestBuildTrajectoriesKeepsFirstAppearanceOrder(t *testing.T) {
	// Vehicle order follows first appearance in the input, never a re-sort
	// by ID value.
	points := []DerivedPoint{
		tracked(9, 0, 1, 1),
		tracked(9, 10, 1, 1.001),
		tracked(2, 0, 2, 2),
		tracked(2, 10, 2, 2.001),
	}

	_, ids := BuildTrajectories(points, 2)
	if len(ids) != 2 || ids[0] != 9 || ids[1] != 2 {
		t.Errorf("ids = %v, want [9 2]", ids)
	}
}

func TestBuildTrajectoriesRetainsMissingCoordinates(t *testing.T) {
	// A retained point with nil coordinates still occupies its slot in the
	// output sequence.
	points := []DerivedPoint{
		tracked(1, 0, 10, 20),
		{Point: Point{VehicleID: 1, Time: testutil.At(10)}},
	}

	trajectories, ids := BuildTrajectories(points, 2)
	if len(ids) != 1 {
		t.Fatalf("got %d trajectories, want 1", len(ids))
	}
	traj := trajectories[0]
	if len(traj) != 2 {
		t.Fatalf("trajectory has %d points, want 2", len(traj))
	}
	if traj[1].Lat != nil || traj[1].Lon != nil {
		t.Errorf("second coordinate = %+v, want nil lat/lon", traj[1])
	}
}

func TestBuildTrajectoriesEmptyInput(t *testing.T) {
	trajectories, ids := BuildTrajectories(nil, 2)
	if len(trajectories) != 0 || len(ids) != 0 {
		t.Errorf("got %d trajectories and %d ids, want none", len(trajectories), len(ids))
	}
}
