package trace

import "sort"

// BuildTrajectories groups filtered points by vehicle, drops vehicles with
// fewer than minPoints points, re-sorts each survivor's points by time and
// extracts the ordered coordinate sequences.
//
// The returned slices are parallel: trajectories[i] belongs to ids[i].
// Vehicles appear in first-appearance order of their IDs in the input,
// which for deriver output means ascending vehicle ID. Vehicles are never
// re-sorted by ID value afterwards.
func BuildTrajectories(points []DerivedPoint, minPoints int) ([]Trajectory, []int64) {
	if minPoints < 2 {
		minPoints = 2
	}

	grouped := make(map[int64][]DerivedPoint)
	var order []int64
	for _, p := range points {
		if _, seen := grouped[p.VehicleID]; !seen {
			order = append(order, p.VehicleID)
		}
		grouped[p.VehicleID] = append(grouped[p.VehicleID], p)
	}

	trajectories := make([]Trajectory, 0, len(order))
	ids := make([]int64, 0, len(order))
	for _, id := range order {
		pts := grouped[id]
		if len(pts) < minPoints {
			// Degenerate trace: silently excluded, not an error.
			continue
		}

		// Filtering leaves gaps but must not disturb ordering; re-sort
		// to keep the invariant explicit rather than inherited.
		sort.SliceStable(pts, func(i, j int) bool {
			a, b := pts[i].Time, pts[j].Time
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})

		traj := make(Trajectory, len(pts))
		for i, p := range pts {
			traj[i] = Coordinate{Lat: p.Lat, Lon: p.Lon}
		}
		trajectories = append(trajectories, traj)
		ids = append(ids, id)
	}
	return trajectories, ids
}
