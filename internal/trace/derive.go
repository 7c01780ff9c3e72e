package trace

import (
	"sort"
	"time"

	"github.com/urbanflow-data/trajectory.report/internal/geo"
)

// minTimeDiffS guards the speed division: gaps at or below this many
// seconds leave the speed unknown rather than exploding toward infinity.
const minTimeDiffS = 1e-6

// DeriveFeatures sorts points by vehicle and time, then computes the time
// delta, distance jump and speed of each point relative to the previous
// point of the same vehicle. The first point of every vehicle has all
// derived fields nil, as does any field whose inputs are missing.
//
// No points are dropped; the output keeps the sorted order. Running the
// deriver over its own output produces identical derived values.
func DeriveFeatures(points []Point) []DerivedPoint {
	sorted := make([]Point, len(points))
	copy(sorted, points)

	// Stable so that equal (vehicle, time) keys keep their input order,
	// and nil timestamps sort after every real one within a vehicle.
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.VehicleID != b.VehicleID {
			return a.VehicleID < b.VehicleID
		}
		switch {
		case a.Time == nil:
			return false
		case b.Time == nil:
			return true
		default:
			return a.Time.Before(*b.Time)
		}
	})

	derived := make([]DerivedPoint, 0, len(sorted))
	var prev *Point
	for i := range sorted {
		p := sorted[i]
		if prev != nil && prev.VehicleID != p.VehicleID {
			// Vehicle boundary: features never cross traces.
			prev = nil
		}

		dp := DerivedPoint{Point: p}
		if prev != nil {
			dp.TimeDiffS = timeDiffSeconds(prev.Time, p.Time)
			dp.DistJumpM = geo.Distance(prev.Lon, prev.Lat, p.Lon, p.Lat)
			dp.SpeedKMH = speedKMH(dp.DistJumpM, dp.TimeDiffS)
		}
		derived = append(derived, dp)
		prev = &sorted[i]
	}
	return derived
}

func timeDiffSeconds(prev, cur *time.Time) *float64 {
	if prev == nil || cur == nil {
		return nil
	}
	s := cur.Sub(*prev).Seconds()
	return &s
}

// speedKMH converts a distance jump over a time delta into km/h. The speed
// is unknown when the distance is unknown or the gap is too small to
// divide by.
func speedKMH(distM, diffS *float64) *float64 {
	if distM == nil || diffS == nil || *diffS <= minTimeDiffS {
		return nil
	}
	v := (*distM / *diffS) * 3.6
	return &v
}
