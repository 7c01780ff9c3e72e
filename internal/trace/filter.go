package trace

// FilterBySpeed drops every point whose derived speed strictly exceeds
// maxSpeedKMH and reports how many were removed. A nil speed is never
// anomalous: with no predecessor or missing inputs there is not enough
// information to judge the point, so it is retained.
//
// Speed is the only criterion. A large distance jump across a long time
// gap yields a low speed and passes; upstream data has relied on this.
func FilterBySpeed(points []DerivedPoint, maxSpeedKMH float64) ([]DerivedPoint, int) {
	kept := make([]DerivedPoint, 0, len(points))
	for _, p := range points {
		if p.SpeedKMH != nil && *p.SpeedKMH > maxSpeedKMH {
			continue
		}
		kept = append(kept, p)
	}
	return kept, len(points) - len(kept)
}
