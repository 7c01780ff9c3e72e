// Package geo provides great-circle distance calculations for GPS points.
package geo

import "math"

// EarthRadiusM is the mean Earth radius in meters used for haversine.
const EarthRadiusM = 6371.0 * 1000

// Distance returns the haversine great-circle distance in meters between
// two geodetic points given as (longitude, latitude) pairs in degrees.
//
// A nil result marks a distance that cannot be computed: any nil or NaN
// input yields nil rather than an error, so missing coordinates propagate
// through derived fields instead of aborting a batch.
func Distance(lon1, lat1, lon2, lat2 *float64) *float64 {
	if anyMissing(lon1, lat1, lon2, lat2) {
		return nil
	}

	rlon1 := radians(*lon1)
	rlat1 := radians(*lat1)
	rlon2 := radians(*lon2)
	rlat2 := radians(*lat2)

	dlon := rlon2 - rlon1
	dlat := rlat2 - rlat1

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Asin(math.Sqrt(a))

	d := c * EarthRadiusM
	return &d
}

func anyMissing(vals ...*float64) bool {
	for _, v := range vals {
		if v == nil || math.IsNaN(*v) {
			return true
		}
	}
	return false
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
