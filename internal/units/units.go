// Package units provides shared constants and validation for speed units
package units

// Unit constants
const (
	KMPH = "kmph"
	KPH  = "kph"
	MPS  = "mps"
	MPH  = "mph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{KMPH, KPH, MPS, MPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "kmph, kph, mps, mph"
}

// ConvertSpeed converts a speed from km/h to the target units.
// Derived speeds are stored in km/h throughout the pipeline and database.
func ConvertSpeed(speedKMH float64, targetUnits string) float64 {
	switch targetUnits {
	case KMPH, KPH:
		return speedKMH
	case MPS:
		return speedKMH / 3.6
	case MPH:
		return speedKMH * 0.62137119223733
	default:
		return speedKMH
	}
}
