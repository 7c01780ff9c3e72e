package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedKMH float64
		units    string
		expected float64
	}{
		{"36 km/h to mps", 36.0, MPS, 10.0},
		{"100 km/h to mph", 100.0, MPH, 62.1371},
		{"100 km/h to kmph", 100.0, KMPH, 100.0},
		{"100 km/h to kph", 100.0, KPH, 100.0},
		{"unknown units default to km/h", 100.0, "unknown", 100.0},
		{"0 km/h to mph", 0.0, MPH, 0.0},
		{"anomaly threshold 150 km/h to mph", 150.0, MPH, 93.2057},
		{"city speed 50 km/h to mps", 50.0, MPS, 13.8889},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedKMH, tt.units)
			if math.Abs(result-tt.expected) > 0.01 { // Allow small floating point differences
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedKMH, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "MPH", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}
