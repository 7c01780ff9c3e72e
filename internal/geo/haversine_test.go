package geo

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
	}{
		{"origin", 0, 0},
		{"mid latitude", 10.0, 20.0},
		{"southern hemisphere", 151.2, -33.8},
		{"date line", 179.9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(ptr(tt.lon), ptr(tt.lat), ptr(tt.lon), ptr(tt.lat))
			if d == nil {
				t.Fatal("expected distance, got nil")
			}
			if *d != 0 {
				t.Errorf("Distance(p, p) = %f, want 0", *d)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	ab := Distance(ptr(116.40), ptr(39.90), ptr(116.45), ptr(39.95))
	ba := Distance(ptr(116.45), ptr(39.95), ptr(116.40), ptr(39.90))
	if ab == nil || ba == nil {
		t.Fatal("expected distances, got nil")
	}
	if math.Abs(*ab-*ba) > 1e-9 {
		t.Errorf("Distance(a,b) = %f, Distance(b,a) = %f", *ab, *ba)
	}
}

func TestDistanceKnownValues(t *testing.T) {
	tests := []struct {
		name                   string
		lon1, lat1, lon2, lat2 float64
		wantM                  float64
		tolM                   float64
	}{
		// One degree of longitude on the equator is R * pi/180.
		{"one degree on equator", 0, 0, 1, 0, 111194.93, 1.0},
		{"one millidegree on equator", 0, 0, 0.001, 0, 111.19, 0.1},
		{"one degree of latitude", 0, 0, 0, 1, 111194.93, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Distance(ptr(tt.lon1), ptr(tt.lat1), ptr(tt.lon2), ptr(tt.lat2))
			if d == nil {
				t.Fatal("expected distance, got nil")
			}
			if math.Abs(*d-tt.wantM) > tt.tolM {
				t.Errorf("Distance = %f m, want %f m (±%f)", *d, tt.wantM, tt.tolM)
			}
		})
	}
}

func TestDistanceMissingInputs(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name                   string
		lon1, lat1, lon2, lat2 *float64
	}{
		{"nil lon1", nil, ptr(1), ptr(2), ptr(3)},
		{"nil lat1", ptr(1), nil, ptr(2), ptr(3)},
		{"nil lon2", ptr(1), ptr(2), nil, ptr(3)},
		{"nil lat2", ptr(1), ptr(2), ptr(3), nil},
		{"all nil", nil, nil, nil, nil},
		{"NaN treated as missing", &nan, ptr(2), ptr(3), ptr(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := Distance(tt.lon1, tt.lat1, tt.lon2, tt.lat2); d != nil {
				t.Errorf("Distance = %f, want nil", *d)
			}
		})
	}
}
