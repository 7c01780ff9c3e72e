package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urbanflow-data/trajectory.report/internal/trace"
	"github.com/urbanflow-data/trajectory.report/internal/units"
)

// TuningConfig represents the tuning parameters of the cleaning pipeline
// and its prefilters. All fields are optional: a partial JSON file only
// overrides what it names, and the Get* methods supply defaults for the
// rest.
type TuningConfig struct {
	// Anomaly filter params
	MaxSpeedKMH    *float64 `json:"max_speed_kmh,omitempty"`
	MinTrackPoints *int     `json:"min_track_points,omitempty"`

	// Hour-of-day prefilter, inclusive range
	HourStart *int `json:"hour_start,omitempty"`
	HourEnd   *int `json:"hour_end,omitempty"`

	// Output params
	Units *string `json:"units,omitempty"` // speed units for API output
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MaxSpeedKMH != nil && *c.MaxSpeedKMH <= 0 {
		return fmt.Errorf("max_speed_kmh must be positive, got %f", *c.MaxSpeedKMH)
	}

	if c.MinTrackPoints != nil && *c.MinTrackPoints < 2 {
		return fmt.Errorf("min_track_points must be at least 2, got %d", *c.MinTrackPoints)
	}

	if c.HourStart != nil {
		if *c.HourStart < 0 || *c.HourStart > 23 {
			return fmt.Errorf("hour_start must be between 0 and 23, got %d", *c.HourStart)
		}
	}
	if c.HourEnd != nil {
		if *c.HourEnd < 0 || *c.HourEnd > 23 {
			return fmt.Errorf("hour_end must be between 0 and 23, got %d", *c.HourEnd)
		}
	}
	if c.HourStart != nil && c.HourEnd != nil && *c.HourStart > *c.HourEnd {
		return fmt.Errorf("hour_start %d is after hour_end %d", *c.HourStart, *c.HourEnd)
	}

	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("invalid units %q, must be one of: %s", *c.Units, units.GetValidUnitsString())
	}

	return nil
}

// GetMaxSpeedKMH returns the max_speed_kmh value or the default.
func (c *TuningConfig) GetMaxSpeedKMH() float64 {
	if c.MaxSpeedKMH == nil {
		return 150 // default
	}
	return *c.MaxSpeedKMH
}

// GetMinTrackPoints returns the min_track_points value or the default.
func (c *TuningConfig) GetMinTrackPoints() int {
	if c.MinTrackPoints == nil {
		return 2 // default
	}
	return *c.MinTrackPoints
}

// GetHourRange returns the hour-of-day prefilter range, defaulting to the
// full day (no filtering).
func (c *TuningConfig) GetHourRange() (start, end int) {
	start, end = 0, 23
	if c.HourStart != nil {
		start = *c.HourStart
	}
	if c.HourEnd != nil {
		end = *c.HourEnd
	}
	return start, end
}

// GetUnits returns the output speed units or the default.
func (c *TuningConfig) GetUnits() string {
	if c.Units == nil {
		return units.KMPH // default: pipeline-native units
	}
	return *c.Units
}

// TraceConfig converts the tuning values into the pipeline's Config.
func (c *TuningConfig) TraceConfig() trace.Config {
	return trace.Config{
		MaxSpeedKMH:    c.GetMaxSpeedKMH(),
		MinTrackPoints: c.GetMinTrackPoints(),
	}
}
