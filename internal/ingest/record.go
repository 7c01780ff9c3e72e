// Package ingest loads raw taxi trace records from CSV, XLSX and NMEA
// sources and normalizes them into trace.Point values.
//
// Normalization never rejects rows: a malformed timestamp or coordinate
// becomes a nil field and an unparseable vehicle ID falls back to -1, so
// the cleaning pipeline sees every row and applies its own null-propagation
// rules. Per-field failure counts are reported alongside the points.
package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/urbanflow-data/trajectory.report/internal/trace"
)

// UnknownVehicleID marks rows whose vehicle ID could not be parsed.
const UnknownVehicleID = -1

// Canonical column names after header normalization.
const (
	colDateTime  = "DateTime"
	colLatitude  = "Latitude"
	colLongitude = "Longitude"
	colTaxiID    = "TaxiID"
)

// columnAliases maps source header spellings to canonical names.
var columnAliases = map[string]string{
	"TimeStamp":     colDateTime,
	"Date and Time": colDateTime,
	"DriveNo":       colTaxiID,
}

// timestampLayouts are tried in order when parsing the DateTime column.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02 15:04",
}

// Stats counts what happened during a load. Bad fields degrade to nil (or
// -1 for vehicle IDs) rather than dropping the row, so Loaded normally
// equals Rows.
type Stats struct {
	Rows           int `json:"rows"`
	Loaded         int `json:"loaded"`
	BadTimestamps  int `json:"bad_timestamps"`
	BadCoordinates int `json:"bad_coordinates"`
	BadVehicleIDs  int `json:"bad_vehicle_ids"`
}

// Result is a normalized batch of points plus its load statistics.
type Result struct {
	Points []trace.Point
	Stats  Stats
}

// parseRows converts a header row plus data rows into normalized points.
// Shared by the CSV and XLSX readers.
func parseRows(header []string, rows [][]string) Result {
	cols := resolveColumns(header)
	idIdx := columnIndex(cols, colTaxiID)
	timeIdx := columnIndex(cols, colDateTime)
	latIdx := columnIndex(cols, colLatitude)
	lonIdx := columnIndex(cols, colLongitude)

	var res Result
	for _, row := range rows {
		res.Stats.Rows++

		p := trace.Point{VehicleID: UnknownVehicleID}
		if v, ok := cell(row, idIdx); ok {
			if id, err := parseVehicleID(v); err == nil {
				p.VehicleID = id
			} else {
				res.Stats.BadVehicleIDs++
			}
		} else {
			res.Stats.BadVehicleIDs++
		}

		if v, ok := cell(row, timeIdx); ok {
			if ts := parseTimestamp(v); ts != nil {
				p.Time = ts
			} else {
				res.Stats.BadTimestamps++
			}
		} else {
			res.Stats.BadTimestamps++
		}

		p.Lat = parseCoordinate(row, latIdx, &res.Stats)
		p.Lon = parseCoordinate(row, lonIdx, &res.Stats)

		res.Points = append(res.Points, p)
		res.Stats.Loaded++
	}
	return res
}

// resolveColumns trims header cells, applies alias mapping and drops a
// leading unnamed index column the way exported dataframes carry one.
func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 && strings.HasPrefix(name, "Unnamed") {
			continue
		}
		if canonical, ok := columnAliases[name]; ok {
			name = canonical
		}
		if _, taken := cols[name]; !taken {
			cols[name] = i
		}
	}
	return cols
}

func columnIndex(cols map[string]int, name string) int {
	if i, ok := cols[name]; ok {
		return i
	}
	return -1
}

func cell(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[idx])
	if v == "" {
		return "", false
	}
	return v, true
}

func parseVehicleID(s string) (int64, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	// Some exports write IDs as floats ("12.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func parseTimestamp(s string) *time.Time {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

func parseCoordinate(row []string, idx int, stats *Stats) *float64 {
	v, ok := cell(row, idx)
	if !ok {
		stats.BadCoordinates++
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		stats.BadCoordinates++
		return nil
	}
	return &f
}
