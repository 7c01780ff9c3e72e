package ingest

import (
	"bufio"
	"io"

	gonmea "github.com/adrianmo/go-nmea"

	"github.com/urbanflow-data/trajectory.report/internal/trace"
)

// ReadNMEA loads points for a single vehicle from an NMEA-0183 sentence
// log, as produced by in-vehicle GPS receivers. Only RMC sentences carry
// both a fix and a date, so only they become points; sentences that fail
// to parse are counted and skipped rather than aborting the log.
//
// NMEA dates have two-digit years; refYear supplies the century.
func ReadNMEA(r io.Reader, vehicleID int64, refYear int) (Result, error) {
	var res Result

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		res.Stats.Rows++

		sentence, err := gonmea.Parse(line)
		if err != nil {
			res.Stats.BadTimestamps++
			res.Stats.BadCoordinates++
			continue
		}

		rmc, ok := sentence.(gonmea.RMC)
		if !ok {
			// GGA and friends have no date; skip without counting as bad.
			res.Stats.Rows--
			continue
		}

		p := trace.Point{VehicleID: vehicleID}
		if rmc.Validity == gonmea.ValidRMC {
			lat, lon := rmc.Latitude, rmc.Longitude
			p.Lat, p.Lon = &lat, &lon
			ts := gonmea.DateTime(refYear, rmc.Date, rmc.Time)
			p.Time = &ts
		} else {
			// Void fix: the row exists but its values cannot be trusted.
			res.Stats.BadTimestamps++
			res.Stats.BadCoordinates++
		}

		res.Points = append(res.Points, p)
		res.Stats.Loaded++
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}
