// Command gen-trace generates synthetic taxi GPS trace CSVs for testing
// the cleaning pipeline. Each vehicle performs a random walk around a city
// centre at plausible urban speeds; a configurable fraction of points are
// teleported far away so the speed filter has something to catch.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

var (
	output     = flag.String("o", "trace.csv", "output path")
	vehicles   = flag.Int("vehicles", 20, "number of vehicles")
	points     = flag.Int("points", 200, "points per vehicle")
	interval   = flag.Int("interval", 15, "seconds between points")
	anomalyPct = flag.Float64("anomalies", 0.02, "fraction of points teleported out of position")
	seed       = flag.Uint64("seed", 0, "random seed (0 for nondeterministic)")
)

// Beijing city centre, roughly. The walk stays within a few kilometres.
const (
	centreLat = 39.9042
	centreLon = 116.4074
)

// stepDegrees converts a metre displacement to degrees at the centre
// latitude. Close enough for synthetic data.
func stepDegrees(meters float64) (dLat, dLon float64) {
	dLat = meters / 111320.0
	dLon = meters / (111320.0 * math.Cos(centreLat*math.Pi/180))
	return
}

func main() {
	flag.Parse()

	if *seed != 0 {
		gofakeit.Seed(*seed)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"TaxiID", "DateTime", "Latitude", "Longitude"}); err != nil {
		log.Fatalf("failed to write header: %v", err)
	}

	start := gofakeit.DateRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	).Truncate(time.Minute)

	total := 0
	anomalies := 0
	for v := 0; v < *vehicles; v++ {
		vehicleID := 1000 + v
		lat := centreLat + gofakeit.Float64Range(-0.02, 0.02)
		lon := centreLon + gofakeit.Float64Range(-0.02, 0.02)
		ts := start.Add(time.Duration(gofakeit.Number(0, 3600)) * time.Second)

		for p := 0; p < *points; p++ {
			// Urban taxi speeds: up to ~60 km/h over the sample interval.
			speedMPS := gofakeit.Float64Range(0, 16.7)
			dLat, dLon := stepDegrees(speedMPS * float64(*interval))
			lat += dLat * gofakeit.Float64Range(-1, 1)
			lon += dLon * gofakeit.Float64Range(-1, 1)

			outLat, outLon := lat, lon
			if gofakeit.Float64Range(0, 1) < *anomalyPct {
				// Teleport far enough to guarantee an impossible speed.
				jLat, jLon := stepDegrees(gofakeit.Float64Range(5000, 20000))
				outLat += jLat
				outLon += jLon
				anomalies++
			}

			row := []string{
				fmt.Sprintf("%d", vehicleID),
				ts.Format("2006-01-02 15:04:05"),
				fmt.Sprintf("%.6f", outLat),
				fmt.Sprintf("%.6f", outLon),
			}
			if err := w.Write(row); err != nil {
				log.Fatalf("failed to write row: %v", err)
			}
			ts = ts.Add(time.Duration(*interval) * time.Second)
			total++
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("failed to flush output: %v", err)
	}

	log.Printf("✓ Created %s: %d vehicles, %d points, %d anomalies", *output, *vehicles, total, anomalies)
}
