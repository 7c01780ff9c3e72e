// Command trajectory-report ingests raw taxi GPS traces, cleans them into
// per-vehicle trajectories, and serves the results over HTTP.
//
// Usage:
//
//	trajectory-report [flags] serve
//	trajectory-report [flags] ingest <file> [vehicle-id]
//	trajectory-report [flags] process
//	trajectory-report [flags] migrate <up|down|status|version|force>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/urbanflow-data/trajectory.report/internal/api"
	"github.com/urbanflow-data/trajectory.report/internal/config"
	"github.com/urbanflow-data/trajectory.report/internal/db"
	"github.com/urbanflow-data/trajectory.report/internal/ingest"
	"github.com/urbanflow-data/trajectory.report/internal/report"
	"github.com/urbanflow-data/trajectory.report/internal/trace"
	"github.com/urbanflow-data/trajectory.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "HTTP listen address")
	dbFile     = flag.String("db", "trajectory_data.db", "Path to the SQLite database file")
	configFile = flag.String("config", "", "Path to a tuning config JSON file (optional)")
	histogram  = flag.String("histogram", "", "Write a speed histogram PNG to this path during process")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <serve|ingest|process|migrate>\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVer {
		fmt.Printf("trajectory-report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	tuning := config.EmptyTuningConfig()
	if *configFile != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		log.Printf("Loaded tuning config from %s", *configFile)
	}

	switch flag.Arg(0) {
	case "migrate":
		// migrate manages the schema itself, so open the database lazily
		// inside the subcommand rather than running migrations up front.
		db.RunMigrateCommand(flag.Args()[1:], *dbFile)
	case "ingest":
		runIngest(flag.Args()[1:])
	case "process":
		runProcess(tuning)
	case "serve":
		runServe(tuning)
	case "":
		usage()
		os.Exit(2)
	default:
		log.Fatalf("Unknown command %q", flag.Arg(0))
	}
}

func openDB() *db.DB {
	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return database
}

// runIngest loads one trace file into the database. The file extension
// picks the reader; NMEA logs take an optional vehicle ID argument since
// the sentences don't carry one.
func runIngest(args []string) {
	if len(args) < 1 {
		log.Fatal("Usage: trajectory-report ingest <file> [vehicle-id]")
	}
	path := args[0]

	var res ingest.Result
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		var f *os.File
		if f, err = os.Open(path); err == nil {
			defer f.Close()
			res, err = ingest.ReadCSV(f)
		}
	case ".xlsx":
		res, err = ingest.ReadXLSX(path)
	case ".nmea", ".log", ".txt":
		vehicleID := int64(ingest.UnknownVehicleID)
		if len(args) > 1 {
			if vehicleID, err = strconv.ParseInt(args[1], 10, 64); err != nil {
				log.Fatalf("Invalid vehicle ID %q: %v", args[1], err)
			}
		}
		var f *os.File
		if f, err = os.Open(path); err == nil {
			defer f.Close()
			res, err = ingest.ReadNMEA(f, vehicleID, time.Now().UTC().Year())
		}
	default:
		log.Fatalf("Unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	database := openDB()
	defer database.Close()

	if err := database.InsertPoints(res.Points, filepath.Base(path)); err != nil {
		log.Fatalf("Failed to store points: %v", err)
	}

	log.Printf("Ingested %s: %d rows, %d points loaded (%d bad timestamps, %d bad coordinates, %d bad vehicle IDs)",
		path, res.Stats.Rows, res.Stats.Loaded,
		res.Stats.BadTimestamps, res.Stats.BadCoordinates, res.Stats.BadVehicleIDs)
}

// runProcess executes the cleaning pipeline over every stored point and
// records the result as a run.
func runProcess(tuning *config.TuningConfig) {
	database := openDB()
	defer database.Close()

	points, err := database.Points()
	if err != nil {
		log.Fatalf("Failed to load points: %v", err)
	}
	hourStart, hourEnd := tuning.GetHourRange()
	points = ingest.FilterByHours(points, hourStart, hourEnd)

	cfg := tuning.TraceConfig()
	startedAt := time.Now().UTC()
	res := trace.NewPipeline().Run(points, cfg)
	finishedAt := time.Now().UTC()

	runID, err := database.SaveRun(res, cfg, startedAt, finishedAt)
	if err != nil {
		log.Fatalf("Failed to record run: %v", err)
	}

	summary := report.Summarize(res)
	log.Printf("Run %s: %d raw points, %d removed by speed, %d trajectories (%d points) in %v",
		runID, summary.RawPoints, summary.RemovedBySpeed,
		summary.ValidTrajectories, summary.ProcessedPoints, res.Stats.ProcessingTime)

	if *histogram != "" {
		speeds := report.CollectSpeeds(trace.DeriveFeatures(points))
		if err := report.SaveSpeedHistogramPNG(*histogram, speeds, 0); err != nil {
			log.Printf("Failed to write speed histogram: %v", err)
		} else {
			log.Printf("Wrote speed histogram to %s", *histogram)
		}
	}
}

func runServe(tuning *config.TuningConfig) {
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	database := openDB()
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()

	// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
	database.AttachAdminRoutes(mux)

	apiMux := api.NewServer(database, tuning).ServeMux()
	mux.Handle("/", apiMux)

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		log.Printf("Listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
