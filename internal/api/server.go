package api

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urbanflow-data/trajectory.report/internal/config"
	"github.com/urbanflow-data/trajectory.report/internal/db"
	"github.com/urbanflow-data/trajectory.report/internal/httputil"
	"github.com/urbanflow-data/trajectory.report/internal/ingest"
	"github.com/urbanflow-data/trajectory.report/internal/report"
	"github.com/urbanflow-data/trajectory.report/internal/trace"
	"github.com/urbanflow-data/trajectory.report/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxUploadBytes caps ingest uploads. Taxi day files in the wild run to a
// few tens of megabytes; anything past this is almost certainly a mistake.
const maxUploadBytes = 256 << 20

type Server struct {
	db       *db.DB
	tuning   *config.TuningConfig
	pipeline *trace.Pipeline
}

func NewServer(db *db.DB, tuning *config.TuningConfig) *Server {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	return &Server{
		db:       db,
		tuning:   tuning,
		pipeline: trace.NewPipeline(),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ingest", s.ingestUpload)
	mux.HandleFunc("/api/process", s.processPoints)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/{id}/trajectories", s.runTrajectories)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/charts/speeds", s.speedChart)
	return mux
}

// ingestUpload accepts a multipart upload under the "file" field and loads
// its points into the database. The file extension picks the reader: .csv,
// .xlsx, or .nmea. NMEA uploads may carry a "vehicle_id" form value since
// the sentences themselves don't identify the vehicle.
func (s *Server) ingestUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing 'file' upload field")
		return
	}
	defer file.Close()

	var res ingest.Result
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		res, err = ingest.ReadCSV(file)
	case ".xlsx":
		// excelize reads from a path, so spool the upload to disk first.
		var tmp *os.File
		tmp, err = os.CreateTemp("", "trajectory-upload-*.xlsx")
		if err != nil {
			httputil.InternalServerError(w, "failed to spool upload")
			return
		}
		defer os.Remove(tmp.Name())
		_, err = tmp.ReadFrom(file)
		tmp.Close()
		if err == nil {
			res, err = ingest.ReadXLSX(tmp.Name())
		}
	case ".nmea", ".log", ".txt":
		vehicleID := int64(ingest.UnknownVehicleID)
		if v := r.FormValue("vehicle_id"); v != "" {
			vehicleID, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				httputil.BadRequest(w, "invalid 'vehicle_id' form value")
				return
			}
		}
		res, err = ingest.ReadNMEA(file, vehicleID, time.Now().UTC().Year())
	default:
		httputil.BadRequest(w, "unsupported file type %q", filepath.Ext(header.Filename))
		return
	}
	if err != nil {
		httputil.BadRequest(w, "failed to parse upload: %v", err)
		return
	}

	if err := s.db.InsertPoints(res.Points, header.Filename); err != nil {
		httputil.InternalServerError(w, "failed to store points: %v", err)
		return
	}

	httputil.WriteJSONCreated(w, map[string]interface{}{
		"source": header.Filename,
		"stats":  res.Stats,
	})
}

// processPoints runs the cleaning pipeline over every stored point and
// records the result as a new run. Query parameters override the tuning
// config: max_speed_kmh, min_points, hour_start, hour_end, and dates (a
// comma-separated list of YYYY-MM-DD days to keep).
func (s *Server) processPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	cfg := s.tuning.TraceConfig()
	if v := r.URL.Query().Get("max_speed_kmh"); v != "" {
		maxSpeed, err := strconv.ParseFloat(v, 64)
		if err != nil || maxSpeed <= 0 {
			httputil.BadRequest(w, "invalid 'max_speed_kmh' parameter")
			return
		}
		cfg.MaxSpeedKMH = maxSpeed
	}
	if v := r.URL.Query().Get("min_points"); v != "" {
		minPoints, err := strconv.Atoi(v)
		if err != nil || minPoints < 2 {
			httputil.BadRequest(w, "invalid 'min_points' parameter")
			return
		}
		cfg.MinTrackPoints = minPoints
	}

	hourStart, hourEnd := s.tuning.GetHourRange()
	if v := r.URL.Query().Get("hour_start"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			httputil.BadRequest(w, "invalid 'hour_start' parameter")
			return
		}
		hourStart = h
	}
	if v := r.URL.Query().Get("hour_end"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 || h > 23 {
			httputil.BadRequest(w, "invalid 'hour_end' parameter")
			return
		}
		hourEnd = h
	}
	if hourStart > hourEnd {
		httputil.BadRequest(w, "'hour_start' must not exceed 'hour_end'")
		return
	}

	var dates []time.Time
	if v := r.URL.Query().Get("dates"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			day, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
			if err != nil {
				httputil.BadRequest(w, "invalid date %q in 'dates' parameter", raw)
				return
			}
			dates = append(dates, day)
		}
	}

	points, err := s.db.Points()
	if err != nil {
		httputil.InternalServerError(w, "failed to load points: %v", err)
		return
	}
	points = ingest.FilterByDates(points, dates)
	points = ingest.FilterByHours(points, hourStart, hourEnd)

	startedAt := time.Now().UTC()
	res := s.pipeline.Run(points, cfg)
	finishedAt := time.Now().UTC()

	runID, err := s.db.SaveRun(res, cfg, startedAt, finishedAt)
	if err != nil {
		httputil.InternalServerError(w, "failed to record run: %v", err)
		return
	}

	httputil.WriteJSONCreated(w, map[string]interface{}{
		"run_id":  runID,
		"summary": report.Summarize(res).WithTimeRange(points),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	runs, err := s.db.Runs()
	if err != nil {
		httputil.InternalServerError(w, "failed to retrieve runs: %v", err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) runTrajectories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	runID := r.PathValue("id")
	trajectories, vehicleIDs, err := s.db.RunTrajectories(runID)
	if err != nil {
		httputil.InternalServerError(w, "failed to retrieve trajectories: %v", err)
		return
	}
	if len(trajectories) == 0 {
		httputil.NotFound(w, "no trajectories for run %q", runID)
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"run_id":       runID,
		"vehicle_ids":  vehicleIDs,
		"trajectories": trajectories,
	})
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	run, err := s.db.LatestRun()
	if errors.Is(err, db.ErrNoRuns) {
		httputil.NotFound(w, "no runs recorded yet")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, "failed to retrieve latest run: %v", err)
		return
	}

	pointCount, err := s.db.PointCount()
	if err != nil {
		httputil.InternalServerError(w, "failed to count points: %v", err)
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"stored_points": pointCount,
		"latest_run":    run,
	})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	hourStart, hourEnd := s.tuning.GetHourRange()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"max_speed_kmh":    s.tuning.GetMaxSpeedKMH(),
		"min_track_points": s.tuning.GetMinTrackPoints(),
		"hour_start":       hourStart,
		"hour_end":         hourEnd,
		"units":            s.tuning.GetUnits(),
	})
}

// speedChart derives features over the stored points and renders the
// speed distribution as an HTML chart. Speeds are converted to the
// configured display units; the anomaly threshold is drawn alongside.
func (s *Server) speedChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	points, err := s.db.Points()
	if err != nil {
		httputil.InternalServerError(w, "failed to load points: %v", err)
		return
	}

	derived := trace.DeriveFeatures(points)
	speeds := report.CollectSpeeds(derived)
	target := s.tuning.GetUnits()
	for i := range speeds {
		speeds[i] = units.ConvertSpeed(speeds[i], target)
	}
	threshold := units.ConvertSpeed(s.tuning.GetMaxSpeedKMH(), target)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderSpeedChart(w, speeds, threshold, target); err != nil {
		log.Printf("failed to render speed chart: %v", err)
	}
}
