package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanflow-data/trajectory.report/internal/config"
	"github.com/urbanflow-data/trajectory.report/internal/db"
	"github.com/urbanflow-data/trajectory.report/internal/testutil"
	"github.com/urbanflow-data/trajectory.report/internal/trace"
)

func newTestServer(t *testing.T) (*Server, *db.DB) {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewServer(database, config.EmptyTuningConfig()), database
}

// seedPoints stores two vehicles: vehicle 1 with a teleport in the middle
// and vehicle 2 with a single point that can never form a trajectory.
func seedPoints(t *testing.T, database *db.DB) {
	t.Helper()
	points := []trace.Point{
		{VehicleID: 1, Time: testutil.At(0), Lat: testutil.Float(39.9), Lon: testutil.Float(116.4)},
		{VehicleID: 1, Time: testutil.At(10), Lat: testutil.Float(39.9001), Lon: testutil.Float(116.4001)},
		{VehicleID: 1, Time: testutil.At(20), Lat: testutil.Float(40.9), Lon: testutil.Float(117.4)},
		{VehicleID: 2, Time: testutil.At(5), Lat: testutil.Float(31.2), Lon: testutil.Float(121.5)},
	}
	require.NoError(t, database.InsertPoints(points, "seed"))
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestIngestUploadCSV(t *testing.T) {
	srv, database := newTestServer(t)

	csv := "TaxiID,DateTime,Latitude,Longitude\n" +
		"7,2024-01-15 08:00:00,39.9,116.4\n" +
		"7,2024-01-15 08:00:10,39.9001,116.4001\n"
	body, contentType := multipartUpload(t, "file", "day1.csv", csv)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	count, err := database.PointCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var resp struct {
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "day1.csv", resp.Source)
}

func TestIngestUploadRejectsUnknownExtension(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "file", "points.parquet", "not really")
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestUploadRequiresPost(t *testing.T) {
	srv, _ := newTestServer(t)

	req := testutil.NewTestRequest(http.MethodGet, "/api/ingest")
	rec := testutil.NewTestRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestProcessPointsRecordsRun(t *testing.T) {
	srv, database := newTestServer(t)
	seedPoints(t, database)

	req := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		RunID   string `json:"run_id"`
		Summary struct {
			RawPoints         int `json:"raw_points"`
			ValidTrajectories int `json:"valid_trajectories"`
			RemovedBySpeed    int `json:"removed_by_speed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 4, resp.Summary.RawPoints)
	// The teleport point exceeds the default 150 km/h cutoff; vehicle 2
	// has a single point so only vehicle 1 survives.
	assert.Equal(t, 1, resp.Summary.RemovedBySpeed)
	assert.Equal(t, 1, resp.Summary.ValidTrajectories)

	run, err := database.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, resp.RunID, run.RunID)
}

func TestProcessPointsParameterOverrides(t *testing.T) {
	srv, database := newTestServer(t)
	seedPoints(t, database)

	// A generous speed limit keeps the teleport point in the track.
	req := httptest.NewRequest(http.MethodPost, "/api/process?max_speed_kmh=100000", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Summary struct {
			RemovedBySpeed  int `json:"removed_by_speed"`
			ProcessedPoints int `json:"processed_points"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Summary.RemovedBySpeed)
	assert.Equal(t, 3, resp.Summary.ProcessedPoints)
}

func TestProcessPointsRejectsBadParameters(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, query := range []string{
		"max_speed_kmh=-5",
		"max_speed_kmh=fast",
		"min_points=1",
		"hour_start=24",
		"hour_end=-1",
		"hour_start=12&hour_end=3",
		"dates=2024-99-01",
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/process?"+query, nil)
		rec := httptest.NewRecorder()
		srv.ServeMux().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", query)
	}
}

func TestProcessPointsDateFilter(t *testing.T) {
	srv, database := newTestServer(t)
	seedPoints(t, database)

	// No stored point falls on this date, so nothing reaches the pipeline.
	req := httptest.NewRequest(http.MethodPost, "/api/process?dates=1999-01-01", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Summary struct {
			RawPoints int `json:"raw_points"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Summary.RawPoints)
}

func TestListRunsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	req := testutil.NewTestRequest(http.MethodGet, "/api/runs")
	rec := testutil.NewTestRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRunTrajectoriesRoundTrip(t *testing.T) {
	srv, database := newTestServer(t)
	seedPoints(t, database)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var processed struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &processed))

	path := fmt.Sprintf("/api/runs/%s/trajectories", processed.RunID)
	rec = httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		VehicleIDs   []int64              `json:"vehicle_ids"`
		Trajectories [][]trace.Coordinate `json:"trajectories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []int64{1}, resp.VehicleIDs)
	require.Len(t, resp.Trajectories, 1)
	assert.Len(t, resp.Trajectories[0], 2)
}

func TestRunTrajectoriesUnknownRun(t *testing.T) {
	srv, _ := newTestServer(t)

	req := testutil.NewTestRequest(http.MethodGet, "/api/runs/no-such-run/trajectories")
	rec := testutil.NewTestRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestShowStatsWithoutRuns(t *testing.T) {
	srv, _ := newTestServer(t)

	req := testutil.NewTestRequest(http.MethodGet, "/api/stats")
	rec := testutil.NewTestRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestShowStatsLatestRun(t *testing.T) {
	srv, database := newTestServer(t)
	seedPoints(t, database)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, "/api/stats"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		StoredPoints int `json:"stored_points"`
		LatestRun    struct {
			RunID string `json:"run_id"`
		} `json:"latest_run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.StoredPoints)
	assert.NotEmpty(t, resp.LatestRun.RunID)
}

func TestShowConfigDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	req := testutil.NewTestRequest(http.MethodGet, "/api/config")
	rec := testutil.NewTestRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 150.0, resp["max_speed_kmh"])
	assert.Equal(t, 2.0, resp["min_track_points"])
	assert.Equal(t, "kmph", resp["units"])
}

func TestSpeedChart(t *testing.T) {
	srv, database := newTestServer(t)
	seedPoints(t, database)

	req := testutil.NewTestRequest(http.MethodGet, "/api/charts/speeds")
	rec := testutil.NewTestRecorder()
	srv.ServeMux().ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.True(t, strings.Contains(rec.Body.String(), "Derived Speed Distribution"))
}
