package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toladimeji/crimewatch/internal/config"
	"github.com/toladimeji/crimewatch/internal/model"
	"github.com/toladimeji/crimewatch/internal/pipeline"
	"github.com/toladimeji/crimewatch/internal/store"
	"github.com/toladimeji/crimewatch/pkg/classifier"
	"github.com/toladimeji/crimewatch/pkg/mapbox"
)

type stubGeocoder struct {
	result    *mapbox.Result
	err       error
	available bool
}

func (s *stubGeocoder) Forward(_ context.Context, _ string) (*mapbox.Result, error) {
	return s.result, s.err
}

func (s *stubGeocoder) Available() bool { return s.available }

type stubClassifier struct {
	pred *classifier.Prediction
	err  error
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (*classifier.Prediction, error) {
	return s.pred, s.err
}

func (s *stubClassifier) Name() string    { return "stub" }
func (s *stubClassifier) Available() bool { return true }

func testPolicyConfig() config.PolicyConfig {
	return config.PolicyConfig{
		PersistThreshold:     0.3,
		DisplayThreshold:     0.5,
		ConsistencyRadiusKM:  50,
		InconsistencyPenalty: 0.8,
		FallbackLatitude:     6.6018,
		FallbackLongitude:    3.3515,
		DashboardLimit:       50,
		RecentLimit:          10,
	}
}

// newTestServer wires a Server backed by a throwaway SQLite store and the
// given pipeline collaborators.
func newTestServer(t *testing.T, cl classifier.Client) (*Server, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "server_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	policy := testPolicyConfig()
	pl := pipeline.New(&stubGeocoder{available: false}, cl, pipeline.PolicyFromConfig(policy))

	srv, err := New(st, pl, policy)
	require.NoError(t, err)
	return srv, st
}

func trustedClassifier() *stubClassifier {
	return &stubClassifier{pred: &classifier.Prediction{
		Label:      "real",
		Confidence: 0.9,
		TrustScore: 0.72,
	}}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, trustedClassifier())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleProcess_EmptyReport(t *testing.T) {
	srv, _ := newTestServer(t, trustedClassifier())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(`{"report": ""}`))
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No report provided"}`, rec.Body.String())
}

func TestHandleProcess_InvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, trustedClassifier())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(`not json`))
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleProcess_SavesTrustedReport(t *testing.T) {
	srv, st := newTestServer(t, trustedClassifier())

	body, _ := json.Marshal(map[string]any{
		"report":    "robbery at the market",
		"latitude":  6.5,
		"longitude": 3.4,
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/process", bytes.NewReader(body))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp processResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Report processed and saved successfully", resp.Message)
	assert.NotEmpty(t, resp.ReportID)
	assert.Equal(t, model.LocationSourceCaller, resp.Result.LocationSource)
	assert.InDelta(t, 0.72, resp.Result.TrustScore, 1e-9)

	saved, err := st.ListReports(context.Background(), store.ReportFilter{MinTrustScore: 0.5})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, resp.ReportID, saved[0].ID)
}

func TestHandleProcess_PartialCoordinatesIgnored(t *testing.T) {
	srv, _ := newTestServer(t, trustedClassifier())

	// A lone longitude is not a caller location; the geocoder is
	// unavailable here, so the report lands on the fallback coordinates.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/process",
		strings.NewReader(`{"report": "robbery at the market", "latitude": 0, "longitude": 3.4}`))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp processResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.LocationSourceFallback, resp.Result.LocationSource)
	assert.InDelta(t, 6.6018, resp.Result.Location.Latitude, 1e-9)
	assert.InDelta(t, 3.3515, resp.Result.Location.Longitude, 1e-9)
}

func TestHandleProcess_RejectsLowTrustReport(t *testing.T) {
	// Confident fake: trust 0.2 * 0.9 = 0.18, below the persist threshold.
	cl := &stubClassifier{pred: &classifier.Prediction{
		Label:      "fake",
		Confidence: 0.9,
		TrustScore: 0.18,
	}}
	srv, st := newTestServer(t, cl)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/process",
		strings.NewReader(`{"report": "free iphones at the stadium"}`))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp processResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Report could not be verified", resp.Message)
	assert.Empty(t, resp.ReportID)

	saved, err := st.ListReports(context.Background(), store.ReportFilter{})
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestHandleReports_TruncatesText(t *testing.T) {
	srv, st := newTestServer(t, trustedClassifier())

	long := strings.Repeat("a", 150)
	_, err := st.CreateReport(context.Background(), model.AlertState{
		ReportText: long,
		AlertType:  "real",
		Confidence: 0.9,
		TrustScore: 0.72,
		Location:   model.Coordinates{Latitude: 6.6018, Longitude: 3.3515},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var views []reportView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, strings.Repeat("a", 100)+"...", views[0].OriginalText)
	assert.Equal(t, "Real", views[0].Category)
	assert.NotEmpty(t, views[0].Timestamp)
}

func TestHandleReports_TruncatesOnRuneBoundary(t *testing.T) {
	srv, st := newTestServer(t, trustedClassifier())

	long := strings.Repeat("é", 150)
	_, err := st.CreateReport(context.Background(), model.AlertState{
		ReportText: long,
		AlertType:  "real",
		Confidence: 0.9,
		TrustScore: 0.72,
		Location:   model.Coordinates{Latitude: 6.6018, Longitude: 3.3515},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	var views []reportView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, strings.Repeat("é", 100)+"...", views[0].OriginalText)
	assert.True(t, utf8.ValidString(views[0].OriginalText))
}

func TestHandleReports_FiltersByDisplayThreshold(t *testing.T) {
	srv, st := newTestServer(t, trustedClassifier())

	for _, trust := range []float64{0.4, 0.5, 0.6} {
		_, err := st.CreateReport(context.Background(), model.AlertState{
			ReportText: "report",
			AlertType:  "real",
			TrustScore: trust,
			Location:   model.Coordinates{Latitude: 6.6018, Longitude: 3.3515},
		})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	var views []reportView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	// Only the report strictly above 0.5 is displayed.
	require.Len(t, views, 1)
	assert.InDelta(t, 0.6, views[0].TrustScore, 1e-9)
}

func TestHandleDashboard(t *testing.T) {
	srv, st := newTestServer(t, trustedClassifier())

	_, err := st.CreateReport(context.Background(), model.AlertState{
		ReportText: "robbery at the market",
		AlertType:  "real",
		Confidence: 0.9,
		TrustScore: 0.72,
		Location:   model.Coordinates{Latitude: 6.6018, Longitude: 3.3515},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "robbery at the market")
}
