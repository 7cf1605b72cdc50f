// Package server exposes the report processing API and the dashboard.
package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toladimeji/crimewatch/internal/config"
	"github.com/toladimeji/crimewatch/internal/model"
	"github.com/toladimeji/crimewatch/internal/pipeline"
	"github.com/toladimeji/crimewatch/internal/store"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

// previewLength caps report text in API listings.
const previewLength = 100

// Server handles report submission and dashboard requests.
type Server struct {
	store    store.Store
	pipeline *pipeline.Pipeline
	policy   config.PolicyConfig
	tmpl     *template.Template
}

// New creates a Server with its collaborators.
func New(st store.Store, pl *pipeline.Pipeline, policy config.PolicyConfig) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, eris.Wrap(err, "server: parse dashboard template")
	}
	return &Server{
		store:    st,
		pipeline: pl,
		policy:   policy,
		tmpl:     tmpl,
	}, nil
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/process", s.handleProcess)
	r.Get("/api/reports", s.handleReports)
	r.Get("/", s.handleDashboard)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// processRequest is the POST /api/process body.
type processRequest struct {
	Report    string  `json:"report"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// processResponse is the POST /api/process reply.
type processResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Result   model.AlertState `json:"result"`
	ReportID string           `json:"report_id,omitempty"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Report == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No report provided"})
		return
	}

	// Coordinates count as provided only when both are non-zero,
	// matching the submission form.
	var caller *model.Coordinates
	if req.Latitude != 0 && req.Longitude != 0 {
		caller = &model.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
	}

	state := s.pipeline.Run(r.Context(), req.Report, caller)

	if state.TrustScore <= s.policy.PersistThreshold {
		zap.L().Info("process: report rejected, trust score below threshold",
			zap.Float64("trust_score", state.TrustScore),
		)
		writeJSON(w, http.StatusOK, processResponse{
			Success: false,
			Message: "Report could not be verified",
			Result:  state,
		})
		return
	}

	report, err := s.store.CreateReport(r.Context(), state)
	if err != nil {
		zap.L().Error("process: failed to save report", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	zap.L().Info("process: report saved", zap.String("report_id", report.ID))
	writeJSON(w, http.StatusOK, processResponse{
		Success:  true,
		Message:  "Report processed and saved successfully",
		Result:   state,
		ReportID: report.ID,
	})
}

// reportView is one entry in the GET /api/reports listing, with the
// original text truncated for display.
type reportView struct {
	ID           string  `json:"id"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Category     string  `json:"category"`
	TrustScore   float64 `json:"trust_score"`
	Timestamp    string  `json:"timestamp"`
	OriginalText string  `json:"original_text"`
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.store.ListReports(r.Context(), store.ReportFilter{
		MinTrustScore: s.policy.DisplayThreshold,
	})
	if err != nil {
		zap.L().Error("reports: list failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	views := make([]reportView, 0, len(reports))
	for _, rep := range reports {
		views = append(views, reportView{
			ID:           rep.ID,
			Latitude:     rep.Latitude,
			Longitude:    rep.Longitude,
			Category:     rep.Category,
			TrustScore:   rep.TrustScore,
			Timestamp:    rep.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			OriginalText: truncate(rep.OriginalText, previewLength),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// dashboardData feeds the dashboard template.
type dashboardData struct {
	Reports      []model.CrimeReport
	Statistics   map[string]int
	RecentAlerts []model.CrimeReport
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var data dashboardData

	// The three queries are independent; run them concurrently.
	g, gCtx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		reports, err := s.store.ListReports(gCtx, store.ReportFilter{
			MinTrustScore: s.policy.DisplayThreshold,
			Limit:         s.policy.DashboardLimit,
		})
		data.Reports = reports
		return err
	})
	g.Go(func() error {
		stats, err := s.store.CountByCategory(gCtx, s.policy.DisplayThreshold)
		data.Statistics = stats
		return err
	})
	g.Go(func() error {
		recent, err := s.store.ListReports(gCtx, store.ReportFilter{
			MinTrustScore: s.policy.DisplayThreshold,
			Limit:         s.policy.RecentLimit,
		})
		data.RecentAlerts = recent
		return err
	})

	if err := g.Wait(); err != nil {
		// Render the dashboard empty rather than failing the page.
		zap.L().Error("dashboard: failed to load data", zap.Error(err))
		data = dashboardData{Statistics: map[string]int{}}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		zap.L().Error("dashboard: render failed", zap.Error(err))
	}
}

// requestLogger logs one line per request with status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

// truncate shortens text to n characters, never splitting a rune.
func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return text
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: write response", zap.Error(err))
	}
}
