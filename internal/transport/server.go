package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mlechner/polier/internal/pipeline"
	"github.com/mlechner/polier/internal/repository"
)

// Server exposes the pipeline trigger surface over HTTP.
type Server struct {
	snapshots *pipeline.SnapshotService
	insights  *pipeline.InsightService
	refresh   *pipeline.RefreshService
	logger    *slog.Logger
	now       func() time.Time
}

func NewServer(
	snapshots *pipeline.SnapshotService,
	insights *pipeline.InsightService,
	refresh *pipeline.RefreshService,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		snapshots: snapshots,
		insights:  insights,
		refresh:   refresh,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the clock, for deterministic tests.
func (s *Server) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Handler builds the route table. The shared secret guards every
// mutating route; /health stays open for probes.
func (s *Server) Handler(secret string) http.Handler {
	auth := SharedSecretMiddleware(secret)

	mux := http.NewServeMux()
	mux.Handle("POST /triggers/snapshots", auth(http.HandlerFunc(s.handleSnapshotTrigger)))
	mux.Handle("POST /triggers/insights", auth(http.HandlerFunc(s.handleInsightTrigger)))
	mux.Handle("POST /tenants/{id}/refresh", auth(http.HandlerFunc(s.handleRefresh)))
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshotTrigger(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOfParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.snapshots.GenerateSnapshots(r.Context(), asOf)
	if err != nil {
		s.logger.Error("snapshot trigger failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleInsightTrigger(w http.ResponseWriter, r *http.Request) {
	report, err := s.insights.RunInsights(r.Context())
	if err != nil {
		s.logger.Error("insight trigger failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// refreshResponse matches the body the dashboard's refresh button
// expects, for both the success and the rate-limited case.
type refreshResponse struct {
	Success       bool       `json:"success"`
	LastRefreshAt *time.Time `json:"lastRefreshAt,omitempty"`
	Error         string     `json:"error,omitempty"`
	NextRefreshAt *time.Time `json:"nextRefreshAt,omitempty"`
	WaitMinutes   *int       `json:"waitMinutes,omitempty"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("id")

	result, err := s.refresh.Refresh(r.Context(), tenantID)
	if err != nil {
		var rateErr *pipeline.RateLimitError
		if errors.As(err, &rateErr) {
			writeJSON(w, http.StatusTooManyRequests, refreshResponse{
				Success:       false,
				Error:         "rate_limited",
				NextRefreshAt: &rateErr.NextRefreshAt,
				WaitMinutes:   &rateErr.WaitMinutes,
			})
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "tenant not found")
			return
		}
		s.logger.Error("manual refresh failed", "tenant", tenantID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Success:       true,
		LastRefreshAt: &result.LastRefreshAt,
	})
}

// asOfParam reads the optional ?asOf=YYYY-MM-DD query, defaulting to
// today's calendar date.
func (s *Server) asOfParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New("asOf must be YYYY-MM-DD")
	}
	return asOf, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
