// Package dashboard serves the monitoring API: sync history, ledger
// stats, Prometheus metrics, and a manual sync trigger.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/Faitltd/houzz-to-zoho/internal/store"
)

// Config holds the dashboard server settings.
type Config struct {
	Host           string
	Port           int
	MetricsEnabled bool
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg     Config
	store   *store.Store
	trigger func()
	logger  *slog.Logger
	http    *http.Server
}

// NewServer builds the dashboard. The trigger runs a sync outside the
// schedule when the API asks for one; nil disables the endpoint.
func NewServer(cfg Config, st *store.Store, trigger func(), logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, store: st, trigger: trigger, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Default().Handler)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/syncs", s.handleSyncs)
	r.Get("/api/estimates", s.handleEstimates)
	r.Post("/api/sync", s.handleTrigger)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("dashboard listening", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.logger.Error("failed to load stats", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type runResponse struct {
	ID             string `json:"id"`
	StartedAt      string `json:"started_at"`
	FinishedAt     string `json:"finished_at"`
	Status         string `json:"status"`
	FileName       string `json:"file_name,omitempty"`
	EstimateID     string `json:"estimate_id,omitempty"`
	EstimateNumber string `json:"estimate_number,omitempty"`
	ExtractSource  string `json:"extract_source,omitempty"`
	LineItems      int    `json:"line_items"`
	Error          string `json:"error,omitempty"`
}

func (s *Server) handleSyncs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse{
			ID:             run.ID,
			StartedAt:      run.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt:     run.FinishedAt.UTC().Format(time.RFC3339),
			Status:         run.Status,
			FileName:       run.FileName,
			EstimateID:     run.EstimateID,
			EstimateNumber: run.EstimateNumber,
			ExtractSource:  run.ExtractSource,
			LineItems:      run.LineItems,
			Error:          run.Error,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

type estimateResponse struct {
	FileID         string `json:"file_id"`
	FileName       string `json:"file_name"`
	MimeType       string `json:"mime_type,omitempty"`
	EstimateID     string `json:"estimate_id,omitempty"`
	EstimateNumber string `json:"estimate_number,omitempty"`
	ProcessedAt    string `json:"processed_at"`
}

func (s *Server) handleEstimates(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	files, err := s.store.ListProcessed(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list processed files", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list estimates"})
		return
	}

	out := make([]estimateResponse, 0, len(files))
	for _, f := range files {
		out = append(out, estimateResponse{
			FileID:         f.FileID,
			FileName:       f.FileName,
			MimeType:       f.MimeType,
			EstimateID:     f.EstimateID,
			EstimateNumber: f.EstimateNumber,
			ProcessedAt:    f.ProcessedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"estimates": out})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if s.trigger == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "manual sync not available"})
		return
	}
	s.logger.Info("manual sync triggered via dashboard")
	s.trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync started"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
