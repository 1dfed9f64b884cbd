// Package web serves the ledgers over HTTP: schedule and results
// listings per league, ledger file status, and a trigger endpoint that
// starts collection jobs in the background.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/apovetkin/fonhockey/internal/ledger"
	"github.com/apovetkin/fonhockey/internal/pkg/config"
	"github.com/apovetkin/fonhockey/internal/runner"
)

type Server struct {
	cfg    *config.Config
	runner *runner.Runner
}

func NewServer(cfg *config.Config, r *runner.Runner) *Server {
	return &Server{cfg: cfg, runner: r}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/schedule/{league}", s.handleSchedule)
	r.Get("/results/{league}", s.handleResults)
	r.Post("/run", s.handleRun)
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSchedule lists unsettled rows of the league's odds ledger,
// newest first.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	s.handleLedgerView(w, r, false)
}

// handleResults lists settled rows of the league's outcome ledger,
// newest first.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.handleLedgerView(w, r, true)
}

func (s *Server) handleLedgerView(w http.ResponseWriter, r *http.Request, settled bool) {
	league, err := s.cfg.League(chi.URLParam(r, "league"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	file := league.OddsFile
	if settled {
		file = league.ResultsFile
	}

	_, rows, err := ledger.Load(filepath.Join(s.cfg.Store.Dir, file))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusOK, []view{})
			return
		}
		slog.Error("Failed to read ledger", "file", file, "error", err)
		writeError(w, http.StatusInternalServerError, "cannot read ledger")
		return
	}

	writeJSON(w, http.StatusOK, selectRows(rows, settled))
}

// fileStatus describes one ledger file on disk.
type fileStatus struct {
	File     string `json:"file"`
	Exists   bool   `json:"exists"`
	Size     int64  `json:"size_bytes,omitempty"`
	Modified string `json:"modified,omitempty"`
	Rows     int    `json:"rows,omitempty"`
	Running  bool   `json:"running"`
}

// handleStatus reports every configured ledger: presence, size, last
// write, row count, and whether its job is currently running.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	statuses := make(map[string]fileStatus)
	for _, l := range s.cfg.Leagues {
		statuses[l.Name+"_odds"] = s.fileStatus(l.OddsFile, l.Name+"_odds")
		statuses[l.Name+"_results"] = s.fileStatus(l.ResultsFile, l.Name+"_results")
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) fileStatus(file, job string) fileStatus {
	st := fileStatus{File: file, Running: s.runner.Running(job)}

	path := filepath.Join(s.cfg.Store.Dir, file)
	info, err := os.Stat(path)
	if err != nil {
		return st
	}
	st.Exists = true
	st.Size = info.Size()
	st.Modified = info.ModTime().Format(time.RFC3339)

	if _, rows, err := ledger.Load(path); err == nil {
		st.Rows = len(rows)
	}
	return st
}

// runRequest triggers one named collection job.
type runRequest struct {
	ParserType string `json:"parser_type"`
	Headless   *bool  `json:"headless"`
}

// handleRun starts the requested job detached and acknowledges the
// start immediately. Completion is observed through /status and the
// ledgers, never through this response.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ParserType == "" {
		writeError(w, http.StatusBadRequest, "parser_type is required")
		return
	}

	if err := s.runner.Start(req.ParserType, req.Headless); err != nil {
		if errors.Is(err, runner.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"job":    req.ParserType,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
