package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/codecity/pkg/buildinfo"
	"github.com/matzehuels/codecity/pkg/config"
	cityerrors "github.com/matzehuels/codecity/pkg/errors"
	"github.com/matzehuels/codecity/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Server wires the pipeline runner, websocket hub and HTTP routes
// together.
type Server struct {
	cfg    config.Config
	runner *pipeline.Runner
	logger *log.Logger
	hub    *Hub
}

// New creates a server. A nil runner gets a default uncached runner; a
// nil logger falls back to log.Default.
func New(cfg config.Config, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Server{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		hub:    NewHub(logger),
	}
}

// Hub returns the websocket hub, mainly for broadcasting from watch
// rebuilds.
func (s *Server) Hub() *Hub { return s.hub }

// Router builds the chi router with all middleware and routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(CORS(s.cfg.Server.AllowedOrigins))
	r.Use(RequestLogger(s.logger))

	r.Get("/health", s.handleHealth)
	r.Get("/api/city", s.handleCity)
	r.Get("/ws", s.hub.HandleWS)
	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		s.hub.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// ===== Handlers =====

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

// handleCity runs the full pipeline for the repository named by the
// repo_path query parameter and returns the GeoJSON document.
//
// Optional query parameters:
//
//	refresh=true    bypass all caches
//	skip_git=true   omit git timestamps (faster on large histories)
func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	repoPath := r.URL.Query().Get("repo_path")
	if repoPath == "" {
		writeError(w, http.StatusBadRequest, "repo_path is required")
		return
	}

	opts := pipeline.Options{
		RepoPath:        repoPath,
		Refresh:         r.URL.Query().Get("refresh") == "true",
		SkipGitTimes:    r.URL.Query().Get("skip_git") == "true",
		CellSize:        s.cfg.Layout.CellSize,
		MaxSearchRadius: s.cfg.Layout.MaxSearchRadius,
		Logger:          s.logger.With("request_id", RequestIDFromContext(r.Context())),
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.GeoJSON); err != nil {
		s.logger.Error("failed to write response", "err", err)
	}
}

// ===== Response helpers =====

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to write JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writePipelineError maps pipeline error codes to HTTP statuses. The
// client gets the sanitized user message; the full error is logged
// server-side.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	code := cityerrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case cityerrors.ErrCodeInvalidInput, cityerrors.ErrCodeInvalidPath,
		cityerrors.ErrCodeInvalidFormat, cityerrors.ErrCodeInvalidConfig:
		status = http.StatusBadRequest
	case cityerrors.ErrCodeNotFound, cityerrors.ErrCodeRepoNotFound,
		cityerrors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case cityerrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("pipeline failed", "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error: cityerrors.UserMessage(err),
		Code:  string(code),
	})
}
