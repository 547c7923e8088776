package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tanwarat/scribemesh/agent/agents/orchestrator"
	contractx "github.com/tanwarat/scribemesh/agent/contract"
	historyx "github.com/tanwarat/scribemesh/agent/history"
	registryx "github.com/tanwarat/scribemesh/agent/registry"
)

const maxRequestSizeBytes = 2 << 20

// Config holds the public HTTP server settings.
type Config struct {
	Port         int           `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"60s"`
	HistoryLimit int           `envconfig:"HISTORY_LIMIT" split_words:"true" default:"20"`
}

// Server is the public entry point of the orchestrator.
type Server struct {
	orch         *orchestratorx.Orchestrator
	registry     *registryx.Registry
	history      historyx.Store
	historyLimit int
	httpServer   *http.Server
}

func New(cfg Config, orch *orchestratorx.Orchestrator, registry *registryx.Registry, history historyx.Store) (*Server, error) {
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if history == nil {
		history = historyx.Noop{}
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 20
	}

	s := &Server{
		orch:         orch,
		registry:     registry,
		history:      history,
		historyLimit: historyLimit,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler returns the routed HTTP surface, wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.HandleFunc("GET /history", s.handleHistory)
	return requestLogger(mux)
}

type askRequest struct {
	Transcript  string `json:"transcript"`
	Instruction string `json:"prompt"`
}

// handleAsk runs one analysis. Request-shape problems answer 400; tool
// failures come back as a 200 with an error envelope, so callers handle one
// response shape.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	body := io.LimitReader(r.Body, maxRequestSizeBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	envelope, err := s.orch.Analyze(r.Context(), req.Transcript, req.Instruction)
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("analysis pipeline failed")
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	respondJSON(w, http.StatusOK, envelope)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":           "healthy",
		"agent":            "orchestrator",
		"tools_registered": strconv.Itoa(len(s.registry.Snapshot())),
	})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"tools": s.registry.Snapshot(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("history lookup failed")
		respondError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}
	if records == nil {
		records = []historyx.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": records})
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("orchestrator server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
