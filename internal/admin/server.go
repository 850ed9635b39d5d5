package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
)

// StatsProvider exposes a tracker state snapshot.
type StatsProvider interface {
	Stats() model.TrackerStats
}

// HealthProvider exposes the pipeline health snapshot as JSON-encodable
// data.
type HealthProvider interface {
	Snapshot() any
}

// Server provides the read-only operational HTTP surface: tracker
// status, pipeline health and liveness.
type Server struct {
	stats  StatsProvider
	health HealthProvider
	logger *slog.Logger
}

// NewServer creates the admin server. health may be nil.
func NewServer(stats StatsProvider, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		stats:  stats,
		logger: logger.With("component", "admin"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures optional dependencies of the admin server.
type Option func(*Server)

// WithHealthProvider sets the pipeline health provider.
func WithHealthProvider(hp HealthProvider) Option {
	return func(s *Server) { s.health = hp }
}

// Handler returns the HTTP handler for the admin API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/v1/status", s.handleStatus)
	mux.HandleFunc("GET /admin/v1/health", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleLiveness)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.health == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "health tracking not enabled"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.health.Snapshot())
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode admin response", "error", err)
	}
}
