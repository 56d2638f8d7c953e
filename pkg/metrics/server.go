package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/crewsync/crewsync/pkg/log"
)

// Server exposes the observability endpoints: Prometheus metrics,
// health/readiness probes, and the engine's computed sync status.
type Server struct {
	source StatusSource
	http   *http.Server
}

// NewServer creates the observability HTTP server
func NewServer(source StatusSource) *Server {
	return &Server{source: source}
}

// Start listens on addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", HealthHandler())
	mux.HandleFunc("/ready", ReadyHandler())
	mux.HandleFunc("/live", LivenessHandler())
	mux.HandleFunc("/status", s.statusHandler)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lgr := log.WithComponent("metrics")
	lgr.Info().Str("addr", addr).Msg("observability server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.source.ValidateSyncStatus())
}
