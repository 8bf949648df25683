// Package agentapi is the loopback HTTP surface the UI layer talks to:
// a passive status snapshot, mutation submission, and a manual reconcile
// trigger. It carries no business logic of its own.
package agentapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/finbridge/ledgerbridge/internal/engine"
)

// Server holds dependencies for HTTP handlers
type Server struct {
	Engine *engine.Engine
}

// errResp is the error body for all endpoints
type errResp struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}

// Routes creates the HTTP router for the local agent API
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	})

	r.Get("/v1/status", s.Status)
	r.Post("/v1/mutations", s.SubmitMutation)
	r.Post("/v1/reconcile", s.TriggerReconcile)

	log.Info().Msg("agent API routes registered")
	return r
}
