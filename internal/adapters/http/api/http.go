// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/leaguestats/internal/domain/model"
	"github.com/okian/leaguestats/internal/domain/tier"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Collection returns every persisted snapshot.
	Collection(ctx context.Context) (model.Collection, error)
	// TierSnapshots returns the persisted snapshots of one tier.
	TierSnapshots(ctx context.Context, label string) (model.Collection, error)
}

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	ranksHandler  *RanksHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		ranksHandler:  NewRanksHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/ranks", MetricsMiddleware(s.ranksHandler.HandleGetRanks, "ranks"))
	mux.HandleFunc("/ranks/{tier}", MetricsMiddleware(s.ranksHandler.HandleGetTier, "ranks_tier"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates domain not-found conditions to 404.
func isNotFound(err error) bool {
	return errors.Is(err, tier.ErrUnknownTier)
}
