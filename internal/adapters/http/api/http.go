// Package api registers the operational endpoints: metrics exposition and
// observer statistics.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/auscript/internal/adapters/http/middleware"
	"github.com/okian/auscript/pkg/logger"
)

// Server wires HTTP routes for the operational API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	logger        logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(statsProvider StatsProvider, l logger.Logger) *Server {
	if l == nil {
		l = logger.Get().Named("api")
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		logger:        l,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /healthz", middleware.Chain(http.HandlerFunc(s.healthHandler.HandleHealth), "healthz", s.logger))
	mux.Handle("GET /stats", middleware.Chain(http.HandlerFunc(s.statsHandler.HandleStats), "stats", s.logger))
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
