package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is set at build time
var Version = "dev"

// SessionCounter reports connected sessions
type SessionCounter interface {
	SessionCount() int
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger   *slog.Logger
	sessions SessionCounter
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Sessions int    `json:"sessions"`
}

// Health обрабатывает GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Version:  Version,
		Sessions: h.sessions.SessionCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}

// Metrics returns the Prometheus handler for the given gatherer
func Metrics(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NewRouter builds the admin HTTP mux
func NewRouter(health *HealthHandler, g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("GET /metrics", Metrics(g))
	return mux
}
