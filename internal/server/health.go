package server

import (
	"encoding/json"
	"net/http"

	"github.com/leadscout/lead-scout/internal/config"
)

// HealthResponse reports service health and configuration problems.
type HealthResponse struct {
	Status           string   `json:"status"`
	ConfigErrors     []string `json:"config_errors"`
	APIKeyConfigured bool     `json:"api_key_configured"`
}

// HealthHandler serves the health endpoint.
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// RegisterRoutes registers the health route on the mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.HandleHealth)
}

// HandleHealth handles GET /api/health. Configuration problems degrade the
// status but never fail the endpoint.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	problems := h.cfg.Problems()

	status := "healthy"
	if len(problems) > 0 {
		status = "degraded"
	}
	if problems == nil {
		problems = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:           status,
		ConfigErrors:     problems,
		APIKeyConfigured: h.cfg.APIKeyConfigured(),
	})
}
