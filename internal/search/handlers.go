package search

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "github.com/leadscout/lead-scout/internal/pkg/errors"
	"github.com/leadscout/lead-scout/internal/store"
)

// History bounds.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Handler provides HTTP handlers for search operations.
type Handler struct {
	svc *Service
}

// NewHandler creates a new search handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers search routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/search", h.HandleSearch)
	mux.HandleFunc("GET /api/search/usage", h.HandleUsage)
	mux.HandleFunc("GET /api/search/history", h.HandleHistory)
}

// HandleSearch handles POST /api/search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidRequestError("invalid request body"))
		return
	}

	resp, err := h.svc.Run(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUsage handles GET /api/search/usage.
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Usage(r.Context())
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// HandleHistory handles GET /api/search/history. The body is a bare
// JSON array of search records, newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			apperrors.WriteError(w,
				apperrors.ValidationError("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	searches, err := h.svc.History(r.Context(), limit)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	if searches == nil {
		searches = []store.Search{}
	}

	writeJSON(w, http.StatusOK, searches)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
