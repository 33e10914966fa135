package business

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "github.com/leadscout/lead-scout/internal/pkg/errors"
)

// Handler provides HTTP handlers for business queries.
type Handler struct {
	svc *Service
}

// NewHandler creates a new business handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers business routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/businesses", h.HandleList)
	mux.HandleFunc("GET /api/businesses/{id}", h.HandleGet)
	mux.HandleFunc("GET /api/businesses/stats/summary", h.HandleStats)
}

// HandleList handles GET /api/businesses.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	resp, err := h.svc.List(r.Context(), *req)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/businesses/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		apperrors.WriteError(w,
			apperrors.ValidationError("id", "id must be a positive integer"))
		return
	}

	view, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleStats handles GET /api/businesses/stats/summary.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Stats(r.Context())
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseListRequest reads the listing filters from query parameters. Absent
// parameters stay unset; malformed ones are validation errors.
func parseListRequest(r *http.Request) (*ListRequest, error) {
	q := r.URL.Query()
	req := &ListRequest{}

	if raw := q.Get("search_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return nil, apperrors.ValidationError("search_id", "search_id must be a non-negative integer")
		}
		// Zero means no filter.
		if id > 0 {
			req.SearchID = id
		}
	}

	if raw := q.Get("has_website"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperrors.ValidationError("has_website", "has_website must be true or false")
		}
		req.HasWebsite = &v
	}

	if raw := q.Get("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 5 {
			return nil, apperrors.ValidationError("min_rating", "min_rating must be between 0 and 5")
		}
		// Zero means no filter, so unrated rows are not excluded.
		if v > 0 {
			req.MinRating = &v
		}
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, apperrors.ValidationError("limit", "limit must be a positive integer")
		}
		req.Limit = n
	}

	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, apperrors.ValidationError("offset", "offset must be a non-negative integer")
		}
		req.Offset = n
	}

	return req, nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
