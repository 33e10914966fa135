// Package business serves listing and lookup queries over the stored
// businesses.
package business

import (
	"context"
	"errors"
	"math"

	"github.com/leadscout/lead-scout/internal/leads"
	apperrors "github.com/leadscout/lead-scout/internal/pkg/errors"
	"github.com/leadscout/lead-scout/internal/store"
)

// Listing bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ListRequest constrains a business listing.
type ListRequest struct {
	// SearchID filters to one search when non-zero.
	SearchID int64

	// HasWebsite filters on website presence when set.
	HasWebsite *bool

	// MinRating is an inclusive lower bound when set.
	MinRating *float64

	Limit  int
	Offset int
}

// ListResponse is one page of businesses with the pre-pagination total.
type ListResponse struct {
	Total      int          `json:"total"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
	Businesses []leads.View `json:"businesses"`
}

// StatsResponse summarizes the stored businesses.
type StatsResponse struct {
	TotalBusinesses   int     `json:"total_businesses"`
	WithWebsite       int     `json:"with_website"`
	WithoutWebsite    int     `json:"without_website"`
	WebsitePercentage float64 `json:"website_percentage"`
}

// Service answers queries over stored businesses.
type Service struct {
	store store.Backend
}

// NewService creates a business query service.
func NewService(backend store.Backend) *Service {
	return &Service{store: backend}
}

// List returns one page of businesses, rating descending.
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if req.Limit <= 0 {
		req.Limit = DefaultListLimit
	}
	if req.Limit > MaxListLimit {
		req.Limit = MaxListLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	page, total, err := s.store.ListBusinesses(ctx, store.BusinessFilter{
		SearchID:   req.SearchID,
		HasWebsite: req.HasWebsite,
		MinRating:  req.MinRating,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, apperrors.InternalError("listing businesses", err)
	}

	return &ListResponse{
		Total:      total,
		Limit:      req.Limit,
		Offset:     req.Offset,
		Businesses: leads.NewViews(page),
	}, nil
}

// Get returns one business by ID.
func (s *Service) Get(ctx context.Context, id int64) (*leads.View, error) {
	biz, err := s.store.BusinessByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFoundError("business")
		}
		return nil, apperrors.InternalError("looking up business", err)
	}

	view := leads.NewView(biz)
	return &view, nil
}

// Stats returns aggregate counts with the website share as a percentage.
func (s *Service) Stats(ctx context.Context) (*StatsResponse, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, apperrors.InternalError("reading business stats", err)
	}

	var pct float64
	if stats.Total > 0 {
		pct = math.Round(float64(stats.WithWebsite)/float64(stats.Total)*1000) / 10
	}

	return &StatsResponse{
		TotalBusinesses:   stats.Total,
		WithWebsite:       stats.WithWebsite,
		WithoutWebsite:    stats.Total - stats.WithWebsite,
		WebsitePercentage: pct,
	}, nil
}
