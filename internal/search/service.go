// Package search orchestrates a lead search: quota gating, geocoding, the
// places text search, persistence, and the scored response.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/leadscout/lead-scout/internal/bus"
	"github.com/leadscout/lead-scout/internal/leads"
	"github.com/leadscout/lead-scout/internal/places"
	apperrors "github.com/leadscout/lead-scout/internal/pkg/errors"
	"github.com/leadscout/lead-scout/internal/pkg/logger"
	"github.com/leadscout/lead-scout/internal/quota"
	"github.com/leadscout/lead-scout/internal/store"
)

// Request bounds.
const (
	DefaultRadiusKm   = 10
	MaxRadiusKm       = 50
	DefaultMaxResults = 10
	MaxMaxResults     = 20
)

// Request is one search invocation.
type Request struct {
	Query      string `json:"query"`
	Location   string `json:"location"`
	RadiusKm   int    `json:"radius_km,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// Validate checks bounds and fills defaults. It must pass before any
// external call is made.
func (r *Request) Validate() error {
	if r.Query == "" {
		return apperrors.ValidationError("query", "query is required")
	}
	if r.Location == "" {
		return apperrors.ValidationError("location", "location is required")
	}

	if r.RadiusKm == 0 {
		r.RadiusKm = DefaultRadiusKm
	}
	if r.RadiusKm < 1 || r.RadiusKm > MaxRadiusKm {
		return apperrors.ValidationError("radius_km",
			fmt.Sprintf("radius_km must be between 1 and %d", MaxRadiusKm))
	}

	if r.MaxResults == 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.MaxResults < 1 || r.MaxResults > MaxMaxResults {
		return apperrors.ValidationError("max_results",
			fmt.Sprintf("max_results must be between 1 and %d", MaxMaxResults))
	}

	return nil
}

// Response is the search result payload.
type Response struct {
	SearchID     int64        `json:"search_id"`
	Query        string       `json:"query"`
	Location     string       `json:"location"`
	RadiusKm     int          `json:"radius_km"`
	TotalResults int          `json:"total_results"`
	Businesses   []leads.View `json:"businesses"`
	APIUsage     *quota.Stats `json:"api_usage"`
}

// Service runs searches end to end.
type Service struct {
	store  store.Backend
	places places.API
	quota  *quota.Tracker
	bus    bus.Bus
	log    *logger.Logger
}

// NewService creates a search service.
func NewService(backend store.Backend, api places.API, tracker *quota.Tracker, eventBus bus.Bus, log *logger.Logger) *Service {
	return &Service{
		store:  backend,
		places: api,
		quota:  tracker,
		bus:    eventBus,
		log:    log.WithComponent("search"),
	}
}

// Run executes one search. The quota is checked before any upstream call;
// each geocode, text search, and detail lookup consumes one call. Already
// known businesses are reused without a detail fetch.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	used, limit, err := s.quota.Remaining(ctx)
	if err != nil {
		return nil, apperrors.InternalError("checking quota", err)
	}
	if used >= limit {
		return nil, apperrors.QuotaExceededError(used, limit)
	}

	at, err := s.places.Geocode(ctx, req.Location)
	if err != nil && !errors.Is(err, places.ErrNoResults) {
		return nil, apperrors.UpstreamError("geocoding failed", err)
	}
	// The geocode call happened even when it matched nothing, so it counts.
	if cerr := s.quota.Consume(ctx, 1); cerr != nil {
		s.log.WithError(cerr).Warn("recording geocode usage failed")
	}
	used++
	if err != nil {
		return nil, apperrors.New(apperrors.CodeNotFound,
			fmt.Sprintf("location %q could not be found", req.Location))
	}

	results, err := s.places.TextSearch(ctx,
		fmt.Sprintf("%s in %s", req.Query, req.Location), *at, req.RadiusKm*1000)
	if err != nil {
		return nil, apperrors.UpstreamError("places search failed", err)
	}
	if err := s.quota.Consume(ctx, 1); err != nil {
		s.log.WithError(err).Warn("recording search usage failed")
	}
	used++

	search := &store.Search{
		Query:        req.Query,
		Location:     req.Location,
		RadiusKm:     req.RadiusKm,
		ResultsCount: len(results),
	}
	if err := s.store.CreateSearch(ctx, search); err != nil {
		return nil, apperrors.InternalError("saving search", err)
	}

	s.log.Info("search completed",
		"search_id", search.ID,
		"query", req.Query,
		"location", req.Location,
		"results", len(results),
	)

	if len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}

	businesses := make([]store.Business, 0, len(results))
	for _, place := range results {
		biz, err := s.saveResult(ctx, search.ID, place, &used, limit)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, *biz)
	}

	stats, err := s.quota.Stats(ctx)
	if err != nil {
		s.log.WithError(err).Warn("reading usage stats failed")
	}

	resp := &Response{
		SearchID:     search.ID,
		Query:        req.Query,
		Location:     req.Location,
		RadiusKm:     req.RadiusKm,
		TotalResults: len(businesses),
		Businesses:   leads.NewViews(businesses),
		APIUsage:     stats,
	}

	s.publish(ctx, bus.TopicSearchCompleted, map[string]any{
		"search_id":     search.ID,
		"query":         req.Query,
		"location":      req.Location,
		"total_results": search.ResultsCount,
	})

	return resp, nil
}

// saveResult stores one text-search result, reusing an existing record when
// the place was seen before. Detail lookups are best effort and stop once
// the quota headroom is gone; used tracks calls consumed so far.
func (s *Service) saveResult(ctx context.Context, searchID int64, place places.Place, used *int, limit int) (*store.Business, error) {
	existing, err := s.store.BusinessByPlaceID(ctx, place.PlaceID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.InternalError("looking up business", err)
	}

	biz := &store.Business{
		PlaceID:     place.PlaceID,
		Name:        place.Name,
		Address:     place.Address,
		Rating:      place.Rating,
		ReviewCount: place.ReviewCount,
		Categories:  place.Categories,
		Latitude:    place.Latitude,
		Longitude:   place.Longitude,
		SearchID:    searchID,
	}

	if *used+2 < limit {
		details, err := s.places.Details(ctx, place.PlaceID)
		if cerr := s.quota.Consume(ctx, 1); cerr != nil {
			s.log.WithError(cerr).Warn("recording details usage failed")
		}
		*used++
		if err != nil {
			// Missing contact fields are acceptable; the row is
			// stored without them.
			s.log.WithError(err).Warn("detail lookup failed",
				"place_id", place.PlaceID)
		} else {
			biz.Phone = details.Phone
			biz.Website = details.Website
		}
	}

	if err := s.store.CreateBusiness(ctx, biz); err != nil {
		return nil, apperrors.InternalError("saving business", err)
	}

	s.publish(ctx, bus.TopicBusinessDiscovered, map[string]any{
		"business_id": biz.ID,
		"place_id":    biz.PlaceID,
		"name":        biz.Name,
		"search_id":   searchID,
	})

	return biz, nil
}

// Usage returns the current month's quota snapshot.
func (s *Service) Usage(ctx context.Context) (*quota.Stats, error) {
	stats, err := s.quota.Stats(ctx)
	if err != nil {
		return nil, apperrors.InternalError("reading usage stats", err)
	}
	return stats, nil
}

// History returns recent searches, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]store.Search, error) {
	searches, err := s.store.RecentSearches(ctx, limit)
	if err != nil {
		return nil, apperrors.InternalError("reading search history", err)
	}
	return searches, nil
}

func (s *Service) publish(ctx context.Context, topic string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, bus.NewEvent(topic, "search", payload)); err != nil {
		s.log.WithError(err).Warn("publishing event failed", "topic", topic)
	}
}
