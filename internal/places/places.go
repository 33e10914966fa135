// Package places defines the external places-search API used to discover
// businesses, and its Google Maps Platform implementation.
package places

import (
	"context"
	"errors"
)

// ErrNoResults is returned when a lookup resolves to nothing, as opposed to
// the call itself failing.
var ErrNoResults = errors.New("no results")

// LatLng is a geographic point.
type LatLng struct {
	Lat float64
	Lng float64
}

// Place is one text-search result.
type Place struct {
	PlaceID     string
	Name        string
	Address     string
	Rating      *float64
	ReviewCount *int64
	Categories  []string
	Latitude    *float64
	Longitude   *float64
}

// Details carries the per-place fields that require a separate lookup.
type Details struct {
	Phone   string
	Website string
	MapsURL string
}

// API is the upstream places service. Every method costs one call against
// the monthly quota; callers are responsible for budgeting.
type API interface {
	// Geocode resolves a free-text location to a point. ErrNoResults when
	// the location matches nothing.
	Geocode(ctx context.Context, location string) (*LatLng, error)

	// TextSearch runs a places text search around a point.
	TextSearch(ctx context.Context, query string, at LatLng, radiusMeters int) ([]Place, error)

	// Details fetches contact fields for one place.
	Details(ctx context.Context, placeID string) (*Details, error)
}
