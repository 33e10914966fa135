// Package store defines the relational storage layer for searches,
// discovered businesses, and monthly API usage counters.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("not found")

// Search is one search invocation against the places API.
type Search struct {
	ID           int64     `json:"id"`
	Query        string    `json:"query"`
	Location     string    `json:"location"`
	RadiusKm     int       `json:"radius_km"`
	ResultsCount int       `json:"results_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Business is a discovered business. PlaceID is the upstream identifier and
// is unique across all records; rows are never mutated after creation.
type Business struct {
	ID          int64
	PlaceID     string
	Name        string
	Address     string
	Phone       string
	Website     string
	Rating      *float64
	ReviewCount *int64
	Categories  []string
	Latitude    *float64
	Longitude   *float64
	SearchID    int64
	CreatedAt   time.Time
}

// HasWebsite reports whether the business has a non-empty website.
func (b *Business) HasWebsite() bool {
	return b.Website != ""
}

// Usage is the external-call counter for one calendar month.
type Usage struct {
	Month       string
	CallCount   int
	LastUpdated time.Time
}

// BusinessFilter constrains ListBusinesses.
type BusinessFilter struct {
	// SearchID filters to one search when non-zero.
	SearchID int64

	// HasWebsite filters on website presence. A false value matches rows
	// with a null or empty website.
	HasWebsite *bool

	// MinRating is an inclusive lower bound on rating.
	MinRating *float64

	Limit  int
	Offset int
}

// Stats summarizes the stored businesses.
type Stats struct {
	Total       int
	WithWebsite int
}

// Backend is the interface storage implementations satisfy.
type Backend interface {
	// CreateSearch persists a search record and fills ID and CreatedAt.
	CreateSearch(ctx context.Context, s *Search) error

	// RecentSearches returns up to limit searches, newest first.
	RecentSearches(ctx context.Context, limit int) ([]Search, error)

	// CreateBusiness persists a business record and fills ID and CreatedAt.
	// Fails if a record with the same place ID already exists.
	CreateBusiness(ctx context.Context, b *Business) error

	// BusinessByID looks up one business, ErrNotFound if absent.
	BusinessByID(ctx context.Context, id int64) (*Business, error)

	// BusinessByPlaceID looks up one business by its upstream identifier,
	// ErrNotFound if absent.
	BusinessByPlaceID(ctx context.Context, placeID string) (*Business, error)

	// ListBusinesses returns one page ordered by rating descending with
	// null ratings last, plus the total match count before pagination.
	ListBusinesses(ctx context.Context, f BusinessFilter) ([]Business, int, error)

	// Stats returns aggregate counts over all businesses.
	Stats(ctx context.Context) (*Stats, error)

	// Usage returns the counter for a month. A month with no record
	// yields a zero counter, not an error.
	Usage(ctx context.Context, month string) (*Usage, error)

	// AddUsage increments a month's counter by n, creating the record if
	// absent. The increment is a single upsert statement.
	AddUsage(ctx context.Context, month string, n int) error

	Close() error
}
