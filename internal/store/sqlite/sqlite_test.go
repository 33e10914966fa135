package sqlite

import (
	"context"
	"testing"

	"github.com/leadscout/lead-scout/internal/store"
)

func newTestBackend(t *testing.T) store.Backend {
	t.Helper()

	backend, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func ptr[T any](v T) *T { return &v }

func seedBusiness(t *testing.T, b store.Backend, placeID, website string, rating *float64, searchID int64) *store.Business {
	t.Helper()

	biz := &store.Business{
		PlaceID:    placeID,
		Name:       "Biz " + placeID,
		Website:    website,
		Rating:     rating,
		Categories: []string{"dentist"},
		SearchID:   searchID,
	}
	if err := b.CreateBusiness(context.Background(), biz); err != nil {
		t.Fatalf("CreateBusiness(%s) error = %v", placeID, err)
	}
	return biz
}

func TestCreateSearch(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	s := &store.Search{Query: "dentists", Location: "Cape Town", RadiusKm: 10, ResultsCount: 7}
	if err := backend.CreateSearch(ctx, s); err != nil {
		t.Fatalf("CreateSearch() error = %v", err)
	}

	if s.ID == 0 {
		t.Error("CreateSearch() did not assign an ID")
	}
	if s.CreatedAt.IsZero() {
		t.Error("CreateSearch() did not set CreatedAt")
	}
}

func TestRecentSearches_NewestFirst(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	for _, q := range []string{"dentists", "plumbers", "cafes"} {
		if err := backend.CreateSearch(ctx, &store.Search{Query: q, Location: "Cape Town"}); err != nil {
			t.Fatalf("CreateSearch(%s) error = %v", q, err)
		}
	}

	searches, err := backend.RecentSearches(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSearches() error = %v", err)
	}

	if len(searches) != 2 {
		t.Fatalf("RecentSearches() returned %d searches, want 2", len(searches))
	}
	if searches[0].Query != "cafes" {
		t.Errorf("first search = %s, want cafes (newest first)", searches[0].Query)
	}
}

func TestBusinessRoundTrip(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	biz := &store.Business{
		PlaceID:     "place-1",
		Name:        "Atlantic Dental",
		Address:     "1 Beach Rd",
		Phone:       "+27 21 555 0100",
		Website:     "https://atlantic.example",
		Rating:      ptr(4.6),
		ReviewCount: ptr(int64(132)),
		Categories:  []string{"dentist", "health"},
		Latitude:    ptr(-33.9),
		Longitude:   ptr(18.4),
		SearchID:    1,
	}
	if err := backend.CreateBusiness(ctx, biz); err != nil {
		t.Fatalf("CreateBusiness() error = %v", err)
	}

	got, err := backend.BusinessByID(ctx, biz.ID)
	if err != nil {
		t.Fatalf("BusinessByID() error = %v", err)
	}

	if got.PlaceID != "place-1" || got.Name != "Atlantic Dental" {
		t.Errorf("round trip lost identity: %+v", got)
	}
	if got.Rating == nil || *got.Rating != 4.6 {
		t.Errorf("Rating = %v, want 4.6", got.Rating)
	}
	if got.ReviewCount == nil || *got.ReviewCount != 132 {
		t.Errorf("ReviewCount = %v, want 132", got.ReviewCount)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "dentist" {
		t.Errorf("Categories = %v, want [dentist health]", got.Categories)
	}
	if got.Latitude == nil || *got.Latitude != -33.9 {
		t.Errorf("Latitude = %v, want -33.9", got.Latitude)
	}
}

func TestBusinessNullFields(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	seedBusiness(t, backend, "bare", "", nil, 1)

	got, err := backend.BusinessByPlaceID(ctx, "bare")
	if err != nil {
		t.Fatalf("BusinessByPlaceID() error = %v", err)
	}

	if got.Website != "" || got.Phone != "" {
		t.Errorf("empty strings expected for absent fields, got %+v", got)
	}
	if got.Rating != nil || got.ReviewCount != nil {
		t.Errorf("nil expected for absent numeric fields, got %+v", got)
	}
}

func TestPlaceIDUnique(t *testing.T) {
	backend := newTestBackend(t)

	seedBusiness(t, backend, "dup", "", nil, 1)

	dup := &store.Business{PlaceID: "dup", Name: "Copy", SearchID: 2}
	if err := backend.CreateBusiness(context.Background(), dup); err == nil {
		t.Error("CreateBusiness() with duplicate place_id should fail")
	}
}

func TestBusinessByID_NotFound(t *testing.T) {
	backend := newTestBackend(t)

	_, err := backend.BusinessByID(context.Background(), 999)
	if err != store.ErrNotFound {
		t.Errorf("BusinessByID(999) error = %v, want ErrNotFound", err)
	}
}

func TestListBusinesses_Filters(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	seedBusiness(t, backend, "a", "https://a.example", ptr(4.8), 1)
	seedBusiness(t, backend, "b", "", ptr(3.5), 1)
	seedBusiness(t, backend, "c", "https://c.example", ptr(4.1), 2)
	seedBusiness(t, backend, "d", "", nil, 2)

	t.Run("no filter orders by rating with nulls last", func(t *testing.T) {
		businesses, total, err := backend.ListBusinesses(ctx, store.BusinessFilter{Limit: 10})
		if err != nil {
			t.Fatalf("ListBusinesses() error = %v", err)
		}
		if total != 4 {
			t.Errorf("total = %d, want 4", total)
		}
		want := []string{"a", "c", "b", "d"}
		for i, biz := range businesses {
			if biz.PlaceID != want[i] {
				t.Errorf("position %d = %s, want %s", i, biz.PlaceID, want[i])
			}
		}
	})

	t.Run("search_id", func(t *testing.T) {
		_, total, err := backend.ListBusinesses(ctx, store.BusinessFilter{SearchID: 1, Limit: 10})
		if err != nil {
			t.Fatalf("ListBusinesses() error = %v", err)
		}
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
	})

	t.Run("has_website true", func(t *testing.T) {
		businesses, _, err := backend.ListBusinesses(ctx, store.BusinessFilter{HasWebsite: ptr(true), Limit: 10})
		if err != nil {
			t.Fatalf("ListBusinesses() error = %v", err)
		}
		if len(businesses) != 2 {
			t.Errorf("got %d businesses, want 2", len(businesses))
		}
	})

	t.Run("has_website false matches empty", func(t *testing.T) {
		businesses, _, err := backend.ListBusinesses(ctx, store.BusinessFilter{HasWebsite: ptr(false), Limit: 10})
		if err != nil {
			t.Fatalf("ListBusinesses() error = %v", err)
		}
		if len(businesses) != 2 {
			t.Errorf("got %d businesses, want 2", len(businesses))
		}
	})

	t.Run("min_rating", func(t *testing.T) {
		businesses, total, err := backend.ListBusinesses(ctx, store.BusinessFilter{MinRating: ptr(4.0), Limit: 10})
		if err != nil {
			t.Fatalf("ListBusinesses() error = %v", err)
		}
		if total != 2 || len(businesses) != 2 {
			t.Errorf("total = %d, page = %d, want 2 and 2", total, len(businesses))
		}
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		businesses, total, err := backend.ListBusinesses(ctx, store.BusinessFilter{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("ListBusinesses() error = %v", err)
		}
		if total != 4 {
			t.Errorf("total = %d, want 4 regardless of limit", total)
		}
		if len(businesses) != 1 {
			t.Fatalf("page size = %d, want 1", len(businesses))
		}
		if businesses[0].PlaceID != "c" {
			t.Errorf("offset 1 = %s, want c", businesses[0].PlaceID)
		}
	})
}

func TestStats(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	stats, err := backend.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 0 || stats.WithWebsite != 0 {
		t.Errorf("empty store stats = %+v, want zeros", stats)
	}

	seedBusiness(t, backend, "a", "https://a.example", nil, 1)
	seedBusiness(t, backend, "b", "https://b.example", nil, 1)
	seedBusiness(t, backend, "c", "https://c.example", nil, 1)
	seedBusiness(t, backend, "d", "", nil, 1)

	stats, err = backend.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("Total = %d, want 4", stats.Total)
	}
	if stats.WithWebsite != 3 {
		t.Errorf("WithWebsite = %d, want 3", stats.WithWebsite)
	}
}

func TestUsage(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	t.Run("absent month reads as zero", func(t *testing.T) {
		u, err := backend.Usage(ctx, "2026-01")
		if err != nil {
			t.Fatalf("Usage() error = %v", err)
		}
		if u.CallCount != 0 {
			t.Errorf("CallCount = %d, want 0", u.CallCount)
		}
		if u.Month != "2026-01" {
			t.Errorf("Month = %s, want 2026-01", u.Month)
		}
	})

	t.Run("increments accumulate", func(t *testing.T) {
		if err := backend.AddUsage(ctx, "2026-01", 2); err != nil {
			t.Fatalf("AddUsage() error = %v", err)
		}
		if err := backend.AddUsage(ctx, "2026-01", 1); err != nil {
			t.Fatalf("AddUsage() error = %v", err)
		}

		u, err := backend.Usage(ctx, "2026-01")
		if err != nil {
			t.Fatalf("Usage() error = %v", err)
		}
		if u.CallCount != 3 {
			t.Errorf("CallCount = %d, want 3", u.CallCount)
		}
		if u.LastUpdated.IsZero() {
			t.Error("LastUpdated not set")
		}
	})

	t.Run("months are independent", func(t *testing.T) {
		u, err := backend.Usage(ctx, "2026-02")
		if err != nil {
			t.Fatalf("Usage() error = %v", err)
		}
		if u.CallCount != 0 {
			t.Errorf("CallCount = %d, want 0 for a fresh month", u.CallCount)
		}
	})
}
