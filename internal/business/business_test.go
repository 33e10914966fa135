package business

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leadscout/lead-scout/internal/store"
	"github.com/leadscout/lead-scout/internal/store/sqlite"
)

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T) (*Service, store.Backend) {
	t.Helper()

	backend, err := sqlite.New(t.TempDir())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	return NewService(backend), backend
}

func seed(t *testing.T, backend store.Backend, placeID, website string, rating *float64, searchID int64) *store.Business {
	t.Helper()

	biz := &store.Business{
		PlaceID:  placeID,
		Name:     "Business " + placeID,
		Website:  website,
		Rating:   rating,
		SearchID: searchID,
	}
	if err := backend.CreateBusiness(context.Background(), biz); err != nil {
		t.Fatalf("seeding business: %v", err)
	}
	return biz
}

func TestList_Defaults(t *testing.T) {
	svc, backend := newTestService(t)
	for i := 0; i < 3; i++ {
		seed(t, backend, fmt.Sprintf("p%d", i), "", ptr(4.0+float64(i)/10), 1)
	}

	resp, err := svc.List(context.Background(), ListRequest{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if resp.Total != 3 {
		t.Errorf("Total = %d, want 3", resp.Total)
	}
	if resp.Limit != DefaultListLimit {
		t.Errorf("Limit = %d, want default %d", resp.Limit, DefaultListLimit)
	}
	// Rating descending.
	if resp.Businesses[0].PlaceID != "p2" {
		t.Errorf("Businesses[0].PlaceID = %s, want p2", resp.Businesses[0].PlaceID)
	}
}

func TestList_PaginationKeepsTotal(t *testing.T) {
	svc, backend := newTestService(t)
	for i := 0; i < 5; i++ {
		seed(t, backend, fmt.Sprintf("p%d", i), "", nil, 1)
	}

	resp, err := svc.List(context.Background(), ListRequest{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if resp.Total != 5 {
		t.Errorf("Total = %d, want 5 despite pagination", resp.Total)
	}
	if len(resp.Businesses) != 2 {
		t.Errorf("page size = %d, want 2", len(resp.Businesses))
	}
	if resp.Offset != 2 {
		t.Errorf("Offset = %d, want 2", resp.Offset)
	}
}

func TestList_LimitCapped(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.List(context.Background(), ListRequest{Limit: 10000})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.Limit != MaxListLimit {
		t.Errorf("Limit = %d, want cap %d", resp.Limit, MaxListLimit)
	}
}

func TestList_Filters(t *testing.T) {
	svc, backend := newTestService(t)
	seed(t, backend, "with-site", "https://a.example.com", ptr(4.5), 1)
	seed(t, backend, "no-site", "", ptr(3.0), 1)
	seed(t, backend, "other-search", "", ptr(5.0), 2)

	t.Run("has_website true", func(t *testing.T) {
		resp, err := svc.List(context.Background(), ListRequest{HasWebsite: ptr(true)})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if resp.Total != 1 || resp.Businesses[0].PlaceID != "with-site" {
			t.Errorf("unexpected result: %+v", resp)
		}
	})

	t.Run("min_rating", func(t *testing.T) {
		resp, err := svc.List(context.Background(), ListRequest{MinRating: ptr(4.0)})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if resp.Total != 2 {
			t.Errorf("Total = %d, want 2", resp.Total)
		}
	})

	t.Run("search_id", func(t *testing.T) {
		resp, err := svc.List(context.Background(), ListRequest{SearchID: 2})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if resp.Total != 1 || resp.Businesses[0].PlaceID != "other-search" {
			t.Errorf("unexpected result: %+v", resp)
		}
	})
}

func TestGet(t *testing.T) {
	svc, backend := newTestService(t)
	biz := seed(t, backend, "p1", "", ptr(4.5), 1)

	view, err := svc.Get(context.Background(), biz.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if view.PlaceID != "p1" {
		t.Errorf("PlaceID = %s, want p1", view.PlaceID)
	}
	// No website, high rating.
	if view.LeadScore != 70 {
		t.Errorf("LeadScore = %d, want 70", view.LeadScore)
	}
}

func TestStats(t *testing.T) {
	svc, backend := newTestService(t)
	seed(t, backend, "a", "https://a.example.com", nil, 1)
	seed(t, backend, "b", "", nil, 1)
	seed(t, backend, "c", "", nil, 1)

	resp, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if resp.TotalBusinesses != 3 {
		t.Errorf("TotalBusinesses = %d, want 3", resp.TotalBusinesses)
	}
	if resp.WithWebsite != 1 || resp.WithoutWebsite != 2 {
		t.Errorf("website split = %d/%d, want 1/2", resp.WithWebsite, resp.WithoutWebsite)
	}
	if resp.WebsitePercentage != 33.3 {
		t.Errorf("WebsitePercentage = %v, want 33.3", resp.WebsitePercentage)
	}
}

func TestStats_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if resp.WebsitePercentage != 0 {
		t.Errorf("WebsitePercentage = %v, want 0 for an empty store", resp.WebsitePercentage)
	}
}

func TestHandleList_QueryParams(t *testing.T) {
	svc, backend := newTestService(t)
	seed(t, backend, "with-site", "https://a.example.com", nil, 1)
	seed(t, backend, "no-site", "", nil, 1)
	handler := NewHandler(svc)

	req := httptest.NewRequest("GET", "/api/businesses?has_website=false", nil)
	w := httptest.NewRecorder()

	handler.HandleList(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp ListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 1 || resp.Businesses[0].PlaceID != "no-site" {
		t.Errorf("unexpected result: %+v", resp)
	}
}

func TestHandleList_BadParams(t *testing.T) {
	svc, _ := newTestService(t)
	handler := NewHandler(svc)

	tests := []string{
		"/api/businesses?min_rating=9",
		"/api/businesses?has_website=maybe",
		"/api/businesses?limit=0",
		"/api/businesses?offset=-1",
		"/api/businesses?search_id=abc",
		"/api/businesses?search_id=-1",
	}

	for _, url := range tests {
		req := httptest.NewRequest("GET", url, nil)
		w := httptest.NewRecorder()

		handler.HandleList(w, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", url, w.Code)
		}
	}
}

func TestHandleList_ZeroFiltersIgnored(t *testing.T) {
	svc, backend := newTestService(t)
	seed(t, backend, "rated", "", ptr(4.5), 1)
	seed(t, backend, "unrated", "", nil, 2)
	handler := NewHandler(svc)

	// min_rating=0 and search_id=0 mean no filter, so unrated rows and
	// rows from every search come back.
	req := httptest.NewRequest("GET", "/api/businesses?min_rating=0&search_id=0", nil)
	w := httptest.NewRecorder()

	handler.HandleList(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp ListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("Total = %d, want 2", resp.Total)
	}
}

func TestHandleGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	handler := NewHandler(svc)

	req := httptest.NewRequest("GET", "/api/businesses/999", nil)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()

	handler.HandleGet(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
