package leads

import (
	"testing"

	"github.com/leadscout/lead-scout/internal/store"
)

func ptr[T any](v T) *T { return &v }

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		biz  store.Business
		want int
	}{
		{
			name: "no signals besides missing website",
			biz:  store.Business{Name: "Bare"},
			want: 50,
		},
		{
			name: "website only",
			biz:  store.Business{Website: "https://example.com"},
			want: 0,
		},
		{
			name: "high rating",
			biz:  store.Business{Website: "https://example.com", Rating: ptr(4.5)},
			want: 20,
		},
		{
			name: "rating just below the floor",
			biz:  store.Business{Website: "https://example.com", Rating: ptr(3.9)},
			want: 0,
		},
		{
			name: "rating exactly at the floor",
			biz:  store.Business{Website: "https://example.com", Rating: ptr(4.0)},
			want: 20,
		},
		{
			name: "many reviews",
			biz:  store.Business{Website: "https://example.com", ReviewCount: ptr(int64(150))},
			want: 15,
		},
		{
			name: "few reviews",
			biz:  store.Business{Website: "https://example.com", ReviewCount: ptr(int64(50))},
			want: 0,
		},
		{
			name: "reviews exactly at the floor",
			biz:  store.Business{Website: "https://example.com", ReviewCount: ptr(int64(100))},
			want: 15,
		},
		{
			name: "phone only",
			biz:  store.Business{Website: "https://example.com", Phone: "+1234567890"},
			want: 15,
		},
		{
			name: "perfect lead",
			biz: store.Business{
				Rating:      ptr(4.8),
				ReviewCount: ptr(int64(200)),
				Phone:       "+1234567890",
			},
			want: 100,
		},
		{
			name: "worst lead",
			biz: store.Business{
				Website:     "https://example.com",
				Rating:      ptr(3.9),
				ReviewCount: ptr(int64(50)),
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(&tt.biz)
			if got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("Score() = %d, outside [0,100]", got)
			}
		})
	}
}

func TestScore_FullGrid(t *testing.T) {
	// Every combination of the four independent signals.
	for mask := 0; mask < 16; mask++ {
		biz := store.Business{Website: "https://example.com"}
		want := 0

		if mask&1 != 0 {
			biz.Website = ""
			want += 50
		}
		if mask&2 != 0 {
			biz.Rating = ptr(4.2)
			want += 20
		}
		if mask&4 != 0 {
			biz.ReviewCount = ptr(int64(250))
			want += 15
		}
		if mask&8 != 0 {
			biz.Phone = "+27 21 555 0100"
			want += 15
		}

		if got := Score(&biz); got != want {
			t.Errorf("mask %04b: Score() = %d, want %d", mask, got, want)
		}
	}
}

func TestNewView(t *testing.T) {
	biz := store.Business{
		ID:          7,
		PlaceID:     "place-7",
		Name:        "Test Business",
		Phone:       "+123",
		Rating:      ptr(4.5),
		ReviewCount: ptr(int64(100)),
	}

	view := NewView(&biz)

	if view.LeadScore != 100 {
		t.Errorf("LeadScore = %d, want 100", view.LeadScore)
	}
	if view.ID != 7 || view.PlaceID != "place-7" {
		t.Errorf("view lost identity: %+v", view)
	}
	if view.Categories == nil {
		t.Error("Categories should serialize as [], not null")
	}
}

func TestNewViews_PreservesOrder(t *testing.T) {
	businesses := []store.Business{
		{PlaceID: "first"},
		{PlaceID: "second"},
		{PlaceID: "third"},
	}

	views := NewViews(businesses)

	if len(views) != 3 {
		t.Fatalf("len = %d, want 3", len(views))
	}
	for i, want := range []string{"first", "second", "third"} {
		if views[i].PlaceID != want {
			t.Errorf("views[%d].PlaceID = %s, want %s", i, views[i].PlaceID, want)
		}
	}
}
