package leads

import (
	"time"

	"github.com/leadscout/lead-scout/internal/store"
)

// View is the JSON presentation of a business. It is a plain shape computed
// from the storage entity; the lead score is derived on every serialization
// and never persisted.
type View struct {
	ID          int64     `json:"id"`
	PlaceID     string    `json:"place_id"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Website     string    `json:"website,omitempty"`
	Rating      *float64  `json:"rating"`
	ReviewCount *int64    `json:"review_count"`
	Categories  []string  `json:"business_types"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	LeadScore   int       `json:"lead_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewView builds the response shape for one business.
func NewView(b *store.Business) View {
	categories := b.Categories
	if categories == nil {
		categories = []string{}
	}

	return View{
		ID:          b.ID,
		PlaceID:     b.PlaceID,
		Name:        b.Name,
		Address:     b.Address,
		Phone:       b.Phone,
		Website:     b.Website,
		Rating:      b.Rating,
		ReviewCount: b.ReviewCount,
		Categories:  categories,
		Latitude:    b.Latitude,
		Longitude:   b.Longitude,
		LeadScore:   Score(b),
		CreatedAt:   b.CreatedAt,
	}
}

// NewViews builds views for a slice of businesses, preserving order.
func NewViews(businesses []store.Business) []View {
	views := make([]View, 0, len(businesses))
	for i := range businesses {
		views = append(views, NewView(&businesses[i]))
	}
	return views
}
