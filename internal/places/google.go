package places

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

// ensure GoogleClient implements API
var _ API = (*GoogleClient)(nil)

// GoogleClient implements API against the Google Maps Platform web services.
type GoogleClient struct {
	client  *maps.Client
	limiter *rate.Limiter
}

// NewGoogleClient creates a Google-backed places client. qps bounds outbound
// calls so a burst of searches cannot hammer the upstream.
func NewGoogleClient(apiKey string, qps int) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("places API key not configured")
	}
	if qps <= 0 {
		qps = 10
	}

	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}

	return &GoogleClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(qps), qps),
	}, nil
}

func (g *GoogleClient) Geocode(ctx context.Context, location string) (*LatLng, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: location})
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	loc := results[0].Geometry.Location
	return &LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (g *GoogleClient) TextSearch(ctx context.Context, query string, at LatLng, radiusMeters int) ([]Place, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := g.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Location: &maps.LatLng{Lat: at.Lat, Lng: at.Lng},
		Radius:   uint(radiusMeters),
	})
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	places := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, fromSearchResult(r))
	}
	return places, nil
}

func (g *GoogleClient) Details(ctx context.Context, placeID string) (*Details, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
			maps.PlaceDetailsFieldMaskWebsite,
			maps.PlaceDetailsFieldMaskURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}

	return &Details{
		Phone:   resp.FormattedPhoneNumber,
		Website: resp.Website,
		MapsURL: resp.URL,
	}, nil
}

// fromSearchResult maps the upstream result shape to ours. The upstream
// reports absent rating/review fields as zero values.
func fromSearchResult(r maps.PlacesSearchResult) Place {
	p := Place{
		PlaceID:    r.PlaceID,
		Name:       r.Name,
		Address:    r.FormattedAddress,
		Categories: r.Types,
	}

	if r.Rating > 0 {
		rating := float64(r.Rating)
		p.Rating = &rating
	}
	if r.UserRatingsTotal > 0 {
		reviews := int64(r.UserRatingsTotal)
		p.ReviewCount = &reviews
	}

	loc := r.Geometry.Location
	if loc.Lat != 0 || loc.Lng != 0 {
		lat, lng := loc.Lat, loc.Lng
		p.Latitude = &lat
		p.Longitude = &lng
	}

	return p
}
