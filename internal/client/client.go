// Package client provides an HTTP client for the Lead Scout API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/leadscout/lead-scout/internal/business"
	apperrors "github.com/leadscout/lead-scout/internal/pkg/errors"
	"github.com/leadscout/lead-scout/internal/search"
	"github.com/leadscout/lead-scout/internal/server"
	"github.com/leadscout/lead-scout/internal/store"
)

// Client is an HTTP client for the Lead Scout API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config configures the client.
type Config struct {
	// BaseURL is the base URL of the API server.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080",
		Timeout: 60 * time.Second,
	}
}

// New creates a new API client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search runs a lead search.
func (c *Client) Search(ctx context.Context, req search.Request) (*search.Response, error) {
	var resp search.Response
	if err := c.post(ctx, "/api/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Usage returns the current month's quota snapshot.
func (c *Client) Usage(ctx context.Context) (*UsageResponse, error) {
	var resp UsageResponse
	if err := c.get(ctx, "/api/search/usage", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UsageResponse mirrors the usage endpoint payload.
type UsageResponse struct {
	Month          string  `json:"month"`
	CallsUsed      int     `json:"calls_used"`
	CallsLimit     int     `json:"calls_limit"`
	CallsRemaining int     `json:"calls_remaining"`
	PercentageUsed float64 `json:"percentage_used"`
}

// History returns recent searches, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]store.Search, error) {
	path := "/api/search/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var searches []store.Search
	if err := c.get(ctx, path, &searches); err != nil {
		return nil, err
	}
	return searches, nil
}

// ListFilter constrains ListBusinesses.
type ListFilter struct {
	SearchID   int64
	HasWebsite *bool
	MinRating  *float64
	Limit      int
	Offset     int
}

// ListBusinesses returns one page of stored businesses.
func (c *Client) ListBusinesses(ctx context.Context, filter ListFilter) (*business.ListResponse, error) {
	q := url.Values{}
	if filter.SearchID > 0 {
		q.Set("search_id", strconv.FormatInt(filter.SearchID, 10))
	}
	if filter.HasWebsite != nil {
		q.Set("has_website", strconv.FormatBool(*filter.HasWebsite))
	}
	if filter.MinRating != nil {
		q.Set("min_rating", strconv.FormatFloat(*filter.MinRating, 'f', -1, 64))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	path := "/api/businesses"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp business.ListResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBusiness returns one business by ID.
func (c *Client) GetBusiness(ctx context.Context, id int64) (*BusinessView, error) {
	var resp BusinessView
	if err := c.get(ctx, fmt.Sprintf("/api/businesses/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BusinessView mirrors the business payload.
type BusinessView struct {
	ID          int64    `json:"id"`
	PlaceID     string   `json:"place_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Rating      *float64 `json:"rating"`
	ReviewCount *int64   `json:"review_count"`
	LeadScore   int      `json:"lead_score"`
}

// Stats returns aggregate business statistics.
func (c *Client) Stats(ctx context.Context) (*business.StatsResponse, error) {
	var resp business.StatsResponse
	if err := c.get(ctx, "/api/businesses/stats/summary", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns the server health report.
func (c *Client) Health(ctx context.Context) (*server.HealthResponse, error) {
	var resp server.HealthResponse
	if err := c.get(ctx, "/api/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

// do executes a request, decoding error bodies into AppErrors.
func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp apperrors.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Code == "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}
		appErr := apperrors.New(errResp.Code, errResp.Error)
		appErr.Details = errResp.Details
		return appErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
