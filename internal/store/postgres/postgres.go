// Package postgres implements store.Backend on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadscout/lead-scout/internal/store"
)

// ensure postgresBackend implements store.Backend
var _ store.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id BIGSERIAL PRIMARY KEY,
	query TEXT NOT NULL,
	location TEXT NOT NULL,
	radius_km INTEGER NOT NULL DEFAULT 10,
	results_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS businesses (
	id BIGSERIAL PRIMARY KEY,
	place_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	address TEXT,
	phone TEXT,
	website TEXT,
	rating DOUBLE PRECISION,
	review_count BIGINT,
	categories JSONB,
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	search_id BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_businesses_search_id ON businesses(search_id);

CREATE TABLE IF NOT EXISTS api_usage (
	id BIGSERIAL PRIMARY KEY,
	month TEXT NOT NULL UNIQUE,
	call_count INTEGER NOT NULL DEFAULT 0,
	last_updated TIMESTAMPTZ NOT NULL
);
`

// New creates a Postgres-backed store.Backend.
func New(ctx context.Context, dsn string) (store.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}

func (b *postgresBackend) CreateSearch(ctx context.Context, s *store.Search) error {
	s.CreatedAt = time.Now().UTC()

	err := b.pool.QueryRow(ctx, `
		INSERT INTO searches (query, location, radius_km, results_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, s.Query, s.Location, s.RadiusKm, s.ResultsCount, s.CreatedAt).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("inserting search: %w", err)
	}
	return nil
}

func (b *postgresBackend) RecentSearches(ctx context.Context, limit int) ([]store.Search, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT id, query, location, radius_km, results_count, created_at
		FROM searches ORDER BY created_at DESC, id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	var searches []store.Search
	for rows.Next() {
		var s store.Search
		if err := rows.Scan(&s.ID, &s.Query, &s.Location, &s.RadiusKm, &s.ResultsCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search: %w", err)
		}
		searches = append(searches, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating searches: %w", err)
	}
	return searches, nil
}

func (b *postgresBackend) CreateBusiness(ctx context.Context, biz *store.Business) error {
	categoriesJSON, err := json.Marshal(biz.Categories)
	if err != nil {
		return fmt.Errorf("marshalling categories: %w", err)
	}

	biz.CreatedAt = time.Now().UTC()

	err = b.pool.QueryRow(ctx, `
		INSERT INTO businesses
			(place_id, name, address, phone, website, rating, review_count,
			 categories, latitude, longitude, search_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, biz.PlaceID, biz.Name, emptyToNil(biz.Address), emptyToNil(biz.Phone),
		emptyToNil(biz.Website), biz.Rating, biz.ReviewCount, categoriesJSON,
		biz.Latitude, biz.Longitude, biz.SearchID, biz.CreatedAt).Scan(&biz.ID)
	if err != nil {
		return fmt.Errorf("inserting business: %w", err)
	}
	return nil
}

const businessColumns = `id, place_id, name, address, phone, website, rating,
	review_count, categories, latitude, longitude, search_id, created_at`

func (b *postgresBackend) BusinessByID(ctx context.Context, id int64) (*store.Business, error) {
	row := b.pool.QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id)
	return scanBusiness(row)
}

func (b *postgresBackend) BusinessByPlaceID(ctx context.Context, placeID string) (*store.Business, error) {
	row := b.pool.QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE place_id = $1`, placeID)
	return scanBusiness(row)
}

func (b *postgresBackend) ListBusinesses(ctx context.Context, f store.BusinessFilter) ([]store.Business, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := b.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM businesses`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting businesses: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+businessColumns+` FROM businesses`+where+
			` ORDER BY rating DESC NULLS LAST, id ASC LIMIT $%d OFFSET $%d`,
		len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying businesses: %w", err)
	}
	defer rows.Close()

	var businesses []store.Business
	for rows.Next() {
		biz, err := scanBusinessRow(rows)
		if err != nil {
			return nil, 0, err
		}
		businesses = append(businesses, *biz)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating businesses: %w", err)
	}
	return businesses, total, nil
}

func buildFilter(f store.BusinessFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.SearchID != 0 {
		args = append(args, f.SearchID)
		clauses = append(clauses, fmt.Sprintf("search_id = $%d", len(args)))
	}
	if f.HasWebsite != nil {
		if *f.HasWebsite {
			clauses = append(clauses, "website IS NOT NULL AND website != ''")
		} else {
			clauses = append(clauses, "(website IS NULL OR website = '')")
		}
	}
	if f.MinRating != nil {
		args = append(args, *f.MinRating)
		clauses = append(clauses, fmt.Sprintf("rating >= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (b *postgresBackend) Stats(ctx context.Context) (*store.Stats, error) {
	var s store.Stats
	err := b.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN website IS NOT NULL AND website != '' THEN 1 END)
		FROM businesses
	`).Scan(&s.Total, &s.WithWebsite)
	if err != nil {
		return nil, fmt.Errorf("counting businesses: %w", err)
	}
	return &s, nil
}

func (b *postgresBackend) Usage(ctx context.Context, month string) (*store.Usage, error) {
	u := &store.Usage{Month: month}

	err := b.pool.QueryRow(ctx, `
		SELECT call_count, last_updated FROM api_usage WHERE month = $1
	`, month).Scan(&u.CallCount, &u.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, nil
		}
		return nil, fmt.Errorf("scanning usage: %w", err)
	}
	return u, nil
}

func (b *postgresBackend) AddUsage(ctx context.Context, month string, n int) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO api_usage (month, call_count, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (month) DO UPDATE SET
			call_count = api_usage.call_count + excluded.call_count,
			last_updated = excluded.last_updated
	`, month, n, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("incrementing usage: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBusinessFrom(sc scannable) (*store.Business, error) {
	var biz store.Business
	var address, phone, website *string
	var categoriesJSON []byte

	if err := sc.Scan(&biz.ID, &biz.PlaceID, &biz.Name, &address, &phone, &website,
		&biz.Rating, &biz.ReviewCount, &categoriesJSON, &biz.Latitude, &biz.Longitude,
		&biz.SearchID, &biz.CreatedAt); err != nil {
		return nil, err
	}

	if address != nil {
		biz.Address = *address
	}
	if phone != nil {
		biz.Phone = *phone
	}
	if website != nil {
		biz.Website = *website
	}

	if len(categoriesJSON) > 0 {
		if err := json.Unmarshal(categoriesJSON, &biz.Categories); err != nil {
			return nil, fmt.Errorf("unmarshaling categories: %w", err)
		}
	}

	return &biz, nil
}

func scanBusiness(row pgx.Row) (*store.Business, error) {
	biz, err := scanBusinessFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning business: %w", err)
	}
	return biz, nil
}

func scanBusinessRow(rows pgx.Rows) (*store.Business, error) {
	biz, err := scanBusinessFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning business: %w", err)
	}
	return biz, nil
}
