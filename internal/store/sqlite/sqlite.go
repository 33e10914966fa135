// Package sqlite implements store.Backend on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/leadscout/lead-scout/internal/store"
)

// ensure sqliteBackend implements store.Backend
var _ store.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT NOT NULL,
	location TEXT NOT NULL,
	radius_km INTEGER NOT NULL DEFAULT 10,
	results_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS businesses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	place_id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	address TEXT,
	phone TEXT,
	website TEXT,
	rating REAL,
	review_count INTEGER,
	categories TEXT,
	latitude REAL,
	longitude REAL,
	search_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_businesses_search_id ON businesses(search_id);

CREATE TABLE IF NOT EXISTS api_usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	month TEXT NOT NULL UNIQUE,
	call_count INTEGER NOT NULL DEFAULT 0,
	last_updated DATETIME NOT NULL
);
`

// New creates a SQLite-backed store.Backend under dataDir.
func New(dataDir string) (store.Backend, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "leadscout.db")

	// WAL mode for concurrent request handling
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

func (b *sqliteBackend) CreateSearch(ctx context.Context, s *store.Search) error {
	s.CreatedAt = time.Now().UTC()

	res, err := b.db.ExecContext(ctx, `
		INSERT INTO searches (query, location, radius_km, results_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.Query, s.Location, s.RadiusKm, s.ResultsCount, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting search: %w", err)
	}

	s.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading search id: %w", err)
	}
	return nil
}

func (b *sqliteBackend) RecentSearches(ctx context.Context, limit int) ([]store.Search, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, query, location, radius_km, results_count, created_at
		FROM searches ORDER BY created_at DESC, id DESC LIMIT ?
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

func (b *sqliteBackend) CreateBusiness(ctx context.Context, biz *store.Business) error {
	categoriesJSON, err := json.Marshal(biz.Categories)
	if err != nil {
		return fmt.Errorf("marshalling categories: %w", err)
	}

	biz.CreatedAt = time.Now().UTC()

	res, err := b.db.ExecContext(ctx, `
		INSERT INTO businesses
			(place_id, name, address, phone, website, rating, review_count,
			 categories, latitude, longitude, search_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, biz.PlaceID, biz.Name, nullString(biz.Address), nullString(biz.Phone),
		nullString(biz.Website), biz.Rating, biz.ReviewCount, string(categoriesJSON),
		biz.Latitude, biz.Longitude, biz.SearchID, biz.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting business: %w", err)
	}

	biz.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading business id: %w", err)
	}
	return nil
}

const businessColumns = `id, place_id, name, address, phone, website, rating,
	review_count, categories, latitude, longitude, search_id, created_at`

func (b *sqliteBackend) BusinessByID(ctx context.Context, id int64) (*store.Business, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id)
	return scanBusiness(row)
}

func (b *sqliteBackend) BusinessByPlaceID(ctx context.Context, placeID string) (*store.Business, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE place_id = ?`, placeID)
	return scanBusiness(row)
}

func (b *sqliteBackend) ListBusinesses(ctx context.Context, f store.BusinessFilter) ([]store.Business, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM businesses`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting businesses: %w", err)
	}

	// rating IS NULL sorts false before true, putting unrated rows last
	query := `SELECT ` + businessColumns + ` FROM businesses` + where +
		` ORDER BY rating IS NULL, rating DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying businesses: %w", err)
	}
	defer rows.Close()

	var businesses []store.Business
	for rows.Next() {
		biz, err := scanBusinessRows(rows)
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
		clauses = append(clauses, "search_id = ?")
		args = append(args, f.SearchID)
	}
	if f.HasWebsite != nil {
		if *f.HasWebsite {
			clauses = append(clauses, "website IS NOT NULL AND website != ''")
		} else {
			clauses = append(clauses, "(website IS NULL OR website = '')")
		}
	}
	if f.MinRating != nil {
		clauses = append(clauses, "rating >= ?")
		args = append(args, *f.MinRating)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (b *sqliteBackend) Stats(ctx context.Context) (*store.Stats, error) {
	var s store.Stats
	err := b.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(CASE WHEN website IS NOT NULL AND website != '' THEN 1 END)
		FROM businesses
	`).Scan(&s.Total, &s.WithWebsite)
	if err != nil {
		return nil, fmt.Errorf("counting businesses: %w", err)
	}
	return &s, nil
}

func (b *sqliteBackend) Usage(ctx context.Context, month string) (*store.Usage, error) {
	u := &store.Usage{Month: month}

	row := b.db.QueryRowContext(ctx, `
		SELECT call_count, last_updated FROM api_usage WHERE month = ?
	`, month)
	if err := row.Scan(&u.CallCount, &u.LastUpdated); err != nil {
		if err == sql.ErrNoRows {
			return u, nil
		}
		return nil, fmt.Errorf("scanning usage: %w", err)
	}
	return u, nil
}

func (b *sqliteBackend) AddUsage(ctx context.Context, month string, n int) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO api_usage (month, call_count, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET
			call_count = call_count + excluded.call_count,
			last_updated = excluded.last_updated
	`, month, n, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("incrementing usage: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBusinessFrom(sc scannable) (*store.Business, error) {
	var biz store.Business
	var address, phone, website sql.NullString
	var rating, latitude, longitude sql.NullFloat64
	var reviewCount sql.NullInt64
	var categoriesJSON sql.NullString

	if err := sc.Scan(&biz.ID, &biz.PlaceID, &biz.Name, &address, &phone, &website,
		&rating, &reviewCount, &categoriesJSON, &latitude, &longitude,
		&biz.SearchID, &biz.CreatedAt); err != nil {
		return nil, err
	}

	biz.Address = address.String
	biz.Phone = phone.String
	biz.Website = website.String
	if rating.Valid {
		biz.Rating = &rating.Float64
	}
	if reviewCount.Valid {
		biz.ReviewCount = &reviewCount.Int64
	}
	if latitude.Valid {
		biz.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		biz.Longitude = &longitude.Float64
	}

	if categoriesJSON.Valid && categoriesJSON.String != "" {
		if err := json.Unmarshal([]byte(categoriesJSON.String), &biz.Categories); err != nil {
			return nil, fmt.Errorf("unmarshaling categories: %w", err)
		}
	}

	return &biz, nil
}

func scanBusiness(row *sql.Row) (*store.Business, error) {
	biz, err := scanBusinessFrom(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scanning business: %w", err)
	}
	return biz, nil
}

func scanBusinessRows(rows *sql.Rows) (*store.Business, error) {
	biz, err := scanBusinessFrom(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning business: %w", err)
	}
	return biz, nil
}
