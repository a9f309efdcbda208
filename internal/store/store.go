// Package store provides SQLite persistence for the place catalog and for
// session-scoped filter snapshots.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/localscout/internal/filter"
)

// ErrPlaceNotFound is returned by GetPlace for an unknown ID.
var ErrPlaceNotFound = errors.New("place not found")

// Store handles SQLite persistence. Concrete type, not an interface.
// All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at dbPath. ":memory:" opens a shared
// in-memory database for tests.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS places (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		neighborhood TEXT NOT NULL DEFAULT '',
		price_tier INTEGER,
		rating REAL,
		open_now INTEGER,
		lat REAL NOT NULL DEFAULT 0,
		lng REAL NOT NULL DEFAULT 0,
		hours TEXT,
		added_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_places_category ON places(category);
	CREATE INDEX IF NOT EXISTS idx_places_name ON places(name);

	CREATE TABLE IF NOT EXISTS filter_snapshots (
		session_id TEXT NOT NULL,
		key TEXT NOT NULL,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, key)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_updated ON filter_snapshots(updated_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection. It waits for in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SavePlaces inserts or replaces places by ID and returns how many rows
// were written. Places without an ID are rejected.
func (s *Store) SavePlaces(places []Place) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(places) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO places (
			id, name, category, neighborhood, price_tier, rating, open_now,
			lat, lng, hours, added_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	count := 0
	for _, p := range places {
		if p.ID == "" {
			return 0, fmt.Errorf("save place %q: empty id", p.Name)
		}
		hours, err := encodeHours(p.Hours)
		if err != nil {
			return 0, fmt.Errorf("save place %s: %w", p.ID, err)
		}
		added := p.Added
		if added.IsZero() {
			added = now
		}

		_, err = stmt.Exec(
			p.ID,
			p.Name,
			p.Category,
			p.Neighborhood,
			nullInt(p.PriceTier),
			nullFloat(p.Rating),
			nullBool(p.Open),
			p.Lat,
			p.Lng,
			hours,
			added.UnixMilli(),
		)
		if err != nil {
			return 0, fmt.Errorf("save place %s: %w", p.ID, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}

const placeColumns = `id, name, category, neighborhood, price_tier, rating, open_now,
	lat, lng, hours, added_at`

// GetPlaces returns up to limit places ordered by name. A limit of zero or
// less returns every place.
func (s *Store) GetPlaces(limit int) ([]Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	return s.queryPlaces(`SELECT `+placeColumns+` FROM places ORDER BY name, id LIMIT ?`, limit)
}

// GetPlace returns one place, or ErrPlaceNotFound.
func (s *Store) GetPlace(id string) (Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	places, err := s.queryPlaces(`SELECT `+placeColumns+` FROM places WHERE id = ?`, id)
	if err != nil {
		return Place{}, err
	}
	if len(places) == 0 {
		return Place{}, fmt.Errorf("get place %s: %w", id, ErrPlaceNotFound)
	}
	return places[0], nil
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Store) Categories() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT DISTINCT category FROM places WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountPlaces returns the number of places in the catalog.
func (s *Store) CountPlaces() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM places`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count places: %w", err)
	}
	return n, nil
}

// queryPlaces runs query and scans the rows. Caller must hold s.mu.
func (s *Store) queryPlaces(query string, args ...any) ([]Place, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query places: %w", err)
	}
	defer rows.Close()

	var places []Place
	for rows.Next() {
		var (
			p      Place
			price  sql.NullInt64
			rating sql.NullFloat64
			open   sql.NullBool
			hours  sql.NullString
			added  int64
		)
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Category,
			&p.Neighborhood,
			&price,
			&rating,
			&open,
			&p.Lat,
			&p.Lng,
			&hours,
			&added,
		)
		if err != nil {
			return nil, err
		}
		if price.Valid {
			v := int(price.Int64)
			p.PriceTier = &v
		}
		if rating.Valid {
			v := rating.Float64
			p.Rating = &v
		}
		if open.Valid {
			v := open.Bool
			p.Open = &v
		}
		if hours.Valid && hours.String != "" {
			// A bad hours column is treated as unknown hours.
			if err := json.Unmarshal([]byte(hours.String), &p.Hours); err != nil {
				p.Hours = nil
			}
		}
		p.Added = time.UnixMilli(added)
		places = append(places, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return places, nil
}

func encodeHours(h filter.Hours) (sql.NullString, error) {
	if len(h) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode hours: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
