package radio

import (
	"context"
	"database/sql"
	"time"

	"github.com/llehouerou/drift/internal/db"
	"github.com/llehouerou/drift/internal/playlist"
)

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS search_cache (
		query TEXT NOT NULL,
		rank INTEGER NOT NULL,
		track_id TEXT NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		source TEXT NOT NULL,
		cover TEXT,
		duration_ms INTEGER,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (query, rank)
	);
`

// Cache stores resolved search candidates in SQLite, keyed by the
// normalized suggestion.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// NewCache creates the cache table if needed.
func NewCache(conn *sql.DB, ttl time.Duration) (*Cache, error) {
	if _, err := conn.Exec(cacheSchema); err != nil {
		return nil, err
	}
	return &Cache{db: conn, ttl: ttl}, nil
}

// isExpired checks if a cached entry is expired.
func (c *Cache) isExpired(fetchedAt int64) bool {
	return fetchedAt < time.Now().Add(-c.ttl).Unix()
}

// Get returns the cached candidates for query, or nil if absent or expired.
func (c *Cache) Get(query string) ([]playlist.Track, error) {
	rows, err := c.db.Query(`
		SELECT track_id, title, artist, source, cover, duration_ms, fetched_at
		FROM search_cache
		WHERE query = ?
		ORDER BY rank ASC
	`, normalizeString(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []playlist.Track
	for rows.Next() {
		var (
			t         playlist.Track
			id        string
			cover     sql.NullString
			durMS     sql.NullInt64
			fetchedAt int64
		)
		if err := rows.Scan(&id, &t.Title, &t.Artist, &t.Source, &cover, &durMS, &fetchedAt); err != nil {
			return nil, err
		}
		if c.isExpired(fetchedAt) {
			return nil, nil
		}
		t.ID = playlist.ID(id)
		t.Cover = db.NullStringValue(cover)
		t.Duration = time.Duration(db.NullInt64Value(durMS)) * time.Millisecond
		result = append(result, t)
	}
	return result, rows.Err()
}

// Set replaces the cached candidates for query.
func (c *Cache) Set(query string, tracks []playlist.Track) error {
	key := normalizeString(query)
	return db.WithTx(context.Background(), c.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM search_cache WHERE query = ?`, key); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO search_cache (query, rank, track_id, title, artist, source, cover, duration_ms, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().Unix()
		for i, t := range tracks {
			_, err := stmt.Exec(key, i, string(t.ID), t.Title, t.Artist, t.Source,
				db.NullString(t.Cover), db.NullInt64(t.Duration.Milliseconds()), now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CleanExpired removes all expired entries.
func (c *Cache) CleanExpired() error {
	expiry := time.Now().Add(-c.ttl).Unix()
	_, err := c.db.Exec(`DELETE FROM search_cache WHERE fetched_at < ?`, expiry)
	return err
}

// Entry summarizes one cached suggestion.
type Entry struct {
	Query      string
	Candidates int
	FetchedAt  time.Time
	Expired    bool
}

// Entries lists cached suggestions, most recent first.
func (c *Cache) Entries() ([]Entry, error) {
	rows, err := c.db.Query(`
		SELECT query, COUNT(*), MAX(fetched_at)
		FROM search_cache
		GROUP BY query
		ORDER BY MAX(fetched_at) DESC, query ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			fetchedAt int64
		)
		if err := rows.Scan(&e.Query, &e.Candidates, &fetchedAt); err != nil {
			return nil, err
		}
		e.FetchedAt = time.Unix(fetchedAt, 0)
		e.Expired = c.isExpired(fetchedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every cached entry and reports how many suggestions were
// dropped.
func (c *Cache) Clear() (int, error) {
	var n int
	err := db.WithTx(context.Background(), c.db, func(tx *sql.Tx) error {
		if err := tx.QueryRow(`SELECT COUNT(DISTINCT query) FROM search_cache`).Scan(&n); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM search_cache`)
		return err
	})
	return n, err
}
