package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/trackdeck/internal/shared"
)

// CachedPage is one stored fetch response.
type CachedPage struct {
	TrackID   string
	URL       string
	Body      string
	FetchedAt time.Time
}

// FetchCache persists raw page payloads keyed by track id so repeated sync
// runs do not re-hit the remote service. Misses return (nil, nil); a cached
// row can be bypassed by deleting it before the fetch.
type FetchCache struct {
	db *sql.DB
}

// NewFetchCache creates a FetchCache on the given connection, creating the
// schema if it does not exist yet.
func NewFetchCache(db *sql.DB) (*FetchCache, error) {
	query := `
		CREATE TABLE IF NOT EXISTS fetch_cache (
			track_id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			body TEXT NOT NULL,
			fetched_at TIMESTAMP NOT NULL
		)
	`

	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("%w: failed to create fetch cache schema: %v", shared.ErrStorage, err)
	}

	return &FetchCache{db: db}, nil
}

// Get retrieves the cached page for a track id. A miss is not an error.
func (c *FetchCache) Get(trackID string) (*CachedPage, error) {
	query := `
		SELECT track_id, url, body, fetched_at
		FROM fetch_cache
		WHERE track_id = ?
	`

	var page CachedPage
	err := c.db.QueryRow(query, trackID).Scan(&page.TrackID, &page.URL, &page.Body, &page.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read fetch cache: %v", shared.ErrStorage, err)
	}

	return &page, nil
}

// Put stores a fetched page, replacing any previous payload for the track.
func (c *FetchCache) Put(trackID, url, body string) error {
	query := `
		INSERT OR REPLACE INTO fetch_cache (track_id, url, body, fetched_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := c.db.Exec(query, trackID, url, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: failed to cache page for %s: %v", shared.ErrStorage, trackID, err)
	}

	return nil
}

// Delete evicts one track's cached page, forcing the next fetch to reload.
func (c *FetchCache) Delete(trackID string) error {
	if _, err := c.db.Exec("DELETE FROM fetch_cache WHERE track_id = ?", trackID); err != nil {
		return fmt.Errorf("%w: failed to evict %s from fetch cache: %v", shared.ErrStorage, trackID, err)
	}
	return nil
}

// Len returns the number of cached pages.
func (c *FetchCache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM fetch_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: failed to count fetch cache: %v", shared.ErrStorage, err)
	}
	return n, nil
}
