// Package services fetches track metadata from the streaming service's
// public track pages.
//
// # Fetcher
//
// [Fetcher] implements [TrackFetcher] by requesting the public share page
// for a track and reading the OpenGraph and music:* meta tags embedded in
// its head. No authentication is involved; the pages are the same ones a
// shared link resolves to.
//
// # Pacing and backoff
//
// Requests go through a rate limiter so bulk syncs stay under the service's
// tolerance. Failed requests retry on a growing backoff ladder; a request
// that keeps failing after the ladder is exhausted surfaces
// [shared.ErrFetchFailed].
//
// # Caching
//
// When a [repositories.FetchCache] is attached, raw page payloads are
// stored per track and replayed on later runs, so re-syncing a list only
// hits the network for new tracks.
package services

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/trackdeck/internal/repositories"
	"github.com/desertthunder/trackdeck/internal/shared"
)

// PageMetadata holds the raw field values read from one track page. Values
// are unescaped but otherwise untouched; cleanup happens downstream.
type PageMetadata struct {
	ReleaseDate string
	Title       string
	Artist      string
	Album       string
	AlbumTrack  string
	TrackURL    string
	AlbumURL    string
	ArtistURL   string
}

// TrackFetcher retrieves the metadata for a single track id.
type TrackFetcher interface {
	FetchTrack(ctx context.Context, trackID string, force bool) (*PageMetadata, error)
}

// backoffTimes is the retry ladder in seconds. Attempts past the end keep
// growing by a minute per attempt.
var backoffTimes = []int{20, 60, 120, 300, 600}

const maxAttempts = 8

// backoffDelay returns the sleep before retry number attempt (0-based).
func backoffDelay(attempt int) time.Duration {
	if attempt >= len(backoffTimes) {
		return time.Duration(backoffTimes[len(backoffTimes)-1]+60*attempt) * time.Second
	}
	return time.Duration(backoffTimes[attempt]) * time.Second
}

// Fetcher fetches track pages over HTTP.
type Fetcher struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *repositories.FetchCache
	logger     *log.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a Fetcher from the fetch configuration. client may be
// nil for http.DefaultClient; cache may be nil to disable page caching.
func NewFetcher(cfg shared.FetchConfig, client *http.Client, cache *repositories.FetchCache, logger *log.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	interval := time.Duration(cfg.SecondsPerRequest * float64(time.Second))
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return &Fetcher{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: client,
		limiter:    limiter,
		cache:      cache,
		logger:     logger,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FetchTrack retrieves the metadata for one track. Cached payloads are
// replayed unless force is set, in which case the cache entry is evicted
// and the page reloaded.
func (f *Fetcher) FetchTrack(ctx context.Context, trackID string, force bool) (*PageMetadata, error) {
	pageURL := f.baseURL + "/track/" + trackID

	if f.cache != nil {
		if force {
			if err := f.cache.Delete(trackID); err != nil {
				return nil, err
			}
		} else {
			cached, err := f.cache.Get(trackID)
			if err != nil {
				return nil, err
			}
			if cached != nil {
				f.logger.Debug("serving track page from cache", "track", trackID)
				return ParseTrackPage(cached.Body, trackID)
			}
		}
	}

	body, err := f.fetchPage(ctx, trackID, pageURL)
	if err != nil {
		return nil, err
	}

	meta, err := ParseTrackPage(body, trackID)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Put(trackID, pageURL, body); err != nil {
			return nil, err
		}
	}

	return meta, nil
}

// fetchPage requests the track page, retrying on the backoff ladder for
// transport errors and status codes of 400 and above.
func (f *Fetcher) fetchPage(ctx context.Context, trackID, pageURL string) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt - 1)
			f.logger.Warn("backing off", "track", trackID, "delay", delay)
			if err := f.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", fmt.Errorf("%w: failed to build request for %s: %v", shared.ErrFetchFailed, trackID, err)
		}
		if f.userAgent != "" {
			req.Header.Set("User-Agent", f.userAgent)
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			f.logger.Warn("request failed", "track", trackID, "error", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			f.logger.Warn("failed to read response", "track", trackID, "error", err)
			continue
		}

		if resp.StatusCode >= 400 {
			f.logger.Warn("service rejected request", "track", trackID, "status", resp.StatusCode)
			continue
		}

		return string(body), nil
	}

	return "", fmt.Errorf("%w: gave up on track %s after %d attempts", shared.ErrFetchFailed, trackID, maxAttempts)
}

var (
	metaTagRe     = regexp.MustCompile(`<meta[^>]*>`)
	metaContentRe = regexp.MustCompile(`content="([^"]*)"`)
	albumRe       = regexp.MustCompile(`· (.+?) ·`)
)

// metaContent finds the meta tag whose name or property attribute equals
// key and returns its unescaped content attribute.
func metaContent(page, key string) (string, bool) {
	needle := `="` + key + `"`
	for _, tag := range metaTagRe.FindAllString(page, -1) {
		if !strings.Contains(tag, needle) {
			continue
		}
		m := metaContentRe.FindStringSubmatch(tag)
		if m == nil {
			continue
		}
		return html.UnescapeString(m[1]), true
	}
	return "", false
}

// ParseTrackPage reads the meta tags of a track page into a PageMetadata.
// The album is buried inside the og:description text between two middle
// dots. A page missing any expected tag is treated as a fetch failure, so
// a consent wall or error page never produces a half-filled record.
func ParseTrackPage(page, trackID string) (*PageMetadata, error) {
	var meta PageMetadata
	fields := []struct {
		dest *string
		key  string
	}{
		{&meta.ReleaseDate, "music:release_date"},
		{&meta.Title, "og:title"},
		{&meta.Artist, "music:musician_description"},
		{&meta.Album, "og:description"},
		{&meta.AlbumTrack, "music:album:track"},
		{&meta.TrackURL, "og:url"},
		{&meta.AlbumURL, "music:album"},
		{&meta.ArtistURL, "music:musician"},
	}

	for _, field := range fields {
		value, ok := metaContent(page, field.key)
		if !ok {
			return nil, fmt.Errorf("%w: no %s tag on page for track %s", shared.ErrFetchFailed, field.key, trackID)
		}
		*field.dest = value
	}

	m := albumRe.FindStringSubmatch(meta.Album)
	if m == nil {
		return nil, fmt.Errorf("%w: no album in description for track %s", shared.ErrFetchFailed, trackID)
	}
	meta.Album = m[1]

	return &meta, nil
}
