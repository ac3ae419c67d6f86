package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/trackdeck/internal/services"
	"github.com/desertthunder/trackdeck/internal/shared"
	"github.com/desertthunder/trackdeck/internal/store"
)

// mockFetcher hands out canned metadata and records every fetch.
type mockFetcher struct {
	pages  map[string]*services.PageMetadata
	calls  []string
	forced []string
}

func (m *mockFetcher) FetchTrack(ctx context.Context, trackID string, force bool) (*services.PageMetadata, error) {
	m.calls = append(m.calls, trackID)
	if force {
		m.forced = append(m.forced, trackID)
	}
	page, ok := m.pages[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: no such track %s", shared.ErrFetchFailed, trackID)
	}
	return page, nil
}

func fetchPages() map[string]*services.PageMetadata {
	return map[string]*services.PageMetadata{
		"aaa": {
			ReleaseDate: "1969-11-14",
			Title:       "Space Oddity - 2009 Remaster",
			Artist:      "David Bowie",
			Album:       "David Bowie (2009 Remaster)",
			AlbumTrack:  "1",
			TrackURL:    "https://open.spotify.com/track/aaa",
			AlbumURL:    "https://open.spotify.com/album/x",
			ArtistURL:   "https://open.spotify.com/artist/y",
		},
		"bbb": {
			ReleaseDate: "1977",
			Title:       "Heroes",
			Artist:      "David Bowie",
			Album:       "Heroes",
			AlbumTrack:  "3",
			TrackURL:    "https://open.spotify.com/track/bbb",
			AlbumURL:    "https://open.spotify.com/album/x",
			ArtistURL:   "https://open.spotify.com/artist/y",
		},
	}
}

func TestFetchCommand(t *testing.T) {
	t.Run("fetches new tracks and cleans fields", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "tracks.json")
		listPath := writeTestList(t, dir, "aaa\nbbb\n")
		fetcher := &mockFetcher{pages: fetchPages()}

		out, err := runApp(t, RunnerOpts{Fetcher: fetcher},
			"fetch", "--set-id", "A", listPath, dbPath)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if !strings.Contains(out, "Fetched 2, skipped 0, failed 0") {
			t.Errorf("output = %q", out)
		}

		db, err := store.Load(dbPath)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		rec, ok := db.Get("aaa")
		if !ok {
			t.Fatal("track aaa missing from database")
		}
		if rec.TitleClean != "Space Oddity" {
			t.Errorf("title_clean = %q", rec.TitleClean)
		}
		if rec.Sets["A"] != 1 {
			t.Errorf("sets = %v, want A:1", rec.Sets)
		}
		if rec2, _ := db.Get("bbb"); rec2.Sets["A"] != 2 {
			t.Errorf("bbb sets = %v, want A:2", rec2.Sets)
		}
	})

	t.Run("skips existing tracks but records set membership", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "tracks.json")
		fetcher := &mockFetcher{pages: fetchPages()}

		listA := writeTestList(t, dir, "aaa\n")
		if _, err := runApp(t, RunnerOpts{Fetcher: fetcher}, "fetch", "--set-id", "A", listA, dbPath); err != nil {
			t.Fatalf("first fetch failed: %v", err)
		}

		listB := writeTestList(t, dir, "aaa\n")
		out, err := runApp(t, RunnerOpts{Fetcher: fetcher}, "fetch", "--set-id", "B", listB, dbPath)
		if err != nil {
			t.Fatalf("second fetch failed: %v", err)
		}
		if !strings.Contains(out, "skipped 1") {
			t.Errorf("output = %q", out)
		}
		if len(fetcher.calls) != 1 {
			t.Errorf("fetches = %v, want one", fetcher.calls)
		}

		db, _ := store.Load(dbPath)
		rec, _ := db.Get("aaa")
		if rec.Sets["A"] != 1 || rec.Sets["B"] != 1 {
			t.Errorf("sets = %v, want membership in A and B", rec.Sets)
		}
	})

	t.Run("force reload refetches but preserves overrides", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "tracks.json")
		fetcher := &mockFetcher{pages: fetchPages()}

		list := writeTestList(t, dir, "aaa\n")
		if _, err := runApp(t, RunnerOpts{Fetcher: fetcher}, "fetch", "--set-id", "A", list, dbPath); err != nil {
			t.Fatalf("first fetch failed: %v", err)
		}

		db, _ := store.Load(dbPath)
		rec, _ := db.Get("aaa")
		rec.TitleOverride = "Space Oddity (Mono)"
		if err := db.Save(dbPath); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		if _, err := runApp(t, RunnerOpts{Fetcher: fetcher}, "fetch", "--set-id", "A", "--force-reload", list, dbPath); err != nil {
			t.Fatalf("forced fetch failed: %v", err)
		}
		if len(fetcher.forced) != 1 {
			t.Errorf("forced fetches = %v, want one", fetcher.forced)
		}

		db, _ = store.Load(dbPath)
		rec, _ = db.Get("aaa")
		if rec.TitleOverride != "Space Oddity (Mono)" {
			t.Errorf("override = %q, want preserved", rec.TitleOverride)
		}
		if rec.ResolvedTitle() != "Space Oddity (Mono)" {
			t.Errorf("resolved title = %q", rec.ResolvedTitle())
		}
	})

	t.Run("unfetchable tracks are skipped not fatal", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "tracks.json")
		fetcher := &mockFetcher{pages: fetchPages()}
		list := writeTestList(t, dir, "aaa\nghost\nbbb\n")

		out, err := runApp(t, RunnerOpts{Fetcher: fetcher}, "fetch", "--set-id", "A", list, dbPath)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if !strings.Contains(out, "Fetched 2, skipped 0, failed 1") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("set id override wins over list sets", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "tracks.json")
		fetcher := &mockFetcher{pages: fetchPages()}
		list := writeTestList(t, dir, "aaa;A;1\n")

		if _, err := runApp(t, RunnerOpts{Fetcher: fetcher},
			"fetch", "--set-id-override", "X", list, dbPath); err != nil {
			t.Fatalf("fetch failed: %v", err)
		}

		db, _ := store.Load(dbPath)
		rec, _ := db.Get("aaa")
		if _, inA := rec.Sets["A"]; inA {
			t.Errorf("sets = %v, override should replace A", rec.Sets)
		}
		if rec.Sets["X"] != 1 {
			t.Errorf("sets = %v, want X:1", rec.Sets)
		}
	})

	t.Run("missing set id is fatal", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "tracks.json")
		list := writeTestList(t, dir, "aaa\n")

		_, err := runApp(t, RunnerOpts{Fetcher: &mockFetcher{pages: fetchPages()}}, "fetch", list, dbPath)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("reprocess mode re-derives clean fields", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, "tracks.json")

		db := store.NewDatabase()
		db.Tracks["aaa"] = &store.Record{
			ReleaseDate: "1969-11-14",
			Title:       "Space Oddity - Radio Edit",
			TitleClean:  "stale value",
			Artist:      "David Bowie",
			Album:       "David Bowie (Deluxe Edition)",
			TrackURL:    "https://open.spotify.com/track/aaa",
			Sets:        map[string]int{"A": 1},
		}
		if err := db.Save(dbPath); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		out, err := runApp(t, RunnerOpts{}, "fetch", "=", dbPath)
		if err != nil {
			t.Fatalf("reprocess failed: %v", err)
		}
		if !strings.Contains(out, "Reprocessed 1 tracks") {
			t.Errorf("output = %q", out)
		}

		db, _ = store.Load(dbPath)
		rec, _ := db.Get("aaa")
		if rec.TitleClean != "Space Oddity" {
			t.Errorf("title_clean = %q", rec.TitleClean)
		}
		if rec.AlbumClean != "David Bowie" {
			t.Errorf("album_clean = %q", rec.AlbumClean)
		}
	})
}
