package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/trackdeck/internal/shared"
	"github.com/desertthunder/trackdeck/internal/store"
	tu "github.com/desertthunder/trackdeck/internal/testing"
)

// runApp executes one command line against a fresh Runner and returns its
// plain output.
func runApp(t *testing.T, opts RunnerOpts, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	if opts.Output == nil {
		opts.Output = &buf
	}
	if opts.Logger == nil {
		logger := shared.NewLogger(&buf)
		logger.SetLevel(log.ErrorLevel)
		opts.Logger = logger
	}

	runner := NewRunner(opts)
	app := newApp(runner, opts.Logger)

	err := app.Run(context.Background(), append([]string{"trackdeck"}, args...))
	return buf.String(), err
}

func writeTestDatabase(t *testing.T, dir string) string {
	t.Helper()

	db := store.NewDatabase()
	db.Tracks["aaa"] = &store.Record{
		ReleaseDate: "1969-11-14",
		Title:       "Space Oddity - 2009 Remaster",
		TitleClean:  "Space Oddity",
		Artist:      "David Bowie",
		Album:       "David Bowie",
		TrackURL:    "https://open.spotify.com/track/aaa",
		Sets:        map[string]int{"A": 1},
	}
	db.Tracks["bbb"] = &store.Record{
		ReleaseDate: "1977-10-14",
		Title:       "Heroes",
		Artist:      "David Bowie",
		Album:       "Heroes",
		TrackURL:    "https://open.spotify.com/track/bbb",
		Sets:        map[string]int{"A": 2},
	}

	path := filepath.Join(dir, "tracks.json")
	if err := db.Save(path); err != nil {
		t.Fatalf("failed to write database: %v", err)
	}
	return path
}

func writeTestList(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write list: %v", err)
	}
	return path
}

func TestRenderCommand(t *testing.T) {
	t.Run("writes page artifacts", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := writeTestDatabase(t, dir)
		listPath := writeTestList(t, dir, "aaa;A;1\nbbb;A;2\n")
		outDir := filepath.Join(dir, "build")

		out, err := runApp(t, RunnerOpts{},
			"render", "--skip-pdf", "--output", outDir, listPath, dbPath)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(outDir, "00001a.svg"))
		tu.AssertFileExists(t, filepath.Join(outDir, "00001b.svg"))
		if !strings.Contains(out, "Rendered 2 tracks onto 1 pages") {
			t.Errorf("output = %q", out)
		}

		front := tu.MustReadFile(t, filepath.Join(outDir, "00001a.svg"))
		if !strings.Contains(front, "Space Oddity") {
			t.Error("front page should carry the cleaned title")
		}
		if strings.Contains(front, "2009 Remaster") {
			t.Error("front page should not carry the raw suffix")
		}
	})

	t.Run("selection flags narrow the deck", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := writeTestDatabase(t, dir)
		listPath := writeTestList(t, dir, "aaa;A;1\nbbb;B;2\n")
		outDir := filepath.Join(dir, "build")

		out, err := runApp(t, RunnerOpts{},
			"render", "--skip-pdf", "--set", "A", "--output", outDir, listPath, dbPath)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if !strings.Contains(out, "Rendered 1 tracks") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("repeated id keeps each occurrence's captions", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := writeTestDatabase(t, dir)
		// The same track appears in two sets; each card carries its own
		// set label.
		listPath := writeTestList(t, dir, "aaa;A;1\naaa;B;2\n")
		outDir := filepath.Join(dir, "build")

		out, err := runApp(t, RunnerOpts{},
			"render", "--skip-pdf", "--output", outDir, listPath, dbPath)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if !strings.Contains(out, "Rendered 2 tracks") {
			t.Errorf("output = %q", out)
		}

		front := tu.MustReadFile(t, filepath.Join(outDir, "00001a.svg"))
		if !strings.Contains(front, ">A<") {
			t.Error("front page should carry the first occurrence's set label")
		}
		if !strings.Contains(front, ">B<") {
			t.Error("front page should carry the second occurrence's set label")
		}
	})

	t.Run("skip filtering runs before the limit window", func(t *testing.T) {
		dir := t.TempDir()
		db := store.NewDatabase()
		db.Tracks["aaa"] = &store.Record{
			ReleaseDate: "1969-11-14", Title: "Space Oddity", Artist: "David Bowie",
			TrackURL: "https://open.spotify.com/track/aaa", Sets: map[string]int{"A": 1},
		}
		db.Tracks["ccc"] = &store.Record{
			ReleaseDate: "1972-06-16", Title: "Starman", Artist: "David Bowie",
			TrackURL: "https://open.spotify.com/track/ccc", Sets: map[string]int{"A": 2, "OWNED": 1},
		}
		db.Tracks["bbb"] = &store.Record{
			ReleaseDate: "1977-10-14", Title: "Heroes", Artist: "David Bowie",
			TrackURL: "https://open.spotify.com/track/bbb", Sets: map[string]int{"A": 3},
		}
		dbPath := filepath.Join(dir, "tracks.json")
		if err := db.Save(dbPath); err != nil {
			t.Fatalf("failed to write database: %v", err)
		}
		listPath := writeTestList(t, dir, "aaa;A;1\nccc;A;2\nbbb;A;3\n")
		outDir := filepath.Join(dir, "build")

		// The skipped track must not eat a window slot: both survivors
		// fit the limit.
		out, err := runApp(t, RunnerOpts{},
			"render", "--skip-pdf", "--skip-if-set", "OWNED", "--limit", "2",
			"--output", outDir, listPath, dbPath)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if !strings.Contains(out, "Rendered 2 tracks") {
			t.Errorf("output = %q", out)
		}

		front := tu.MustReadFile(t, filepath.Join(outDir, "00001a.svg"))
		if !strings.Contains(front, "Space Oddity") || !strings.Contains(front, "Heroes") {
			t.Error("front page should carry both surviving tracks")
		}
		if strings.Contains(front, "Starman") {
			t.Error("front page should not carry the skipped track")
		}
	})

	t.Run("sort-by-year orders the deck oldest first", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := writeTestDatabase(t, dir)
		listPath := writeTestList(t, dir, "bbb;A;1\naaa;A;2\n")
		outDir := filepath.Join(dir, "build")

		_, err := runApp(t, RunnerOpts{},
			"render", "--skip-pdf", "--sort-by-year", "--output", outDir, listPath, dbPath)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}

		// Cards fill the page in sequence order, so the 1969 track's text
		// appears before the 1977 track's in the document.
		front := tu.MustReadFile(t, filepath.Join(outDir, "00001a.svg"))
		oddity := strings.Index(front, "Space Oddity")
		heroes := strings.Index(front, "Heroes")
		if oddity < 0 || heroes < 0 {
			t.Fatal("front page should carry both tracks")
		}
		if oddity > heroes {
			t.Error("1969 track should come before the 1977 track")
		}
	})

	t.Run("broken layout config is a configuration error", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := writeTestDatabase(t, dir)
		listPath := writeTestList(t, dir, "aaa;A;1\n")

		config := shared.DefaultConfig()
		config.Layout.Rows = 0

		_, err := runApp(t, RunnerOpts{Config: config},
			"render", "--skip-pdf", "--output", filepath.Join(dir, "build"), listPath, dbPath)
		if !errors.Is(err, shared.ErrConfiguration) {
			t.Fatalf("error = %v, want ErrConfiguration", err)
		}
	})

	t.Run("unknown set renders nothing without error", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := writeTestDatabase(t, dir)
		listPath := writeTestList(t, dir, "aaa;A;1\n")

		out, err := runApp(t, RunnerOpts{},
			"render", "--skip-pdf", "--set", "Z", "--output", filepath.Join(dir, "build"), listPath, dbPath)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if !strings.Contains(out, "Nothing to render") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("missing database record is fatal", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := writeTestDatabase(t, dir)
		listPath := writeTestList(t, dir, "ghost;A;1\n")

		_, err := runApp(t, RunnerOpts{},
			"render", "--skip-pdf", "--output", filepath.Join(dir, "build"), listPath, dbPath)
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Fatalf("error = %v, want ErrTrackNotFound", err)
		}
		if !strings.Contains(err.Error(), "ghost") {
			t.Errorf("error %q should name the track", err)
		}
	})

	t.Run("missing converter fails after artifacts are written", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := writeTestDatabase(t, dir)
		listPath := writeTestList(t, dir, "aaa;A;1\n")
		outDir := filepath.Join(dir, "build")

		config := shared.DefaultConfig()
		config.Output.Converter = "definitely-not-a-real-converter"

		_, err := runApp(t, RunnerOpts{Config: config},
			"render", "--output", outDir, listPath, dbPath)
		if !errors.Is(err, shared.ErrExternalTool) {
			t.Fatalf("error = %v, want ErrExternalTool", err)
		}

		// The SVG pages stay on disk for manual recovery.
		tu.AssertFileExists(t, filepath.Join(outDir, "00001a.svg"))
		tu.AssertFileExists(t, filepath.Join(outDir, "00001b.svg"))
	})
}
