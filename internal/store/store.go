// Package store owns the on-disk track metadata database.
//
// The database is a single JSON document mapping track id to a metadata
// record. It stays hand-editable on purpose: manual override fields are how
// operators fix upstream noise, and the whole file is meant to live in
// version control. Load reads the file wholesale, Merge folds freshly
// fetched fields in without ever touching overrides, and Save writes the
// whole document back with stable key order and an atomic replace.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/trackdeck/internal/normalizer"
	"github.com/desertthunder/trackdeck/internal/shared"
)

// Record holds all persisted metadata for one track id.
//
// Field precedence for display: override if present, else cleaned value,
// else the raw upstream value. The raw fields are rewritten on every
// refetch; the override fields belong to the operator and are never written
// by Merge.
type Record struct {
	ReleaseDate    string         `json:"release_date"`
	Title          string         `json:"title"`
	TitleClean     string         `json:"title_clean,omitempty"`
	TitleOverride  string         `json:"title_override,omitempty"`
	Artist         string         `json:"artist"`
	ArtistOverride string         `json:"artist_override,omitempty"`
	Album          string         `json:"album"`
	AlbumClean     string         `json:"album_clean,omitempty"`
	AlbumOverride  string         `json:"album_override,omitempty"`
	AlbumTrack     int            `json:"album_track,omitempty"`
	TrackURL       string         `json:"track_url"`
	AlbumURL       string         `json:"album_url,omitempty"`
	ArtistURL      string         `json:"artist_url,omitempty"`
	Sets           map[string]int `json:"sets,omitempty"`
}

// ResolvedTitle returns the display title per override > clean > raw precedence.
func (r *Record) ResolvedTitle() string {
	if r.TitleOverride != "" {
		return r.TitleOverride
	}
	if r.TitleClean != "" {
		return r.TitleClean
	}
	return r.Title
}

// ResolvedArtist returns the display artist. Artists carry no cleaned
// variant, so precedence collapses to override > raw.
func (r *Record) ResolvedArtist() string {
	if r.ArtistOverride != "" {
		return r.ArtistOverride
	}
	return r.Artist
}

// ResolvedAlbum returns the display album per override > clean > raw precedence.
func (r *Record) ResolvedAlbum() string {
	if r.AlbumOverride != "" {
		return r.AlbumOverride
	}
	if r.AlbumClean != "" {
		return r.AlbumClean
	}
	return r.Album
}

// ReleaseYear parses the leading year out of the release date, which
// upstream reports as YYYY, YYYY-MM, or YYYY-MM-DD depending on the album.
func (r *Record) ReleaseYear() (int, error) {
	field, _, _ := strings.Cut(r.ReleaseDate, "-")
	year, err := strconv.Atoi(field)
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("unparseable release date %q", r.ReleaseDate)
	}
	return year, nil
}

// InSet reports whether the record belongs to the named set.
func (r *Record) InSet(setID string) bool {
	_, ok := r.Sets[setID]
	return ok
}

// RawFields is one fetched batch entry: the raw upstream values for a track
// plus the set membership the fetch run was tagged with.
type RawFields struct {
	ReleaseDate string `json:"release_date"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumTrack  int    `json:"album_track"`
	TrackURL    string `json:"track_url"`
	AlbumURL    string `json:"album_url"`
	ArtistURL   string `json:"artist_url"`
	SetID       string `json:"set_id,omitempty"`
	SetIndex    int    `json:"set_index,omitempty"`
}

// Database is the in-memory form of the track metadata file.
type Database struct {
	Tracks map[string]*Record `json:"tracks"`
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{Tracks: make(map[string]*Record)}
}

// Load reads the database file at path. A missing file yields an empty
// database; a file that exists but does not parse is fatal.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDatabase(), nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", shared.ErrStorage, path, err)
	}

	db := NewDatabase()
	if err := json.Unmarshal(data, db); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", shared.ErrStorage, path, err)
	}
	if db.Tracks == nil {
		db.Tracks = make(map[string]*Record)
	}
	return db, nil
}

// Save serializes the database with stable key order and replaces the file
// at path atomically. Repeated saves of unchanged data produce byte
// identical output, so database diffs stay reviewable.
func (db *Database) Save(path string) error {
	data, err := json.MarshalIndent(db, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: serialize %s: %v", shared.ErrStorage, path, err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp-" + shared.GenerateID()
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", shared.ErrStorage, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", shared.ErrStorage, path, err)
	}
	return nil
}

// Get returns the record for the given track id.
func (db *Database) Get(id string) (*Record, bool) {
	rec, ok := db.Tracks[id]
	return rec, ok
}

// Len returns the number of records.
func (db *Database) Len() int {
	return len(db.Tracks)
}

// IDs returns all track ids in sorted order.
func (db *Database) IDs() []string {
	ids := make([]string, 0, len(db.Tracks))
	for id := range db.Tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Merge folds a fetched batch into the database. New ids become records with
// freshly derived clean fields; existing ids get their raw fields updated
// and clean fields re-derived, while every override field and any set
// membership already recorded stays exactly as the operator left it.
//
// Merging the same batch twice is a no-op the second time, and batches over
// disjoint id sets can be merged in any order.
func (db *Database) Merge(batch map[string]RawFields, titleClean, albumClean *normalizer.Cleaner) {
	for id, rf := range batch {
		rec, ok := db.Tracks[id]
		if !ok {
			rec = &Record{}
			db.Tracks[id] = rec
		}

		rec.ReleaseDate = rf.ReleaseDate
		rec.Title = rf.Title
		rec.Artist = rf.Artist
		rec.Album = rf.Album
		rec.AlbumTrack = rf.AlbumTrack
		rec.TrackURL = rf.TrackURL
		rec.AlbumURL = rf.AlbumURL
		rec.ArtistURL = rf.ArtistURL
		rec.TitleClean = titleClean.Clean(rf.Title)
		rec.AlbumClean = albumClean.Clean(rf.Album)

		if rf.SetID != "" {
			if rec.Sets == nil {
				rec.Sets = make(map[string]int)
			}
			rec.Sets[rf.SetID] = rf.SetIndex
		}
	}
}

// AddToSet records set membership for an already known track.
func (db *Database) AddToSet(id, setID string, index int) error {
	rec, ok := db.Tracks[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	if rec.Sets == nil {
		rec.Sets = make(map[string]int)
	}
	rec.Sets[setID] = index
	return nil
}

// Reprocess re-derives every record's clean fields from its raw fields
// using the given rule sets. Overrides are untouched. Used when the cleanup
// tables change after tracks were fetched.
func (db *Database) Reprocess(titleClean, albumClean *normalizer.Cleaner) {
	for _, rec := range db.Tracks {
		rec.TitleClean = titleClean.Clean(rec.Title)
		rec.AlbumClean = albumClean.Clean(rec.Album)
	}
}
