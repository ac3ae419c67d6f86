// Package tracklist parses track list files and selects the ordered
// subsequence of tracks a render run covers.
//
// A list file carries one track per line as `id`, `id;set`, or
// `id;set;index`. Blank lines and `#` comments are skipped. Line order is
// load-bearing: it fixes the card order of the deck.
package tracklist

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/trackdeck/internal/shared"
	"github.com/desertthunder/trackdeck/internal/store"
)

// Entry is one parsed track list line.
type Entry struct {
	ID    string
	SetID string
	Index int
}

// ParseFile reads a track list file. defaultSet is used for lines that do
// not name a set themselves; it may be empty.
func ParseFile(path, defaultSet string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open track list %s: %v", shared.ErrInvalidInput, path, err)
	}
	defer f.Close()

	entries, err := Parse(f, defaultSet)
	if err != nil {
		return nil, fmt.Errorf("track list %s: %w", path, err)
	}
	return entries, nil
}

// Parse reads `id;set;index` lines from r. The position index defaults to
// the 1-based position of the line among the surviving entries.
func Parse(r io.Reader, defaultSet string) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.Split(line, ";")
		entry := Entry{ID: strings.TrimSpace(tokens[0]), SetID: defaultSet, Index: len(entries) + 1}
		if len(tokens) > 1 && strings.TrimSpace(tokens[1]) != "" {
			entry.SetID = strings.TrimSpace(tokens[1])
		}
		if len(tokens) > 2 {
			idx, err := strconv.Atoi(strings.TrimSpace(tokens[2]))
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad set index %q", shared.ErrInvalidInput, lineNo, tokens[2])
			}
			entry.Index = idx
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read track list: %v", shared.ErrInvalidInput, err)
	}

	return entries, nil
}

// SelectionSpec narrows the parsed list down to the tracks to render.
// A zero Offset skips nothing, a zero Limit means no limit, and an empty
// Set keeps every set.
type SelectionSpec struct {
	Set    string
	Offset int
	Limit  int
}

// FilterSet retains the entries whose set matches exactly, preserving their
// relative order. An empty set name keeps everything.
func FilterSet(entries []Entry, set string) []Entry {
	if set == "" {
		return entries
	}
	var kept []Entry
	for _, e := range entries {
		if e.SetID == set {
			kept = append(kept, e)
		}
	}
	return kept
}

// Window applies offset and limit to an ordered slice. Offsets past the end
// yield an empty result rather than an error.
func Window[T any](xs []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(xs) {
		return nil
	}
	xs = xs[offset:]
	if limit > 0 && limit < len(xs) {
		xs = xs[:limit]
	}
	return xs
}

// Select applies the whole spec: set filter, then offset, then limit.
func Select(entries []Entry, spec SelectionSpec) []Entry {
	return Window(FilterSet(entries, spec.Set), spec.Offset, spec.Limit)
}

// Track is a fully resolved card-ready track: display values chosen by
// override precedence, year parsed, set label already aliased.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	Year     int
	TrackURL string
	Set      string
	SetIndex int
}

// ResolveOptions tune how entries are resolved against the database.
type ResolveOptions struct {
	// Alias replaces the set name printed on cards.
	Alias string
	// SkipSets drops tracks that are also members of any named set,
	// typically when printing a booster for decks the operator already owns.
	SkipSets []string
	// Fuzzy extends SkipSets matching from ids to resolved title+artist
	// pairs, catching re-releases with distinct ids.
	Fuzzy bool
}

// Resolve maps entries to resolved tracks. Every entry must have a database
// record: a card cannot be rendered without at least a title, so a missing
// id is a fatal configuration error naming the id rather than a silent skip.
func Resolve(entries []Entry, db *store.Database, opts ResolveOptions) ([]Track, error) {
	fuzzyDupes := make(map[string][]string)
	if opts.Fuzzy && len(opts.SkipSets) > 0 {
		for _, id := range db.IDs() {
			rec, _ := db.Get(id)
			for _, set := range opts.SkipSets {
				if rec.InSet(set) {
					key := fuzzyKey(rec.ResolvedTitle(), rec.ResolvedArtist())
					fuzzyDupes[key] = append(fuzzyDupes[key], set)
					break
				}
			}
		}
	}

	tracks := make([]Track, 0, len(entries))
	for _, entry := range entries {
		rec, ok := db.Get(entry.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %w: %s", shared.ErrConfiguration, shared.ErrTrackNotFound, entry.ID)
		}

		if skip := memberOf(rec, opts.SkipSets); skip != "" {
			continue
		}

		year, err := rec.ReleaseYear()
		if err != nil {
			return nil, fmt.Errorf("%w: track %s: %v", shared.ErrConfiguration, entry.ID, err)
		}

		track := Track{
			ID:       entry.ID,
			Title:    rec.ResolvedTitle(),
			Artist:   rec.ResolvedArtist(),
			Album:    rec.ResolvedAlbum(),
			Year:     year,
			TrackURL: rec.TrackURL,
			Set:      entry.SetID,
			SetIndex: entry.Index,
		}
		if opts.Alias != "" {
			track.Set = opts.Alias
		}

		if len(fuzzyDupes[fuzzyKey(track.Title, track.Artist)]) > 0 {
			continue
		}

		tracks = append(tracks, track)
	}
	return tracks, nil
}

func memberOf(rec *store.Record, sets []string) string {
	for _, set := range sets {
		if rec.InSet(set) {
			return set
		}
	}
	return ""
}

func fuzzyKey(title, artist string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(artist))
}

// SortByYear orders tracks by release year in place, oldest first. Ties
// keep their list order, so a sorted deck still follows the list within a
// year.
func SortByYear(tracks []Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Year < tracks[j].Year
	})
}

// Shuffle permutes tracks in place so a cut deck comes out pre-shuffled.
func Shuffle(tracks []Track) {
	rand.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
}
