package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trackdeck/internal/shared"
	"github.com/desertthunder/trackdeck/internal/store"
	"github.com/desertthunder/trackdeck/internal/ui"
)

const statsBarWidth = 40

// deckStats aggregates release year information for a set of records.
type deckStats struct {
	Tracks    int            `json:"tracks"`
	Unyeared  int            `json:"unyeared"`
	ByDecade  map[string]int `json:"by_decade"`
	FirstYear int            `json:"first_year,omitempty"`
	LastYear  int            `json:"last_year,omitempty"`
}

func collectStats(db *store.Database, set string) deckStats {
	stats := deckStats{ByDecade: make(map[string]int)}

	for _, id := range db.IDs() {
		rec, _ := db.Get(id)
		if set != "" && !rec.InSet(set) {
			continue
		}
		stats.Tracks++

		year, err := rec.ReleaseYear()
		if err != nil {
			stats.Unyeared++
			continue
		}

		decade := fmt.Sprintf("%d0s", year/10)
		stats.ByDecade[decade]++
		if stats.FirstYear == 0 || year < stats.FirstYear {
			stats.FirstYear = year
		}
		if year > stats.LastYear {
			stats.LastYear = year
		}
	}

	return stats
}

// Stats prints year and decade histograms for the database, optionally
// narrowed to one set. A deck heavy on a single decade makes a dull game,
// so this is the first thing to check on a new list.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	dbPath := cmd.StringArg("db")
	if dbPath == "" {
		return fmt.Errorf("%w: usage: trackdeck stats <db>", shared.ErrInvalidInput)
	}

	db, err := store.Load(dbPath)
	if err != nil {
		return err
	}

	stats := collectStats(db, cmd.String("set"))

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	title := "Deck statistics"
	if set := cmd.String("set"); set != "" {
		title = fmt.Sprintf("Deck statistics for set %q", set)
	}
	r.writePlainln("%s", ui.Title(title))
	r.writePlainln("Tracks: %d", stats.Tracks)
	if stats.Tracks == 0 {
		return nil
	}
	if stats.FirstYear != 0 {
		r.writePlainln("Years:  %d–%d", stats.FirstYear, stats.LastYear)
	}
	if stats.Unyeared > 0 {
		r.writePlainln("%s", ui.Warn(fmt.Sprintf("%d tracks without a parseable year", stats.Unyeared)))
	}
	r.writePlainln("")

	decades := make([]string, 0, len(stats.ByDecade))
	max := 0
	for decade, n := range stats.ByDecade {
		decades = append(decades, decade)
		if n > max {
			max = n
		}
	}
	sort.Strings(decades)

	for _, decade := range decades {
		n := stats.ByDecade[decade]
		bar := strings.Repeat("█", n*statsBarWidth/max)
		if bar == "" {
			bar = "▏"
		}
		r.writePlainln("%s %s %d", decade, ui.Bar(bar), n)
	}

	return nil
}
