package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trackdeck/internal/repositories"
	"github.com/desertthunder/trackdeck/internal/services"
	"github.com/desertthunder/trackdeck/internal/shared"
	"github.com/desertthunder/trackdeck/internal/store"
	"github.com/desertthunder/trackdeck/internal/tracklist"
)

// Fetch syncs track metadata from the streaming service into the database.
//
// Passing "=" as the list reprocesses every record already in the database
// through the cleanup rules without touching the network, which is how a
// rule-table change propagates to existing data.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	listPath := cmd.StringArg("list")
	dbPath := cmd.StringArg("db")
	if listPath == "" || dbPath == "" {
		return fmt.Errorf("%w: usage: trackdeck fetch <list|=> <db>", shared.ErrInvalidInput)
	}

	titleClean, albumClean, err := r.cleaners()
	if err != nil {
		return err
	}

	db, err := store.Load(dbPath)
	if err != nil {
		return err
	}

	if listPath == "=" {
		r.logger.Info("reprocessing database in place", "tracks", db.Len())
		db.Reprocess(titleClean, albumClean)
		if err := db.Save(dbPath); err != nil {
			return err
		}
		r.writePlainln("Reprocessed %d tracks.", db.Len())
		return nil
	}

	entries, err := tracklist.ParseFile(listPath, cmd.String("set-id"))
	if err != nil {
		return err
	}
	if override := cmd.String("set-id-override"); override != "" {
		for i := range entries {
			entries[i].SetID = override
		}
	}

	fetcher, err := r.trackFetcher()
	if err != nil {
		return err
	}

	force := cmd.Bool("force-reload")
	reloaded := make(map[string]bool)
	var fetched, skipped, failed int

	for _, entry := range entries {
		if entry.SetID == "" {
			return fmt.Errorf("%w: track %s has no set id, use --set-id", shared.ErrInvalidInput, entry.ID)
		}

		existing, exists := db.Get(entry.ID)
		if exists && (!force || reloaded[entry.ID]) {
			if err := db.AddToSet(entry.ID, entry.SetID, entry.Index); err != nil {
				return err
			}
			r.logger.Info("skipping existing track", "track", entry.ID,
				"artist", existing.ResolvedArtist(), "title", existing.ResolvedTitle())
			skipped++
			continue
		}

		r.logger.Info("fetching track", "track", entry.ID, "set", entry.SetID)
		meta, err := fetcher.FetchTrack(ctx, entry.ID, force && exists)
		if err != nil {
			if errors.Is(err, shared.ErrFetchFailed) {
				r.logger.Warn("skipping unfetchable track", "track", entry.ID, "error", err)
				failed++
				continue
			}
			return err
		}
		reloaded[entry.ID] = true

		albumTrack, _ := strconv.Atoi(meta.AlbumTrack)
		batch := map[string]store.RawFields{
			entry.ID: {
				ReleaseDate: meta.ReleaseDate,
				Title:       meta.Title,
				Artist:      meta.Artist,
				Album:       meta.Album,
				AlbumTrack:  albumTrack,
				TrackURL:    meta.TrackURL,
				AlbumURL:    meta.AlbumURL,
				ArtistURL:   meta.ArtistURL,
				SetID:       entry.SetID,
				SetIndex:    entry.Index,
			},
		}
		db.Merge(batch, titleClean, albumClean)

		// Persist after every track so an interrupted run keeps its progress.
		if err := db.Save(dbPath); err != nil {
			return err
		}
		fetched++
	}

	db.Reprocess(titleClean, albumClean)
	if err := db.Save(dbPath); err != nil {
		return err
	}

	r.writePlainln("Fetched %d, skipped %d, failed %d. Database has %d tracks.",
		fetched, skipped, failed, db.Len())
	return nil
}

// trackFetcher returns the injected fetcher or builds the HTTP one, with
// the sqlite page cache attached when a cache path is configured.
func (r *Runner) trackFetcher() (services.TrackFetcher, error) {
	if r.fetcher != nil {
		return r.fetcher, nil
	}

	var cache *repositories.FetchCache
	if path := r.config.Fetch.CachePath; path != "" {
		conn, err := shared.NewDatabase(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open fetch cache: %v", shared.ErrStorage, err)
		}
		if cache, err = repositories.NewFetchCache(conn); err != nil {
			return nil, err
		}
	}

	logger := shared.WithLogger(r.logger, "component", "fetcher")
	return services.NewFetcher(r.config.Fetch, r.httpClient, cache, logger), nil
}
