package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trackdeck/internal/shared"
	"github.com/desertthunder/trackdeck/internal/store"
)

// Merge folds a JSON batch of raw track fields into the database. The
// batch is whatever an external fetch collaborator produced: a mapping
// from track id to raw field values.
func (r *Runner) Merge(ctx context.Context, cmd *cli.Command) error {
	dbPath := cmd.StringArg("db")
	batchPath := cmd.StringArg("batch")
	if dbPath == "" || batchPath == "" {
		return fmt.Errorf("%w: usage: trackdeck merge <db> <batch>", shared.ErrInvalidInput)
	}

	data, err := os.ReadFile(batchPath)
	if err != nil {
		return fmt.Errorf("%w: failed to read batch file %s: %v", shared.ErrStorage, batchPath, err)
	}

	var batch map[string]store.RawFields
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("%w: batch file %s is not valid JSON: %v", shared.ErrStorage, batchPath, err)
	}

	titleClean, albumClean, err := r.cleaners()
	if err != nil {
		return err
	}

	db, err := store.Load(dbPath)
	if err != nil {
		return err
	}

	before := db.Len()
	db.Merge(batch, titleClean, albumClean)
	if err := db.Save(dbPath); err != nil {
		return err
	}

	r.logger.Info("batch merged", "batch", batchPath, "tracks", len(batch))
	r.writePlainln("Merged %d tracks (%d new). Database has %d tracks.",
		len(batch), db.Len()-before, db.Len())
	return nil
}
