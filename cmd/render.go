package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trackdeck/internal/assemble"
	"github.com/desertthunder/trackdeck/internal/layout"
	"github.com/desertthunder/trackdeck/internal/render"
	"github.com/desertthunder/trackdeck/internal/shared"
	"github.com/desertthunder/trackdeck/internal/store"
	"github.com/desertthunder/trackdeck/internal/tracklist"
)

// Render runs the whole deck pipeline: parse the list, resolve tracks
// against the database, lay out pages, render faces, write artifacts, and
// combine them into a PDF unless --skip-pdf is set.
func (r *Runner) Render(ctx context.Context, cmd *cli.Command) error {
	listPath := cmd.StringArg("list")
	dbPath := cmd.StringArg("db")
	if listPath == "" || dbPath == "" {
		return fmt.Errorf("%w: usage: trackdeck render <list> <db>", shared.ErrInvalidInput)
	}

	layoutCfg := r.config.Layout
	if cmd.IsSet("font") {
		layoutCfg.Font = cmd.String("font")
	}
	if cmd.IsSet("grid") {
		layoutCfg.Grid = cmd.Bool("grid")
	}
	if cmd.IsSet("crop-marks") {
		layoutCfg.CropMarks = cmd.Bool("crop-marks")
	}
	if cmd.IsSet("page-order") {
		layoutCfg.PageOrder = cmd.String("page-order")
	}

	if err := layout.ValidateConfig(layoutCfg); err != nil {
		return err
	}

	outDir := r.config.Output.Dir
	if cmd.IsSet("output") {
		outDir = cmd.String("output")
	}

	entries, err := tracklist.ParseFile(listPath, "")
	if err != nil {
		return err
	}

	db, err := store.Load(dbPath)
	if err != nil {
		return err
	}

	selected := tracklist.FilterSet(entries, cmd.String("set"))
	r.logger.Info("selected tracks", "list", listPath, "selected", len(selected), "total", len(entries))

	// Skip filtering runs before the offset/limit window so skipped tracks
	// do not eat window slots and --limit still yields a full deck.
	tracks, err := tracklist.Resolve(selected, db, tracklist.ResolveOptions{
		Alias:    cmd.String("set-alias"),
		SkipSets: cmd.StringSlice("skip-if-set"),
		Fuzzy:    cmd.Bool("fuzzy-track-dupes"),
	})
	if err != nil {
		return err
	}
	tracks = tracklist.Window(tracks, int(cmd.Int("offset")), int(cmd.Int("limit")))
	if len(tracks) == 0 {
		r.writePlainln("Nothing to render.")
		return nil
	}

	if cmd.Bool("shuffle") {
		tracklist.Shuffle(tracks)
	} else if cmd.Bool("sort-by-year") {
		tracklist.SortByYear(tracks)
	}

	grid := layout.Grid{Rows: layoutCfg.Rows, Cols: layoutCfg.Columns}
	ids := make([]string, len(tracks))
	for i, track := range tracks {
		ids[i] = track.ID
	}

	// Faces are kept by sequence position, not track id: the same id can
	// appear once per set and each occurrence carries its own captions.
	renderer := render.New(layoutCfg)
	fronts := make([]render.Face, len(tracks))
	backs := make([]render.Face, len(tracks))
	for i, track := range tracks {
		fronts[i] = renderer.Front(track)
		back, err := renderer.Back(track)
		if err != nil {
			return err
		}
		backs[i] = back
	}

	slots := layout.Paginate(ids, grid)

	assembler, err := assemble.New(layoutCfg)
	if err != nil {
		return err
	}
	pages, err := assembler.Assemble(slots, func(s layout.Slot) (render.Face, bool) {
		if s.Index < 0 || s.Index >= len(tracks) {
			return render.Face{}, false
		}
		if s.Side == layout.Back {
			return backs[s.Index], true
		}
		return fronts[s.Index], true
	})
	if err != nil {
		return err
	}

	paths, err := assemble.WritePages(pages, outDir)
	if err != nil {
		return err
	}

	r.writePlainln("Rendered %d tracks onto %d pages (%d artifacts) in %s",
		len(tracks), layout.PageCount(len(tracks), grid), len(paths), outDir)

	if cmd.Bool("skip-pdf") {
		r.logger.Info("skipping PDF combination", "artifacts", len(paths))
		return nil
	}

	pdfPath := filepath.Join(outDir, r.config.Output.PDFName)
	r.logger.Info("combining pages", "converter", r.config.Output.Converter, "output", pdfPath)
	if err := assemble.CombinePDF(ctx, r.config.Output.Converter, paths, pdfPath); err != nil {
		return err
	}

	r.writePlainln("Combined deck written to %s", pdfPath)
	return nil
}
