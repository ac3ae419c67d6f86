// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// renderCommand builds the card deck from a track list and the database.
func renderCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "render",
		Aliases: []string{"cards"},
		Usage:   "Render a track list into printable card pages",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "list"},
			&cli.StringArg{Name: "db"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "set",
				Usage: "Only render tracks from this set",
			},
			&cli.StringFlag{
				Name:  "set-alias",
				Usage: "Display name printed on cards instead of the set id",
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Skip the first N selected tracks",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Render at most N tracks (0 = no limit)",
			},
			&cli.StringFlag{
				Name:  "font",
				Usage: "Font family for card text",
			},
			&cli.BoolFlag{
				Name:  "grid",
				Usage: "Draw cell borders around cards",
			},
			&cli.BoolFlag{
				Name:  "crop-marks",
				Usage: "Draw crop mark ticks at the table edges",
			},
			&cli.BoolFlag{
				Name:  "shuffle",
				Usage: "Shuffle the selection before laying out pages",
			},
			&cli.BoolFlag{
				Name:  "sort-by-year",
				Usage: "Order the selection by release year, oldest first",
			},
			&cli.StringSliceFlag{
				Name:  "skip-if-set",
				Usage: "Drop tracks that are also members of this set (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "fuzzy-track-dupes",
				Usage: "Match skip sets by title and artist as well as id",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory for page artifacts",
			},
			&cli.StringFlag{
				Name:  "page-order",
				Usage: "Artifact ordering: interleaved or grouped",
			},
			&cli.BoolFlag{
				Name:  "skip-pdf",
				Usage: "Leave the SVG pages on disk without combining them",
			},
		},
		Action: r.Render,
	}
}

// fetchCommand syncs track metadata from the streaming service.
func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch track metadata into the database ('=' as list reprocesses in place)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "list"},
			&cli.StringArg{Name: "db"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "set-id",
				Aliases: []string{"s"},
				Usage:   "Default set for lines that do not name one",
			},
			&cli.StringFlag{
				Name:  "set-id-override",
				Usage: "Force every track in the list into this set",
			},
			&cli.BoolFlag{
				Name:    "force-reload",
				Aliases: []string{"f"},
				Usage:   "Refetch tracks that already exist in the database",
			},
		},
		Action: r.Fetch,
	}
}

// mergeCommand folds an externally fetched batch file into the database.
func mergeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "merge",
		Usage: "Merge a JSON batch of raw track fields into the database",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "db"},
			&cli.StringArg{Name: "batch"},
		},
		Action: r.Merge,
	}
}

// statsCommand summarizes the database or a selection of it.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show year and decade histograms for the database",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "db"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "set",
				Usage: "Only count tracks from this set",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Stats,
	}
}

// editCommand opens the interactive override editor.
func editCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "edit",
		Aliases: []string{"tui"},
		Usage:   "Edit title/artist/album overrides interactively",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "db"},
		},
		Action: r.Edit,
	}
}

// setupCommand writes the example configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write an example configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   configFile,
			},
		},
		Action: r.Setup,
	}
}
