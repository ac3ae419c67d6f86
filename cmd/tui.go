package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trackdeck/internal/shared"
	"github.com/desertthunder/trackdeck/internal/store"
	"github.com/desertthunder/trackdeck/internal/ui"
)

// Edit launches the interactive override editor over the database.
func (r *Runner) Edit(ctx context.Context, cmd *cli.Command) error {
	dbPath := cmd.StringArg("db")
	if dbPath == "" {
		return fmt.Errorf("%w: usage: trackdeck edit <db>", shared.ErrInvalidInput)
	}

	db, err := store.Load(dbPath)
	if err != nil {
		return err
	}
	if db.Len() == 0 {
		r.writePlainln("Database %s is empty; fetch some tracks first.", dbPath)
		return nil
	}

	model := ui.NewModel(db, func(db *store.Database) error {
		return db.Save(dbPath)
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running editor: %w", err)
	}
	if err := model.Err(); err != nil {
		return err
	}

	if model.Modified() {
		r.writePlainln("Overrides saved to %s.", dbPath)
	}
	return nil
}
