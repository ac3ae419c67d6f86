package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trackdeck/internal/shared"
)

// Setup writes the example configuration file so the operator has every
// knob and the default cleanup rule tables in front of them.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%w: %s already exists, refusing to overwrite", shared.ErrInvalidInput, configPath)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlainln("Wrote %s. Edit it and rerun your command.", configPath)
	return nil
}
