// Package commands implements the leapdb subcommands.
package commands

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/internal/config"
	"github.com/leapstack-labs/leapdb/pkg/database"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	DB       *database.Database
	Renderer *output.Renderer
}

// NewCommandContext opens the configured database and builds the renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc, err := NewCommandContextWithoutDB(cmd)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Open(cmd.Context(), cc.Cfg.Connection, cc.Logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open database")
	}
	cc.DB = db

	cleanup := func() {
		if err := db.Close(); err != nil {
			cc.Logger.Warn("failed to close database", slog.String("error", err.Error()))
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutDB creates a CommandContext without a database.
// Useful for commands that don't need database access.
func NewCommandContextWithoutDB(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	mode, err := output.ParseMode(cfg.Output)
	if err != nil {
		return nil, err
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}
