package commands

import (
	"context"

	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/pkg/database"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return listTables(cmd.Context(), cc.DB, cc.Renderer)
		},
	}
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the columns, keys and indexes of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return showSchema(cmd.Context(), cc.DB, cc.Renderer, args[0])
		},
	}
}

func listTables(ctx context.Context, db *database.Database, r *output.Renderer) error {
	names, err := db.TableNames(ctx)
	if err != nil {
		return err
	}
	return r.RenderNames("Table", names)
}

func showSchema(ctx context.Context, db *database.Database, r *output.Renderer, name string) error {
	tbl, err := db.Table(ctx, name)
	if err != nil {
		return err
	}
	return r.RenderSchema(tbl)
}
