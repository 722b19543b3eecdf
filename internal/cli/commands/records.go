package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/database"
	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <column=value>...",
		Short: "Look up one record by primary key",
		Long: `Look up the record whose primary key equals the given values.
Every primary-key column must be given.`,
		Example: `  leapdb get orders id=42
  leapdb get order_lines order_id=42 line=3 -o json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			tbl, err := cc.DB.Table(ctx, args[0])
			if err != nil {
				return err
			}
			pk, err := primaryKeyFrom(tbl, args[1:])
			if err != nil {
				return err
			}
			rec, err := tbl.RecordByPrimaryKey(ctx, pk)
			if err != nil {
				return err
			}
			if rec == nil {
				return errors.Newf("no record in %s with %s", tbl.Name(), describeFields(pk.Fields()))
			}
			return cc.Renderer.RenderRecord(rec)
		},
	}
}

// FilterOptions holds options for the filter command.
type FilterOptions struct {
	Where string
}

// NewFilterCommand creates the filter command.
func NewFilterCommand() *cobra.Command {
	opts := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "filter <table> [column=value]...",
		Short: "List the records matching every column=value condition",
		Long: `List the records of a table whose columns equal all given values,
ordered by primary key. Without conditions every record is listed.
Use NULL to match missing values, or --where for a raw SQL condition.`,
		Example: `  leapdb filter orders status=open
  leapdb filter orders shipped_at=NULL
  leapdb filter orders --where "total > 100"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			tbl, err := cc.DB.Table(ctx, args[0])
			if err != nil {
				return err
			}

			var rs *database.TableRecordSet
			if opts.Where != "" {
				if len(args) > 1 {
					return errors.New("use either column=value conditions or --where, not both")
				}
				rs, err = tbl.FilterRecordsByCondition(ctx, opts.Where)
			} else {
				conds, perr := parseAssignments(tbl, args[1:])
				if perr != nil {
					return perr
				}
				rs, err = tbl.FilterRecordsByFields(ctx, conds)
			}
			if err != nil {
				return err
			}
			return cc.Renderer.RenderRecordSet(rs.RecordSet)
		},
	}

	cmd.Flags().StringVar(&opts.Where, "where", "", "Raw SQL condition")
	return cmd
}

// UpdateOptions holds options for the update command.
type UpdateOptions struct {
	Set   []string
	Where []string
	All   bool
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	opts := &UpdateOptions{}

	cmd := &cobra.Command{
		Use:   "update <table> --set column=value... [--where column=value...]",
		Short: "Set column values on every record matching the conditions",
		Long: `Set the given column values on every record whose columns equal all
--where values, in a single statement, and print the affected row count.
Updating every record requires --all.`,
		Example: `  leapdb update orders --set status=shipped --where id=42
  leapdb update orders --set archived=true --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.Set) == 0 {
				return errors.New("at least one --set column=value is required")
			}
			if len(opts.Where) == 0 && !opts.All {
				return errors.New("refusing to update every record without --all")
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			tbl, err := cc.DB.Table(ctx, args[0])
			if err != nil {
				return err
			}
			values, err := parseAssignments(tbl, opts.Set)
			if err != nil {
				return err
			}
			conds, err := parseAssignments(tbl, opts.Where)
			if err != nil {
				return err
			}
			n, err := tbl.UpdateRecordsByCondition(ctx, values, conds)
			if err != nil {
				return err
			}
			return cc.Renderer.RenderAffected(n)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "column=value to set (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "column=value condition (repeatable)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Allow updating every record")
	return cmd
}

// DeleteOptions holds options for the delete command.
type DeleteOptions struct {
	All bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	opts := &DeleteOptions{}

	cmd := &cobra.Command{
		Use:   "delete <table> [column=value]...",
		Short: "Delete the records matching every column=value condition",
		Example: `  leapdb delete sessions user_id=7
  leapdb delete sessions --all`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && !opts.All {
				return errors.New("refusing to delete every record without --all")
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			tbl, err := cc.DB.Table(ctx, args[0])
			if err != nil {
				return err
			}
			conds, err := parseAssignments(tbl, args[1:])
			if err != nil {
				return err
			}
			n, err := tbl.DeleteRecordsByCondition(ctx, conds)
			if err != nil {
				return err
			}
			return cc.Renderer.RenderAffected(n)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "Allow deleting every record")
	return cmd
}
