package commands

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/pkg/database"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a query and print the records",
		Long: `Run a SQL query against the configured database and print the
resulting records.

SQL is taken from the arguments, from --input, or from standard input
when it is piped. When invoked without SQL on a terminal, enters
interactive REPL mode.`,
		Example: `  # Execute SQL directly
  leapdb query "SELECT * FROM orders WHERE status = 'open'"

  # Output as JSON
  leapdb query "SELECT id, total FROM orders" -o json

  # Read SQL from a file
  leapdb query -i report.sql

  # Interactive mode
  leapdb query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	var sqlText string

	switch {
	case len(args) > 0:
		sqlText = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return errors.Wrap(err, "failed to read file")
		}
		sqlText = string(content)
	case !output.IsTerminal(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return errors.Wrap(err, "failed to read stdin")
		}
		sqlText = string(content)
	default:
		return runQueryREPL(cmd)
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return executeQuery(cmd.Context(), cc.DB, cc.Renderer, sqlText)
}

func executeQuery(ctx context.Context, db *database.Database, r *output.Renderer, sqlText string) error {
	sqlText = trimStatement(sqlText)
	if sqlText == "" {
		return errors.New("no SQL given")
	}
	rs, err := db.ExecuteQuery(ctx, sqlText)
	if err != nil {
		return err
	}
	return r.RenderRecordSet(rs)
}

// executeStatement sends row-returning statements to ExecuteQuery and
// everything else to ExecuteOperation.
func executeStatement(ctx context.Context, db *database.Database, r *output.Renderer, sqlText string) error {
	sqlText = trimStatement(sqlText)
	if sqlText == "" {
		return nil
	}
	if returnsRows(sqlText) {
		return executeQuery(ctx, db, r, sqlText)
	}
	n, err := db.ExecuteOperation(ctx, sqlText)
	if err != nil {
		return err
	}
	return r.RenderAffected(n)
}

func trimStatement(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
}

// rowKeywords start statements that return rows.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"VALUES":   true,
	"PRAGMA":   true,
	"EXPLAIN":  true,
	"SHOW":     true,
	"DESCRIBE": true,
	"TABLE":    true,
}

// returnsRows reports whether a statement's leading keyword produces rows.
func returnsRows(sqlText string) bool {
	s := strings.TrimLeft(sqlText, "( \t\r\n")
	word, _, _ := strings.Cut(s, " ")
	word = strings.TrimRight(word, "(\t\r\n")
	if rowKeywords[strings.ToUpper(word)] {
		return true
	}
	return strings.Contains(strings.ToUpper(s), " RETURNING ")
}
