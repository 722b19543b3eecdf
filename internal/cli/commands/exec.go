package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec SQL",
		Short: "Run a statement that returns no rows",
		Long: `Run a DDL or DML statement against the configured database and
print the number of affected rows (0 for DDL).`,
		Example: `  leapdb exec "CREATE INDEX orders_status ON orders(status)"
  leapdb exec "DELETE FROM sessions WHERE expired = 1"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := cc.DB.ExecuteOperation(cmd.Context(), trimStatement(strings.Join(args, " ")))
			if err != nil {
				return err
			}
			return cc.Renderer.RenderAffected(n)
		},
	}
}
