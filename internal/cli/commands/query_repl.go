package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/pkg/database"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "leapdb> "
	replContPrompt = "   ...> "
)

func runQueryREPL(cmd *cobra.Command) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     cc.Cfg.HistoryFile,
		AutoComplete:    newTableCompleter(ctx, cc.DB),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize REPL")
	}
	defer func() { _ = rl.Close() }()

	r := cc.Renderer
	r.Printf("leapdb REPL (%s)\n", cc.DB.Dialect())
	r.Muted("Type .help for commands, .quit to exit")
	r.Println()

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, cc.DB, r, line); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		stmt := buf.String()
		buf.Reset()
		if err := executeStatement(ctx, cc.DB, r, stmt); err != nil {
			r.Error(err)
		}
		r.Println()
	}

	return nil
}

// handleDotCommand runs a REPL dot-command and reports whether the REPL
// should exit.
func handleDotCommand(ctx context.Context, db *database.Database, r *output.Renderer, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r)

	case ".tables":
		if err := listTables(ctx, db, r); err != nil {
			r.Error(err)
		}

	case ".schema":
		if len(parts) < 2 {
			r.Warning("usage: .schema <table>")
			return false
		}
		if err := showSchema(ctx, db, r, parts[1]); err != nil {
			r.Error(err)
		}

	default:
		r.Warning(fmt.Sprintf("unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(r *output.Renderer) {
	r.Println(`
Commands:
  .help           Show this help message
  .tables         List all tables
  .schema <name>  Show schema for a table
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Statements that return rows print records, others print the affected row count
  - Tab completion works for table names`)
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(ctx context.Context, db *database.Database) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	// completion is best effort
	if names, err := db.TableNames(ctx); err == nil {
		for _, name := range names {
			items = append(items, readline.PcItem(name))
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
