// Package duckdb provides a DuckDB database adapter.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

const defaultSchema = "main"

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, Classify: classify},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database. Structured Params
// (extensions, settings, secrets) are applied right after connecting.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	params, err := parseParams(cfg.Params)
	if err != nil {
		return errors.Wrap(err, "invalid duckdb params")
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return errors.Wrap(err, "failed to open duckdb connection")
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrap(a.EngineError(err), "failed to ping duckdb")
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = a.Close()
		return err
	}
	return nil
}

// applyParams installs and loads extensions, applies settings and creates
// secrets, in that order.
func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		if _, err := a.Exec(ctx, fmt.Sprintf("INSTALL %s", ext)); err != nil {
			return errors.Wrapf(err, "failed to install extension %s", ext)
		}
		if _, err := a.Exec(ctx, fmt.Sprintf("LOAD %s", ext)); err != nil {
			return errors.Wrapf(err, "failed to load extension %s", ext)
		}
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmt := fmt.Sprintf("SET %s = %s", k, quoteLiteral(p.Settings[k]))
		if _, err := a.Exec(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to apply setting %s", k)
		}
	}

	for i, secret := range p.Secrets {
		if _, err := a.Exec(ctx, buildCreateSecretSQL(secret)); err != nil {
			return errors.Wrapf(err, "failed to create secret %d (%s)", i, secret.Type)
		}
	}
	return nil
}

// ListTables returns the base tables of the main schema.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx, defaultSchema, a.Placeholder)
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	meta, err := a.GetTableMetadataCommon(ctx, table, defaultSchema, a.Placeholder)
	if err != nil {
		return nil, err
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT index_name, sql
		FROM duckdb_indexes()
		WHERE schema_name = ? AND table_name = ?
		ORDER BY index_name
	`, meta.Schema, meta.Name)
	if err != nil {
		return nil, errors.Wrap(a.EngineError(err), "failed to list indexes")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name string
		var ddl sql.NullString
		if err := rows.Scan(&name, &ddl); err != nil {
			return nil, errors.Wrap(err, "failed to scan index")
		}
		meta.Indexes = append(meta.Indexes, name)
		if ddl.Valid {
			adapter.MarkIndexed(meta, adapter.IndexColumnsFromDDL(ddl.String)...)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating indexes")
	}
	return meta, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
