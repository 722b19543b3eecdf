package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register adapters so Validate can resolve connection types.
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.StringP("database", "d", "", "")
	fs.String("type", "", "")
	fs.String("profile", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	fs.String("history", "", "")
	return fs
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultHistoryFile, cfg.HistoryFile)
	assert.False(t, cfg.Verbose)
	require.NotNil(t, cfg.Connection)
	assert.Equal(t, "sqlite", cfg.Connection.Type)
	assert.Equal(t, DefaultFilePath, cfg.Connection.FilePath)
	assert.Equal(t, "main", cfg.Connection.Schema)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, `
connection:
  type: postgres
  host: db.internal
  database: app
  user: reader
  password: ${LEAPDB_TEST_PASSWORD}
  sslmode: require
output: json
`)
	t.Setenv("LEAPDB_TEST_PASSWORD", "s3cret")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "json", cfg.Output)
	c := cfg.Connection
	assert.Equal(t, "postgres", c.Type)
	assert.Equal(t, "db.internal", c.Host)
	assert.Equal(t, 5432, c.Port, "postgres default port")
	assert.Equal(t, "public", c.Schema, "postgres default schema")
	assert.Equal(t, "s3cret", c.Password, "env var expanded")
	assert.Equal(t, "require", c.SSLMode)
}

func TestLoad_UpwardSearch(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "connection:\n  type: duckdb\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", cfg.Connection.Type)
	assert.Equal(t, filepath.Join(root, ConfigFileName), cfg.File)
}

func TestLoad_SQLitePathRelativeToConfigFile(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "connection:\n  filepath: data/app.db\n")
	t.Chdir(t.TempDir())

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "data", "app.db"), cfg.Connection.FilePath)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `
connection:
  type: sqlite
  filepath: from-file.db
output: csv
verbose: false
`)
	t.Setenv("LEAPDB_OUTPUT", "md")
	t.Setenv("LEAPDB_CONNECTION__FILEPATH", "from-env.db")

	t.Run("env over file", func(t *testing.T) {
		cfg, err := Load("", newFlags())
		require.NoError(t, err)
		assert.Equal(t, "md", cfg.Output)
		assert.Equal(t, filepath.Join(dir, "from-env.db"), cfg.Connection.FilePath)
	})

	t.Run("flags over env", func(t *testing.T) {
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"-o", "json", "-d", "from-flag.db", "-v"}))

		cfg, err := Load("", fs)
		require.NoError(t, err)
		assert.Equal(t, "json", cfg.Output)
		assert.Equal(t, "from-flag.db", cfg.Connection.FilePath, "flag paths stay relative to the working directory")
		assert.True(t, cfg.Verbose)
	})
}

func TestLoad_Profiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `
connection:
  type: postgres
  host: localhost
  database: app
  user: dev
profiles:
  prod:
    host: prod.internal
    user: ${LEAPDB_TEST_PROD_USER}
  local:
    type: sqlite
    filepath: local.db
`)
	t.Setenv("LEAPDB_TEST_PROD_USER", "svc")

	tests := []struct {
		name     string
		args     []string
		wantType string
		wantHost string
		wantUser string
		wantPath string
		wantErr  string
	}{
		{name: "no profile", wantType: "postgres", wantHost: "localhost", wantUser: "dev"},
		{name: "prod", args: []string{"--profile", "prod"}, wantType: "postgres", wantHost: "prod.internal", wantUser: "svc"},
		{name: "local", args: []string{"--profile", "local"}, wantType: "sqlite", wantHost: "localhost", wantUser: "dev", wantPath: filepath.Join(dir, "local.db")},
		{name: "flag over profile", args: []string{"--profile", "local", "--database", "x.db"}, wantType: "sqlite", wantHost: "localhost", wantUser: "dev", wantPath: "x.db"},
		{name: "unknown", args: []string{"--profile", "staging"}, wantErr: `profile "staging" is not defined`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFlags()
			require.NoError(t, fs.Parse(tt.args))

			cfg, err := Load("", fs)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, cfg.Connection.Type)
			assert.Equal(t, tt.wantHost, cfg.Connection.Host)
			assert.Equal(t, tt.wantUser, cfg.Connection.User)
			if tt.wantPath != "" {
				assert.Equal(t, tt.wantPath, cfg.Connection.FilePath)
			}
		})
	}
}

func TestLoad_DuckDBParams(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `
connection:
  type: duckdb
  params:
    extensions: [httpfs]
    settings:
      threads: "4"
`)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	adapterCfg := core.AdapterConfigFrom(cfg.Connection)
	assert.Equal(t, "duckdb", adapterCfg.Type)
	require.NotNil(t, adapterCfg.Params)
	assert.Contains(t, adapterCfg.Params, "extensions")
	assert.Contains(t, adapterCfg.Params, "settings")
}

func TestLoad_UnknownType(t *testing.T) {
	t.Chdir(t.TempDir())
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--type", "oracle"}))

	_, err := Load("", fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter type")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("nope.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConnectionConfig_Parameter(t *testing.T) {
	c := &ConnectionConfig{
		Type:     "postgres",
		Host:     "h",
		Port:     6543,
		Database: "d",
		User:     "u",
		Password: "p",
		Schema:   "s",
		SSLMode:  "disable",
	}

	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{core.ParamType, "postgres", true},
		{core.ParamHost, "h", true},
		{core.ParamPort, "6543", true},
		{core.ParamDatabase, "d", true},
		{core.ParamUser, "u", true},
		{core.ParamPassword, "p", true},
		{core.ParamSchema, "s", true},
		{"sslmode", "disable", true},
		{core.ParamFilePath, "", false},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Parameter(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	cfg := core.AdapterConfigFrom(c, "sslmode")
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "disable", cfg.Options["sslmode"])
}

func TestApplyConnectionDefaults_Aliases(t *testing.T) {
	tests := []struct {
		typ      string
		wantType string
		wantPort int
		wantPath string
	}{
		{"PostgreSQL", "postgres", 5432, ""},
		{"pg", "postgres", 5432, ""},
		{"sqlite3", "sqlite", 0, DefaultFilePath},
		{"DuckDB", "duckdb", 0, ""},
		{"Oracle", "oracle", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			c := &ConnectionConfig{Type: tt.typ}
			ApplyConnectionDefaults(c)
			assert.Equal(t, tt.wantType, c.Type)
			assert.Equal(t, tt.wantPort, c.Port)
			assert.Equal(t, tt.wantPath, c.FilePath)
		})
	}
}

func TestMergeConnectionConfig(t *testing.T) {
	base := &ConnectionConfig{Type: "postgres", Host: "a", Port: 5432, Params: map[string]any{"x": 1}}
	override := &ConnectionConfig{Host: "b", Params: map[string]any{"y": 2}}

	merged := MergeConnectionConfig(base, override)
	assert.Equal(t, "postgres", merged.Type)
	assert.Equal(t, "b", merged.Host)
	assert.Equal(t, 5432, merged.Port)
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, merged.Params)
	assert.Equal(t, "a", base.Host, "base is not modified")
	assert.Len(t, base.Params, 1)

	assert.Same(t, base, MergeConnectionConfig(base, nil))
	assert.Same(t, override, MergeConnectionConfig(nil, override))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEAPDB_TEST_HOST", "example.com")

	assert.Equal(t, "example.com", expandEnvVars("${LEAPDB_TEST_HOST}"))
	assert.Equal(t, "pre-example.com-post", expandEnvVars("pre-${LEAPDB_TEST_HOST}-post"))
	assert.Equal(t, "${LEAPDB_TEST_UNSET_VAR}", expandEnvVars("${LEAPDB_TEST_UNSET_VAR}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "connection.filepath", envKey("LEAPDB_CONNECTION__FILEPATH"))
	assert.Equal(t, "history_file", envKey("LEAPDB_HISTORY_FILE"))
}
