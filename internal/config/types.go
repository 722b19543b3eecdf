// Package config loads leapdb configuration from defaults, a leapdb.yaml
// file, LEAPDB_ environment variables and command-line flags.
//
// The loaded ConnectionConfig implements core.ConnectionConfiguration, so it
// can be handed straight to database.Open.
package config

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// ConnectionConfig holds the engine connection settings.
type ConnectionConfig struct {
	Type string `koanf:"type"` // sqlite, duckdb, postgres

	// File-based engines (SQLite, DuckDB)
	FilePath string `koanf:"filepath"`

	// Network engines
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`

	Schema string `koanf:"schema"`

	// Adapter-specific structured settings, e.g. DuckDB extensions and secrets
	Params map[string]any `koanf:"params"`
}

// Parameter implements core.ConnectionConfiguration.
func (c *ConnectionConfig) Parameter(name string) (string, bool) {
	var v string
	switch name {
	case core.ParamType:
		v = c.Type
	case core.ParamFilePath:
		v = c.FilePath
	case core.ParamHost:
		v = c.Host
	case core.ParamPort:
		if c.Port != 0 {
			v = strconv.Itoa(c.Port)
		}
	case core.ParamDatabase:
		v = c.Database
	case core.ParamUser:
		v = c.User
	case core.ParamPassword:
		v = c.Password
	case core.ParamSchema:
		v = c.Schema
	case "sslmode":
		v = c.SSLMode
	}
	return v, v != ""
}

// AdapterParams implements core.ParamsProvider.
func (c *ConnectionConfig) AdapterParams() map[string]any {
	return c.Params
}

// Validate checks that the connection names a registered adapter.
func (c *ConnectionConfig) Validate() error {
	if c.Type == "" {
		return errors.New("connection type is required")
	}
	if !adapter.IsRegistered(c.Type) {
		return &adapter.UnknownAdapterError{
			Type:      c.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// Config holds all CLI configuration options.
type Config struct {
	Connection  *ConnectionConfig            `koanf:"connection"`
	Profile     string                       `koanf:"profile"`
	Profiles    map[string]*ConnectionConfig `koanf:"profiles"`
	Verbose     bool                         `koanf:"verbose"`
	Output      string                       `koanf:"output"`
	HistoryFile string                       `koanf:"history_file"`

	// File is the config file that was read, empty when none was found.
	File string `koanf:"-"`
}

var (
	_ core.ConnectionConfiguration = (*ConnectionConfig)(nil)
	_ core.ParamsProvider          = (*ConnectionConfig)(nil)
)
