package config

import (
	"maps"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

// Default configuration values.
const (
	DefaultType        = "sqlite"
	DefaultFilePath    = "leapdb.db"
	DefaultOutput      = "table"
	DefaultHistoryFile = ".leapdb_history"
)

// DefaultSchemaForType returns the default schema for an engine type.
func DefaultSchemaForType(dbType string) string {
	switch strings.ToLower(dbType) {
	case "postgres":
		return "public"
	default:
		return "main"
	}
}

// ApplyConnectionDefaults fills unset fields based on the engine type.
func ApplyConnectionDefaults(c *ConnectionConfig) {
	if c == nil {
		return
	}
	if c.Type == "" {
		c.Type = DefaultType
	}
	// aliases such as "postgresql" resolve to the registered name
	if name, _, ok := adapter.Lookup(c.Type); ok {
		c.Type = name
	} else {
		c.Type = strings.ToLower(c.Type)
	}

	if c.Schema == "" {
		c.Schema = DefaultSchemaForType(c.Type)
	}

	switch c.Type {
	case "postgres":
		if c.Port == 0 {
			c.Port = 5432
		}
		if c.Host == "" {
			c.Host = "localhost"
		}
	case "sqlite":
		if c.FilePath == "" {
			c.FilePath = DefaultFilePath
		}
	}
}

// MergeConnectionConfig merges two connection configs, with override taking
// precedence for every field it sets.
func MergeConnectionConfig(base, override *ConnectionConfig) *ConnectionConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Params = make(map[string]any, len(base.Params)+len(override.Params))
	maps.Copy(merged.Params, base.Params)

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.FilePath != "" {
		merged.FilePath = override.FilePath
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.SSLMode != "" {
		merged.SSLMode = override.SSLMode
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	maps.Copy(merged.Params, override.Params)

	return &merged
}
