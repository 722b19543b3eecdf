package core

import (
	"strconv"
)

// Connection parameter names read by Database.Open.
const (
	ParamType     = "type"
	ParamFilePath = "filepath"
	ParamHost     = "host"
	ParamPort     = "port"
	ParamDatabase = "database"
	ParamUser     = "user"
	ParamPassword = "password"
	ParamSchema   = "schema"
)

// ConnectionConfiguration supplies connection parameters by name.
// It is consulted once, when the connection is opened.
type ConnectionConfiguration interface {
	Parameter(name string) (string, bool)
}

// ParamsProvider is implemented by configurations that carry
// adapter-specific structured parameters (e.g. DuckDB settings).
type ParamsProvider interface {
	AdapterParams() map[string]any
}

// MapConfiguration is a ConnectionConfiguration backed by a plain map.
type MapConfiguration map[string]string

// Parameter returns the named parameter.
func (m MapConfiguration) Parameter(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// AdapterConfigFrom builds an AdapterConfig from a ConnectionConfiguration.
// Unknown parameters are passed through as Options.
func AdapterConfigFrom(conf ConnectionConfiguration, known ...string) AdapterConfig {
	get := func(name string) string {
		v, _ := conf.Parameter(name)
		return v
	}

	cfg := AdapterConfig{
		Type:     get(ParamType),
		Path:     get(ParamFilePath),
		Host:     get(ParamHost),
		Database: get(ParamDatabase),
		Username: get(ParamUser),
		Password: get(ParamPassword),
		Schema:   get(ParamSchema),
	}
	if port := get(ParamPort); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if cfg.Type == "" {
		cfg.Type = "sqlite"
	}

	for _, name := range known {
		if v, ok := conf.Parameter(name); ok {
			if cfg.Options == nil {
				cfg.Options = make(map[string]string)
			}
			cfg.Options[name] = v
		}
	}

	if pp, ok := conf.(ParamsProvider); ok {
		cfg.Params = pp.AdapterParams()
	}
	return cfg
}
