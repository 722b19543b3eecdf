package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapdb.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapdb.yml"

// EnvPrefix prefixes environment variables. A double underscore separates
// nested keys: LEAPDB_CONNECTION__TYPE sets connection.type.
const EnvPrefix = "LEAPDB_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"database": "connection.filepath",
	"type":     "connection.type",
	"history":  "history_file",
}

// skipFlags are flags that steer loading rather than set a value.
var skipFlags = map[string]bool{
	"config": true,
}

// loggerKey is used to store the logger in a context.
type loggerKey struct{}

// configKey is used to store the loaded config in a context.
type configKey struct{}

// configExistsIn returns the config file path in dir, or "".
func configExistsIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// findConfigFile searches upward from startDir for a leapdb config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigFile(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if p := configExistsIn(dir); p != "" {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load loads configuration from defaults, the config file, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// When cfgFile is empty the working directory and its parents are searched
// for leapdb.yaml. A selected profile is merged over the base connection.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"verbose":      false,
		"output":       DefaultOutput,
		"history_file": DefaultHistoryFile,
	}, "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	// 2. Config file
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfgFile = findConfigFile(cwd)
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", cfgFile)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || skipFlags[f.Name] {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	// 5. Decode
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	cfg.File = cfgFile

	if cfg.Profile != "" {
		profile, ok := cfg.Profiles[cfg.Profile]
		if !ok {
			return nil, errors.Newf("profile %q is not defined in %s", cfg.Profile, describeFile(cfgFile))
		}
		cfg.Connection = MergeConnectionConfig(cfg.Connection, profile)
		// flags still win over the profile
		if flags != nil {
			applyConnectionFlags(cfg.Connection, flags)
		}
	}

	if cfg.Connection == nil {
		cfg.Connection = &ConnectionConfig{}
	}
	ApplyConnectionDefaults(cfg.Connection)
	expandConnectionEnvVars(cfg.Connection)

	if cfg.Connection.Type == "sqlite" && cfgFile != "" {
		cfg.Connection.FilePath = resolveRelativeTo(cfg.Connection.FilePath, filepath.Dir(cfgFile), flags)
	}

	if err := cfg.Connection.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid connection configuration")
	}

	return &cfg, nil
}

// envKey transforms LEAPDB_CONNECTION__FILEPATH into connection.filepath.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// flagKey transforms a kebab-case flag name into its config key.
func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

func applyConnectionFlags(c *ConnectionConfig, flags *pflag.FlagSet) {
	if flags.Changed("database") {
		c.FilePath, _ = flags.GetString("database")
	}
	if flags.Changed("type") {
		c.Type, _ = flags.GetString("type")
	}
}

// resolveRelativeTo resolves a file path from the config file relative to
// the config file's directory. Paths given by flag stay relative to the
// working directory.
func resolveRelativeTo(path, baseDir string, flags *pflag.FlagSet) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if flags != nil && flags.Changed("database") {
		return path
	}
	return filepath.Join(baseDir, path)
}

func describeFile(path string) string {
	if path == "" {
		return "configuration"
	}
	return path
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// expandConnectionEnvVars expands environment variables in credential fields.
func expandConnectionEnvVars(c *ConnectionConfig) {
	c.Password = expandEnvVars(c.Password)
	c.User = expandEnvVars(c.User)
	c.Host = expandEnvVars(c.Host)
	c.Database = expandEnvVars(c.Database)
	c.FilePath = expandEnvVars(c.FilePath)
}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored by WithConfig. Without one it
// returns the defaults: a SQLite database in the working directory.
func FromContext(ctx context.Context) *Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*Config); ok {
			return c
		}
	}
	conn := &ConnectionConfig{}
	ApplyConnectionDefaults(conn)
	return &Config{
		Connection:  conn,
		Output:      DefaultOutput,
		HistoryFile: DefaultHistoryFile,
	}
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}
