// Package config resolves ankidb settings from flags, ANKIDB_* environment
// variables and an optional YAML file under the XDG config directory.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/bgunnarsson/ankidb/internal/db/sqlite"
)

const (
	KeyDB               = "db"
	KeyDriver           = "driver"
	KeyMaxWidth         = "max_width"
	KeyDebug            = "debug"
	KeyUnstructuredLogs = "unstructured_logs"
	KeyConfig           = "config"

	envPrefix = "ANKIDB"
	fileName  = "ankidb/config.yaml"
)

// ErrNoDatabase is returned when no deck path was configured anywhere.
var ErrNoDatabase = errors.New("no database path configured (use --db or ANKIDB_DB)")

type Config struct {
	DB               string `mapstructure:"db"`
	Driver           string `mapstructure:"driver"`
	MaxWidth         int    `mapstructure:"max_width"`
	Debug            bool   `mapstructure:"debug"`
	UnstructuredLogs bool   `mapstructure:"unstructured_logs"`
}

// SetDefaults registers default values and environment lookup on v.
func SetDefaults(v *viper.Viper) {
	// Every key needs a default so Unmarshal sees values that only come from env.
	v.SetDefault(KeyDB, "")
	v.SetDefault(KeyDriver, sqlite.DriverModernc)
	v.SetDefault(KeyMaxWidth, 40)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyUnstructuredLogs, true)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// DefaultPath returns the config file under the XDG config dirs, or "" if
// there is none.
func DefaultPath() string {
	path, err := xdg.SearchConfigFile(fileName)
	if err != nil {
		return ""
	}
	return path
}

// Load reads the config file, if any, and decodes v into a Config.
// An explicitly named file must exist; the XDG default is optional.
func Load(v *viper.Viper) (*Config, error) {
	path := v.GetString(KeyConfig)
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Driver {
	case sqlite.DriverModernc, sqlite.DriverCgo:
	default:
		return fmt.Errorf("unsupported driver %q (want %q or %q)", c.Driver, sqlite.DriverModernc, sqlite.DriverCgo)
	}
	if c.MaxWidth < 0 {
		return fmt.Errorf("max_width must not be negative, got %d", c.MaxWidth)
	}
	return nil
}

// RequireDB returns ErrNoDatabase when no deck path is set.
func (c *Config) RequireDB() error {
	if c.DB == "" {
		return ErrNoDatabase
	}
	return nil
}
