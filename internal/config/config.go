// Package config loads runtime settings from defaults, an optional config
// file, a .env file and TRGOVINA_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TRGOVINA"

// Environments.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds the settings of one run.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `mapstructure:"db_path"`
	// LogPath receives every log entry when set.
	LogPath  string `mapstructure:"log_path"`
	LogLevel string `mapstructure:"log_level"`
	Env      string `mapstructure:"env"`
	// ShopName heads printed invoices.
	ShopName string `mapstructure:"shop_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "trgovina.sqlite3")
	v.SetDefault("log_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("env", EnvProduction)
	v.SetDefault("shop_name", "")
}

// Load reads the configuration. configFile may be empty. envFiles default to
// ".env" in the working directory; missing env files are ignored.
func Load(configFile string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
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

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: db_path must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Env {
	case EnvProduction, EnvDevelopment:
	default:
		return fmt.Errorf("config: env must be %q or %q, got %q", EnvProduction, EnvDevelopment, c.Env)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("config: log_level: %w", err)
	}
	return lvl, nil
}

// Development reports whether logs should be human readable.
func (c *Config) Development() bool {
	return c.Env == EnvDevelopment
}
