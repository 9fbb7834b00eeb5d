// Package config loads the application configuration from an optional
// config.yml, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Source backends.
const (
	SourceDummyJSON = "dummyjson"
	SourceInMemory  = "in-memory"
	SourcePostgres  = "postgres"
)

// Config holds application configuration values.
type Config struct {
	Port        string        `mapstructure:"PORT"`
	Source      string        `mapstructure:"SOURCE"`
	SourceURL   string        `mapstructure:"SOURCE_URL"`
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	RedisURL    string        `mapstructure:"REDIS_URL"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`
	PageSize    int           `mapstructure:"PAGE_SIZE"`
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
	AckDelay    time.Duration `mapstructure:"ACK_DELAY"`

	CorsAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogPath       string `mapstructure:"LOG_PATH"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `mapstructure:"LOG_COMPRESS"`
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"SOURCE":               SourceDummyJSON,
	"SOURCE_URL":           "https://dummyjson.com",
	"DATABASE_URL":         "",
	"REDIS_URL":            "",
	"CACHE_TTL":            "5m",
	"PAGE_SIZE":            10,
	"HTTP_TIMEOUT":         "10s",
	"ACK_DELAY":            "2s",
	"CORS_ALLOWED_ORIGINS": "*",
	"LOG_LEVEL":            "info",
	"LOG_PATH":             "",
	"LOG_MAX_SIZE_MB":      100,
	"LOG_MAX_BACKUPS":      3,
	"LOG_MAX_AGE_DAYS":     7,
	"LOG_COMPRESS":         false,
}

// Load reads configuration. dir is searched for config.yml; a missing file
// is not an error.
func Load(dir string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combinations Load cannot default.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceDummyJSON, SourceInMemory:
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for postgres source")
		}
	default:
		return fmt.Errorf("unknown SOURCE %q (want %s, %s or %s)", c.Source, SourceDummyJSON, SourceInMemory, SourcePostgres)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	return nil
}
