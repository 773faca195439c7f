package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
)

// Config holds application configuration values.
type Config struct {
	AppEnv   string `toml:"app_env" env:"APP_ENV"`
	HTTPPort int    `toml:"http_port" env:"HTTP_PORT"`

	// DBDriver is "sqlite" (embedded, default) or "pgx".
	DBDriver    string `toml:"db_driver" env:"DB_DRIVER"`
	DatabaseDSN string `toml:"database_dsn" env:"DATABASE_DSN"`

	UploadDir string `toml:"upload_dir" env:"UPLOAD_DIR"`

	LogLevel  string `toml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `toml:"log_format" env:"LOG_FORMAT"`

	ReadTimeout     time.Duration `toml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	// Comma-separated list of allowed origins, "*" allows any.
	CORSAllowedOrigins string `toml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`

	// Bytes of a multipart body kept in memory before spilling to temp files.
	MaxMultipartMemory int64 `toml:"max_multipart_memory" env:"MAX_MULTIPART_MEMORY"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		AppEnv:             "development",
		HTTPPort:           4000,
		DBDriver:           "sqlite",
		DatabaseDSN:        "database.db",
		UploadDir:          "uploads",
		LogLevel:           "info",
		LogFormat:          "json",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		CORSAllowedOrigins: "*",
		MaxMultipartMemory: 32 << 20,
	}
}

// Load builds the configuration from defaults, then the optional TOML file
// named by CONFIG_FILE (config.toml when unset), then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.toml"
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT value %d", c.HTTPPort)
	}
	switch c.DBDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or pgx)", c.DBDriver)
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		return errors.New("UPLOAD_DIR must not be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// AllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) AllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
