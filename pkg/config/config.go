// Package config loads service configuration from config.yaml with
// environment variable overrides. Secrets come from the environment only.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for sqlagent.
// Environment variables override YAML values for fields that support both.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time from build info

	// Registry database (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Generative backend (optional; deterministic rules run without it)
	AI AIConfig `yaml:"ai"`
}

// DatabaseConfig holds PostgreSQL registry store configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"sqlagent"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"sqlagent"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// AIConfig holds generative backend configuration. The backend is optional:
// when not configured, generation uses deterministic rules only.
type AIConfig struct {
	Provider       string `yaml:"provider" env:"AI_PROVIDER" env-default:""` // "openai" or "anthropic"
	Endpoint       string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`
	Model          string `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey         string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	MaxTokens      int    `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"512"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"10"`
}

// IsAvailable returns true if a generative backend is configured.
func (c *AIConfig) IsAvailable() bool {
	return c.Provider != "" && c.Model != ""
}

// Timeout returns the backend call timeout as a duration.
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ConnectionString returns a PostgreSQL keyword/value connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load reads configuration from config.yaml with environment overrides.
// When config.yaml does not exist (containers configured purely by
// environment), configuration comes from the environment alone.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML path. Exposed for tests.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read config from environment: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return cfg, nil
}
