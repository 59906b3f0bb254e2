// Package config loads application configuration from environment variables.
// All variables use the STUDYHUB_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	AI          AIConfig
	Log         LogConfig
	CatalogPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL runs
// the server with in-memory study state only.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables
// cross-session sync.
type CacheConfig struct {
	URL string
}

// AIConfig holds configuration for the completion service.
type AIConfig struct {
	Google GoogleConfig
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with STUDYHUB_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("STUDYHUB_SERVER_PORT", 8080),
			Host: envStr("STUDYHUB_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("STUDYHUB_DATABASE_URL", ""),
			MaxConns: envInt("STUDYHUB_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("STUDYHUB_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("STUDYHUB_CACHE_URL", ""),
		},
		AI: AIConfig{
			Google: GoogleConfig{
				APIKey: envStr("STUDYHUB_AI_GOOGLE_API_KEY", ""),
			},
		},
		Log: LogConfig{
			Level:  envStr("STUDYHUB_LOG_LEVEL", "info"),
			Format: envStr("STUDYHUB_LOG_FORMAT", "json"),
		},
		CatalogPath: envStr("STUDYHUB_CATALOG_PATH", "./catalog"),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.CatalogPath == "" {
		return fmt.Errorf("STUDYHUB_CATALOG_PATH is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("STUDYHUB_SERVER_PORT must be a valid port, got %d", c.Server.Port)
	}
	return nil
}

// HasAIProvider returns true if the completion service is configured. The
// assistant endpoints respond with an error without one.
func (c *Config) HasAIProvider() bool {
	return c.AI.Google.APIKey != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
