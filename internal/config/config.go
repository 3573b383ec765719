// Package config provides configuration management for the inventory hub.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Pagination PaginationConfig
	Health     HealthConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// CacheConfig holds read-path cache configuration
type CacheConfig struct {
	// QueryTTL bounds how long a cached list result is fresh
	QueryTTL time.Duration
	// FetchTimeout bounds a single list or detail query
	FetchTimeout time.Duration
}

// PaginationConfig holds incremental loading configuration
type PaginationConfig struct {
	InitialPageSize int
	PageIncrement   int
	MaxPageSize     int
	DebounceWindow  time.Duration
}

// HealthConfig holds store health monitoring configuration
type HealthConfig struct {
	Interval     time.Duration
	ProbeTimeout time.Duration
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "inventory_hub"),
				User:           getEnv("POSTGRES_USER", "inventory"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Cache: CacheConfig{
			QueryTTL:     getEnvAsDuration("CACHE_QUERY_TTL", 12*time.Second),
			FetchTimeout: getEnvAsDuration("FETCH_TIMEOUT", 6*time.Second),
		},
		Pagination: PaginationConfig{
			InitialPageSize: getEnvAsInt("PAGE_INITIAL_SIZE", 12),
			PageIncrement:   getEnvAsInt("PAGE_INCREMENT", 6),
			MaxPageSize:     getEnvAsInt("PAGE_MAX_SIZE", 50),
			DebounceWindow:  getEnvAsDuration("PAGE_DEBOUNCE_WINDOW", 2*time.Second),
		},
		Health: HealthConfig{
			Interval:     getEnvAsDuration("HEALTH_INTERVAL", 30*time.Second),
			ProbeTimeout: getEnvAsDuration("HEALTH_PROBE_TIMEOUT", 2*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations that cannot work
func (c *Config) Validate() error {
	if c.Pagination.InitialPageSize <= 0 {
		return fmt.Errorf("PAGE_INITIAL_SIZE must be positive, got %d", c.Pagination.InitialPageSize)
	}
	if c.Pagination.PageIncrement <= 0 {
		return fmt.Errorf("PAGE_INCREMENT must be positive, got %d", c.Pagination.PageIncrement)
	}
	if c.Pagination.MaxPageSize < c.Pagination.InitialPageSize {
		return fmt.Errorf("PAGE_MAX_SIZE (%d) must not be below PAGE_INITIAL_SIZE (%d)",
			c.Pagination.MaxPageSize, c.Pagination.InitialPageSize)
	}
	if c.Health.ProbeTimeout >= c.Cache.FetchTimeout {
		return fmt.Errorf("HEALTH_PROBE_TIMEOUT (%v) must be shorter than FETCH_TIMEOUT (%v)",
			c.Health.ProbeTimeout, c.Cache.FetchTimeout)
	}
	if c.Database.Postgres.MaxConnections <= 0 {
		return fmt.Errorf("POSTGRES_MAX_CONNECTIONS must be positive, got %d", c.Database.Postgres.MaxConnections)
	}
	return nil
}

// PostgresURL builds the connection URL used by the migration tooling
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.Database.Postgres.User,
		c.Database.Postgres.Password,
		c.Database.Postgres.Host,
		c.Database.Postgres.Port,
		c.Database.Postgres.Database,
	)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
