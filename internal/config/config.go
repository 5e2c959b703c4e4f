// Package config provides application configuration management,
// loading settings from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// maxElevationChunkSize is the most points the elevation service accepts in
// one request
const maxElevationChunkSize = 2000

// Config holds all configuration for the application
type Config struct {
	// Service configuration
	ServiceName string
	Environment string
	GRPCPort    string
	HTTPPort    string

	// Database configuration
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string

	// Elevation service
	ElevationURL       string
	ElevationTimeout   time.Duration
	ElevationChunkSize int

	// Elevation cache, disabled when RedisAddr is empty
	RedisAddr         string
	RedisPassword     string
	ElevationCacheTTL time.Duration

	// Path building
	SimplifyToleranceM float64
	WorkerCount        int
	BuildTimeout       time.Duration

	// CSV output path
	CSVOutputPath string

	// OpenTelemetry configuration
	OTELEndpoint string
	OTELEnabled  bool

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "path-worker"),
		Environment: getEnv("ENVIRONMENT", "development"),
		GRPCPort:    getEnv("GRPC_PORT", "50051"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "6432"),
		PostgresDB:       getEnv("POSTGRES_DB", "owntracks"),
		PostgresUser:     getEnv("POSTGRES_USER", "development"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "development"),

		ElevationURL:  getEnv("ELEVATION_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "/data/csv"),
		OTELEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.ElevationTimeout, err = parseDuration("ELEVATION_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid ELEVATION_TIMEOUT: %w", err)
	}
	if cfg.ElevationChunkSize, err = parseInt("ELEVATION_CHUNK_SIZE", "2000"); err != nil {
		return nil, fmt.Errorf("invalid ELEVATION_CHUNK_SIZE: %w", err)
	}
	if cfg.ElevationCacheTTL, err = parseDuration("ELEVATION_CACHE_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid ELEVATION_CACHE_TTL: %w", err)
	}
	if cfg.SimplifyToleranceM, err = parseFloat("SIMPLIFY_TOLERANCE_M", "2"); err != nil {
		return nil, fmt.Errorf("invalid SIMPLIFY_TOLERANCE_M: %w", err)
	}
	if cfg.WorkerCount, err = parseInt("WORKER_COUNT", "4"); err != nil {
		return nil, fmt.Errorf("invalid WORKER_COUNT: %w", err)
	}
	if cfg.BuildTimeout, err = parseDuration("BUILD_TIMEOUT", "2m"); err != nil {
		return nil, fmt.Errorf("invalid BUILD_TIMEOUT: %w", err)
	}
	if cfg.OTELEnabled, err = strconv.ParseBool(getEnv("OTEL_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("invalid OTEL_ENABLED: %w", err)
	}

	if cfg.ElevationChunkSize < 1 || cfg.ElevationChunkSize > maxElevationChunkSize {
		return nil, fmt.Errorf("invalid ELEVATION_CHUNK_SIZE: must be between 1 and %d, got %d",
			maxElevationChunkSize, cfg.ElevationChunkSize)
	}
	if cfg.SimplifyToleranceM < 0 {
		return nil, fmt.Errorf("invalid SIMPLIFY_TOLERANCE_M: must not be negative, got %g", cfg.SimplifyToleranceM)
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("invalid WORKER_COUNT: must be positive, got %d", cfg.WorkerCount)
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresUser,
		c.PostgresPassword,
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseFloat parses a float64 from an environment variable or default value
func parseFloat(key, defaultValue string) (float64, error) {
	return strconv.ParseFloat(getEnv(key, defaultValue), 64)
}

func parseInt(key, defaultValue string) (int, error) {
	return strconv.Atoi(getEnv(key, defaultValue))
}

func parseDuration(key, defaultValue string) (time.Duration, error) {
	return time.ParseDuration(getEnv(key, defaultValue))
}
