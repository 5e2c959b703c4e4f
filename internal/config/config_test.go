package config

import (
	"testing"
	"time"
)

var envVars = []string{
	"SERVICE_NAME", "ENVIRONMENT", "GRPC_PORT", "HTTP_PORT",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB",
	"ELEVATION_URL", "ELEVATION_TIMEOUT", "ELEVATION_CHUNK_SIZE",
	"REDIS_ADDR", "ELEVATION_CACHE_TTL", "SIMPLIFY_TOLERANCE_M",
	"WORKER_COUNT", "BUILD_TIMEOUT", "OTEL_ENABLED",
}

// clearEnv blanks every key Load reads; getEnv treats empty as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
}

// nolint:gocyclo // Test function complexity from multiple subtests and assertions
func TestLoad(t *testing.T) {
	t.Run("loads default values", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}

		if cfg.ServiceName != "path-worker" {
			t.Errorf("expected ServiceName 'path-worker', got '%s'", cfg.ServiceName)
		}
		if cfg.GRPCPort != "50051" {
			t.Errorf("expected GRPCPort '50051', got '%s'", cfg.GRPCPort)
		}
		if cfg.PostgresPort != "6432" {
			t.Errorf("expected PostgresPort '6432' (PgBouncer), got '%s'", cfg.PostgresPort)
		}
		if cfg.ElevationChunkSize != 2000 {
			t.Errorf("expected ElevationChunkSize 2000, got %d", cfg.ElevationChunkSize)
		}
		if cfg.ElevationTimeout != 30*time.Second {
			t.Errorf("expected ElevationTimeout 30s, got %s", cfg.ElevationTimeout)
		}
		if cfg.SimplifyToleranceM != 2 {
			t.Errorf("expected SimplifyToleranceM 2, got %f", cfg.SimplifyToleranceM)
		}
		if cfg.WorkerCount != 4 {
			t.Errorf("expected WorkerCount 4, got %d", cfg.WorkerCount)
		}
		if !cfg.OTELEnabled {
			t.Error("expected OTELEnabled by default")
		}
		if cfg.RedisAddr != "" {
			t.Errorf("expected cache disabled by default, got RedisAddr '%s'", cfg.RedisAddr)
		}
	})

	t.Run("loads custom values from environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SERVICE_NAME", "test-service")
		t.Setenv("GRPC_PORT", "9999")
		t.Setenv("POSTGRES_PORT", "5432")
		t.Setenv("ELEVATION_URL", "http://elevation:8080/lookup")
		t.Setenv("ELEVATION_CHUNK_SIZE", "500")
		t.Setenv("ELEVATION_CACHE_TTL", "1h")
		t.Setenv("SIMPLIFY_TOLERANCE_M", "5.5")
		t.Setenv("WORKER_COUNT", "8")
		t.Setenv("OTEL_ENABLED", "false")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}

		if cfg.ServiceName != "test-service" {
			t.Errorf("expected ServiceName 'test-service', got '%s'", cfg.ServiceName)
		}
		if cfg.GRPCPort != "9999" {
			t.Errorf("expected GRPCPort '9999', got '%s'", cfg.GRPCPort)
		}
		if cfg.PostgresPort != "5432" {
			t.Errorf("expected PostgresPort '5432', got '%s'", cfg.PostgresPort)
		}
		if cfg.ElevationURL != "http://elevation:8080/lookup" {
			t.Errorf("unexpected ElevationURL '%s'", cfg.ElevationURL)
		}
		if cfg.ElevationChunkSize != 500 {
			t.Errorf("expected ElevationChunkSize 500, got %d", cfg.ElevationChunkSize)
		}
		if cfg.ElevationCacheTTL != time.Hour {
			t.Errorf("expected ElevationCacheTTL 1h, got %s", cfg.ElevationCacheTTL)
		}
		if cfg.SimplifyToleranceM != 5.5 {
			t.Errorf("expected SimplifyToleranceM 5.5, got %f", cfg.SimplifyToleranceM)
		}
		if cfg.WorkerCount != 8 {
			t.Errorf("expected WorkerCount 8, got %d", cfg.WorkerCount)
		}
		if cfg.OTELEnabled {
			t.Error("expected OTELEnabled false")
		}
	})

	invalid := []struct {
		key   string
		value string
	}{
		{"SIMPLIFY_TOLERANCE_M", "invalid"},
		{"ELEVATION_TIMEOUT", "soon"},
		{"ELEVATION_CHUNK_SIZE", "0"},
		{"ELEVATION_CHUNK_SIZE", "lots"},
		{"ELEVATION_CHUNK_SIZE", "2001"},
		{"SIMPLIFY_TOLERANCE_M", "-0.5"},
		{"WORKER_COUNT", "-1"},
		{"BUILD_TIMEOUT", "10"},
		{"OTEL_ENABLED", "maybe"},
	}
	for _, tt := range invalid {
		t.Run("returns error for invalid "+tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost:     "192.168.1.175",
		PostgresPort:     "6432",
		PostgresDB:       "owntracks",
		PostgresUser:     "testuser",
		PostgresPassword: "testpass",
	}

	expected := "host=192.168.1.175 port=6432 dbname=owntracks user=testuser password=testpass sslmode=disable"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("expected DSN '%s', got '%s'", expected, dsn)
	}
}
