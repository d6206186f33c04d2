package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("API_KEY", "test-api-key-32-characters-long!")
	os.Setenv("OAUTH_CLIENT_ID", "client-id")
	os.Setenv("OAUTH_CLIENT_SECRET", "client-secret")
	t.Cleanup(func() {
		os.Unsetenv("API_KEY")
		os.Unsetenv("OAUTH_CLIENT_ID")
		os.Unsetenv("OAUTH_CLIENT_SECRET")
	})
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	ctx := context.Background()
	cfg, err := Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	// Test default values
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected Server.Port to be '8080', got '%s'", cfg.Server.Port)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected Server.Host to be '0.0.0.0', got '%s'", cfg.Server.Host)
	}

	if cfg.Postgres.Host != "localhost" {
		t.Errorf("Expected Postgres.Host to be 'localhost', got '%s'", cfg.Postgres.Host)
	}

	if cfg.Redis.Host != "localhost" {
		t.Errorf("Expected Redis.Host to be 'localhost', got '%s'", cfg.Redis.Host)
	}

	if cfg.Scheduler.PollInterval.Duration != 60*time.Second {
		t.Errorf("Expected Scheduler.PollInterval to be 60s, got %v", cfg.Scheduler.PollInterval.Duration)
	}

	if cfg.Scheduler.LookAhead.Duration != 24*time.Hour {
		t.Errorf("Expected Scheduler.LookAhead to be 24h, got %v", cfg.Scheduler.LookAhead.Duration)
	}

	if cfg.Scheduler.DueGrace.Duration != 5*time.Minute {
		t.Errorf("Expected Scheduler.DueGrace to be 5m, got %v", cfg.Scheduler.DueGrace.Duration)
	}

	if cfg.Scheduler.LedgerRetention.Duration != 7*24*time.Hour {
		t.Errorf("Expected Scheduler.LedgerRetention to be 7d, got %v", cfg.Scheduler.LedgerRetention.Duration)
	}

	if cfg.Scheduler.DefaultTimezone != "UTC" {
		t.Errorf("Expected Scheduler.DefaultTimezone to be 'UTC', got '%s'", cfg.Scheduler.DefaultTimezone)
	}

	if cfg.Providers.RequestTimeout.Duration != 15*time.Second {
		t.Errorf("Expected Providers.RequestTimeout to be 15s, got %v", cfg.Providers.RequestTimeout.Duration)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be 'development', got '%s'", cfg.Env)
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		t.Error("Expected CORS.AllowedOrigins to have at least one value")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("POSTGRES_HOST", "postgres.example.com")
	os.Setenv("SCHEDULER_POLL_INTERVAL", "30s")
	os.Setenv("SCHEDULER_LEDGER_RETENTION", "2d")
	os.Setenv("ENV", "production")
	defer func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("POSTGRES_HOST")
		os.Unsetenv("SCHEDULER_POLL_INTERVAL")
		os.Unsetenv("SCHEDULER_LEDGER_RETENTION")
		os.Unsetenv("ENV")
	}()

	ctx := context.Background()
	cfg, err := Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected Server.Port to be '9090', got '%s'", cfg.Server.Port)
	}

	if cfg.Postgres.Host != "postgres.example.com" {
		t.Errorf("Expected Postgres.Host to be 'postgres.example.com', got '%s'", cfg.Postgres.Host)
	}

	if cfg.Scheduler.PollInterval.Duration != 30*time.Second {
		t.Errorf("Expected Scheduler.PollInterval to be 30s, got %v", cfg.Scheduler.PollInterval.Duration)
	}

	if cfg.Scheduler.LedgerRetention.Duration != 2*24*time.Hour {
		t.Errorf("Expected Scheduler.LedgerRetention to be 2d, got %v", cfg.Scheduler.LedgerRetention.Duration)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be 'production', got '%s'", cfg.Env)
	}
}

func TestLoadWithoutAPIKey(t *testing.T) {
	os.Unsetenv("API_KEY")
	os.Setenv("OAUTH_CLIENT_ID", "client-id")
	os.Setenv("OAUTH_CLIENT_SECRET", "client-secret")
	defer func() {
		os.Unsetenv("OAUTH_CLIENT_ID")
		os.Unsetenv("OAUTH_CLIENT_SECRET")
	}()

	ctx := context.Background()
	_, err := Load(ctx)
	if err == nil {
		t.Error("Expected error when API_KEY is not set")
	}
}

func TestLoadWithShortAPIKey(t *testing.T) {
	os.Setenv("API_KEY", "short")
	os.Setenv("OAUTH_CLIENT_ID", "client-id")
	os.Setenv("OAUTH_CLIENT_SECRET", "client-secret")
	defer func() {
		os.Unsetenv("API_KEY")
		os.Unsetenv("OAUTH_CLIENT_ID")
		os.Unsetenv("OAUTH_CLIENT_SECRET")
	}()

	ctx := context.Background()
	_, err := Load(ctx)
	if err == nil {
		t.Error("Expected error when API_KEY is too short")
	}
}

func TestPostgresDSN(t *testing.T) {
	pg := PostgresConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "test_user",
		Password: "test_password",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	dsn := pg.DSN()
	expected := "host=localhost port=5432 user=test_user password=test_password dbname=test_db sslmode=disable"
	if dsn != expected {
		t.Errorf("Expected DSN to be '%s', got '%s'", expected, dsn)
	}
}

func TestRedisAddress(t *testing.T) {
	redis := RedisConfig{
		Host: "localhost",
		Port: "6379",
	}

	addr := redis.Address()
	expected := "localhost:6379"
	if addr != expected {
		t.Errorf("Expected Address to be '%s', got '%s'", expected, addr)
	}
}
