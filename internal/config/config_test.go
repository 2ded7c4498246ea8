package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != "8090" {
		t.Errorf("Port = %s, want 8090", cfg.Server.Port)
	}
	if cfg.Task.HardTimeLimit != 30*time.Minute {
		t.Errorf("HardTimeLimit = %v, want 30m", cfg.Task.HardTimeLimit)
	}
	if cfg.Task.SoftTimeLimit != 25*time.Minute {
		t.Errorf("SoftTimeLimit = %v, want 25m", cfg.Task.SoftTimeLimit)
	}
	if cfg.Task.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Task.Workers)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("Model = %s, want gpt-4o", cfg.OpenAI.Model)
	}
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error without OPENAI_API_KEY")
	}
}

func TestLoadConfig_SoftLimitMustBeShorter(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASK_SOFT_TIME_LIMIT", "40m")
	t.Setenv("TASK_HARD_TIME_LIMIT", "30m")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error when soft limit exceeds hard limit")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASK_WORKERS", "8")
	t.Setenv("TASK_SOFT_TIME_LIMIT", "10m")
	t.Setenv("TASK_HARD_TIME_LIMIT", "15m")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Task.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Task.Workers)
	}
	if cfg.Task.SoftTimeLimit != 10*time.Minute {
		t.Errorf("SoftTimeLimit = %v, want 10m", cfg.Task.SoftTimeLimit)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "falcon",
		Password: "secret",
		Database: "falcon",
		SSLMode:  "disable",
	}

	want := "host=db port=5432 user=falcon password=secret dbname=falcon sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
