package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "DATA_DIR", "SESSION_TTL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %q", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected environment development, got %q", cfg.Environment)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("Expected log level INFO, got %v", cfg.LogLevel)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Errorf("Expected redis localhost:6379, got %q", cfg.RedisURL)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("Expected data dir ./data, got %q", cfg.DataDir)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("Expected session TTL 24h, got %v", cfg.SessionTTL)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("SESSION_TTL", "90m")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %q", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Errorf("Expected log level WARN, got %v", cfg.LogLevel)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Errorf("Expected session TTL 90m, got %v", cfg.SessionTTL)
	}
}

func TestParseDuration_Fallback(t *testing.T) {
	for _, in := range []string{"soon", "-5s"} {
		if got := parseDuration(in, time.Minute); got != time.Minute {
			t.Errorf("parseDuration(%q) = %v, want fallback 1m", in, got)
		}
	}
}
