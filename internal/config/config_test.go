package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Session.JoinGrace != 10*time.Minute {
		t.Errorf("JoinGrace = %v, want 10m", cfg.Session.JoinGrace)
	}
	if cfg.Cleanup.Interval != time.Minute {
		t.Errorf("Cleanup.Interval = %v, want 1m", cfg.Cleanup.Interval)
	}
	if cfg.Notify.Channel != "interview:notifications" {
		t.Errorf("Notify.Channel = %q", cfg.Notify.Channel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_JOIN_GRACE", "5m")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Session.JoinGrace != 5*time.Minute {
		t.Errorf("JoinGrace = %v, want 5m", cfg.Session.JoinGrace)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("MaxOpenConns = %d, want 50", cfg.Database.MaxOpenConns)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 7000\nsession:\n  join_grace: 15m\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REDIS_ADDRESS", "redis:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want 7000 from file", cfg.Server.Port)
	}
	if cfg.Session.JoinGrace != 15*time.Minute {
		t.Errorf("JoinGrace = %v, want 15m from file", cfg.Session.JoinGrace)
	}
	// Values the file does not mention keep their env settings
	if cfg.Redis.Address != "redis:6379" {
		t.Errorf("Redis.Address = %q, want env value", cfg.Redis.Address)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("SERVER_PORT", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid port")
	}

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("DATABASE_DSN", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for empty DSN")
	}
}
