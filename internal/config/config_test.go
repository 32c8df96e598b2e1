package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Scheduler.Interval != "5m" {
		t.Fatalf("expected default interval, got %q", cfg.Scheduler.Interval)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
}

func TestLoadYAMLKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("server:\n  addr: \":9090\"\nadmin:\n  username: placement\n  password: secret\nemail:\n  to:\n    - tpo@example.com\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected yaml addr, got %q", cfg.Server.Addr)
	}
	if cfg.Admin.Username != "placement" || cfg.Admin.Password != "secret" {
		t.Fatalf("unexpected admin %+v", cfg.Admin)
	}
	if len(cfg.Email.To) != 1 || cfg.Email.To[0] != "tpo@example.com" {
		t.Fatalf("unexpected recipients %v", cfg.Email.To)
	}
	if cfg.Server.ShutdownTimeout != "5s" {
		t.Fatalf("expected default shutdown timeout, got %q", cfg.Server.ShutdownTimeout)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("redis:\n  addr: localhost:6379\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORTAL_REDIS_ADDR", "cache:6379")
	t.Setenv("PORTAL_SCHEDULER_INTERVAL", "*/10 * * * *")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Fatalf("expected env addr, got %q", cfg.Redis.Addr)
	}
	if cfg.Scheduler.Interval != "*/10 * * * *" {
		t.Fatalf("expected env interval, got %q", cfg.Scheduler.Interval)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
