package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8000/api/v1" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.OutputFormat != "text" {
		t.Errorf("OutputFormat = %q, want text", cfg.OutputFormat)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIGIL_API_BASE_URL", "https://api.staging.example.com/api/v1")
	t.Setenv("VIGIL_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://api.staging.example.com/api/v1" {
		t.Errorf("APIBaseURL = %q, env override ignored", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, env override ignored", cfg.LogLevel)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := Default()
	cfg.APIBaseURL = "https://api.example.com/api/v1"
	cfg.Timeout = 45 * time.Second
	cfg.OutputFormat = "json"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.APIBaseURL != cfg.APIBaseURL {
		t.Errorf("APIBaseURL = %q, want %q", loaded.APIBaseURL, cfg.APIBaseURL)
	}
	if loaded.Timeout != cfg.Timeout {
		t.Errorf("Timeout = %v, want %v", loaded.Timeout, cfg.Timeout)
	}
	if loaded.OutputFormat != "json" {
		t.Errorf("OutputFormat = %q, want json", loaded.OutputFormat)
	}
}

func TestSaveCreatesDirAndRestrictsPermissions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := Save(Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(home, ".vigil", "config.yaml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}
}

func TestSessionDBPath(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/vigil-test"}
	if got := cfg.SessionDBPath(); got != "/tmp/vigil-test/session.db" {
		t.Errorf("SessionDBPath = %q", got)
	}
}

func TestMissingConfigFileIsNotAnError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := Load(); err != nil {
		t.Errorf("Load without config file: %v", err)
	}
}
