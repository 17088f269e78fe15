package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
	}
	d, err := cfg.TokenDuration()
	if err != nil {
		t.Fatalf("TokenDuration failed: %v", err)
	}
	if d != 24*time.Hour {
		t.Errorf("token duration = %v, want 24h", d)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
addr = ":9999"

[auth]
jwt_secret = "from-file"
token_duration = "1h"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr = %q, want :9999", cfg.Server.Addr)
	}
	// Env beats file.
	if cfg.Auth.JWTSecret != "from-env" {
		t.Errorf("jwt_secret = %q, want from-env", cfg.Auth.JWTSecret)
	}
	d, err := cfg.TokenDuration()
	if err != nil {
		t.Fatalf("TokenDuration failed: %v", err)
	}
	if d != time.Hour {
		t.Errorf("token duration = %v, want 1h", d)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DBPath != "./data/tripsplit.db" {
		t.Errorf("db_path = %q, want default", cfg.Storage.DBPath)
	}
}
