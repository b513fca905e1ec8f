package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if cfg.Pool.MaxIdentities != DefaultMaxIdentities {
		t.Fatalf("unexpected max identities: %d", cfg.Pool.MaxIdentities)
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
level = "debug"
format = "json"

[server]
addr = ":9090"

[pool]
max_identities = -2
session_timeout_minutes = 15
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Log.Level != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Pool.SessionTimeoutMinutes != 15 {
		t.Fatalf("pool override lost: %+v", cfg.Pool)
	}
	// Nonsensical values floor back to the defaults.
	if cfg.Pool.MaxIdentities != DefaultMaxIdentities {
		t.Fatalf("negative max_identities must clamp: %d", cfg.Pool.MaxIdentities)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
