package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath        = "config.toml"
	DefaultHTTPAddr          = ":8080"
	DefaultDataRoot          = "data"
	DefaultMaxIdentities     = 3
	DefaultSessionTimeoutMin = 30
	DefaultStaleIdentityDays = 7
	DefaultQRWindowSec       = 60
)

type Config struct {
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Pool   PoolConfig   `toml:"pool"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DataConfig struct {
	// Root holds every persisted document: replies.json, settings.json,
	// tickets.json, identities.json, and one directory per identity.
	Root string `toml:"root"`
}

type PoolConfig struct {
	// MaxIdentities bounds the number of concurrently registered identities.
	MaxIdentities int `toml:"max_identities"`
	// SessionTimeoutMinutes is the dialog-session inactivity eviction window.
	SessionTimeoutMinutes int `toml:"session_timeout_minutes"`
	// StaleIdentityDays is the age threshold for the working-directory sweep.
	StaleIdentityDays int `toml:"stale_identity_days"`
	// QRWindowSeconds bounds how long an emitted QR payload stays retrievable.
	QRWindowSeconds int `toml:"qr_window_seconds"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Data: DataConfig{
			Root: DefaultDataRoot,
		},
		Pool: PoolConfig{
			MaxIdentities:         DefaultMaxIdentities,
			SessionTimeoutMinutes: DefaultSessionTimeoutMin,
			StaleIdentityDays:     DefaultStaleIdentityDays,
			QRWindowSeconds:       DefaultQRWindowSec,
		},
	}
	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Missing config file falls back to defaults.
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.Pool.MaxIdentities <= 0 {
		cfg.Pool.MaxIdentities = DefaultMaxIdentities
	}
	if cfg.Pool.SessionTimeoutMinutes <= 0 {
		cfg.Pool.SessionTimeoutMinutes = DefaultSessionTimeoutMin
	}
	if cfg.Pool.StaleIdentityDays <= 0 {
		cfg.Pool.StaleIdentityDays = DefaultStaleIdentityDays
	}
	if cfg.Pool.QRWindowSeconds <= 0 {
		cfg.Pool.QRWindowSeconds = DefaultQRWindowSec
	}
	return cfg, nil
}
