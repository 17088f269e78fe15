// Package config loads tripsplit server configuration from a TOML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all tripsplit server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Auth    AuthConfig    `toml:"auth"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	MetricsAddr string `toml:"metrics_addr"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret"`
	TokenDuration string `toml:"token_duration"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsAddr: ":9090",
		},
		Storage: StorageConfig{
			DBPath: "./data/tripsplit.db",
		},
		Auth: AuthConfig{
			TokenDuration: "24h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path (defaults apply when path is empty or
// the file does not exist), then applies environment overrides:
// TRIPSPLIT_ADDR, TRIPSPLIT_METRICS_ADDR, DB_PATH, JWT_SECRET, LOG_LEVEL.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config: %w", err)
			}
		} else if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg.Server.Addr, "TRIPSPLIT_ADDR")
	applyEnv(&cfg.Server.MetricsAddr, "TRIPSPLIT_METRICS_ADDR")
	applyEnv(&cfg.Storage.DBPath, "DB_PATH")
	applyEnv(&cfg.Auth.JWTSecret, "JWT_SECRET")
	applyEnv(&cfg.Logging.Level, "LOG_LEVEL")

	return cfg, nil
}

// TokenDuration parses the configured token lifetime.
func (c Config) TokenDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Auth.TokenDuration)
	if err != nil {
		return 0, fmt.Errorf("invalid token_duration %q: %w", c.Auth.TokenDuration, err)
	}
	return d, nil
}

func applyEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
