// Package config loads runtime configuration: built-in defaults, an optional
// TOML file, then environment variables (highest precedence). A .env file in
// the working directory is folded into the environment before reading.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Port string `toml:"port"`
	// BaseURL is the externally visible origin used for share links and QR
	// codes, e.g. "https://polls.example.com".
	BaseURL string `toml:"base_url"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    "8080",
			BaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Path: "pollapp.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load resolves the configuration. The TOML path comes from POLLAPP_CONFIG
// (or the given fallback); a missing file is not an error.
func Load(path string) (*Config, error) {
	// Best-effort: absent .env files are the normal case.
	godotenv.Load()

	if env := os.Getenv("POLLAPP_CONFIG"); env != "" {
		path = env
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("POLLAPP_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("POLLAPP_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("POLLAPP_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("POLLAPP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
