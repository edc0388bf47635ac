// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Settings holds the runtime configuration of the game server.
type Settings struct {
	Host          string `env:"HOST" envDefault:"localhost"`
	Port          int    `env:"PORT" envDefault:"8080"`
	ConfigDir     string `env:"CONFIG_DIR" envDefault:"configs"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"file"`
	SessionsDir   string `env:"SESSIONS_DIR" envDefault:"sessions"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/ratrace.db"`
	DatabaseURL   string `env:"DATABASE_URL"`
	TurnTick      string `env:"TURN_TICK" envDefault:"1s"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// LoadSettings parses Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
