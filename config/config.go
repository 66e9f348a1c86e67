package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the command-line host's settings
type Config struct {
	ClientID     string `env:"DESKAUTH_CLIENT_ID"`
	ClientSecret string `env:"DESKAUTH_CLIENT_SECRET"`
	RedirectPort int    `env:"DESKAUTH_REDIRECT_PORT" envDefault:"8080"`
	RedirectURL  string `env:"DESKAUTH_REDIRECT_URL"`

	// Issuer switches endpoint resolution to OpenID Connect discovery
	Issuer string `env:"DESKAUTH_ISSUER"`

	CallbackTimeout time.Duration `env:"DESKAUTH_CALLBACK_TIMEOUT" envDefault:"5m"`
	StrictState     bool          `env:"DESKAUTH_STRICT_STATE" envDefault:"true"`

	LogEnv   string `env:"DESKAUTH_LOG_ENV" envDefault:"dev"`
	LogLevel string `env:"DESKAUTH_LOG_LEVEL" envDefault:"info"`
}

// Load reads the given .env files (".env" when none are given) and then the
// environment. Missing files are ignored; variables already set win.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
