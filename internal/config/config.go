// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// minSecretLen is the shortest JWT_SECRET accepted.
const minSecretLen = 16

// Config holds the environment driven configuration for the server.
type Config struct {
	Port          int           `env:"PORT" envDefault:"8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/codefixer.db"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT" envDefault:"text"`
	LogFile       string        `env:"LOG_FILE"`
	JWTSecret     string        `env:"JWT_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`

	OpenAI OpenAI
	GitHub GitHub
}

// OpenAI configures the inference client.
type OpenAI struct {
	APIKey  string        `env:"OPENAI_API_KEY,required"`
	BaseURL string        `env:"OPENAI_BASE_URL"`
	Model   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	Timeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"0s"`
}

// GitHub configures the optional OAuth sign-in. Sign-in is disabled when
// ClientID is empty.
type GitHub struct {
	ClientID     string `env:"GITHUB_CLIENT_ID"`
	ClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	CallbackURL  string `env:"GITHUB_CALLBACK_URL"`
}

// Enabled reports whether GitHub sign-in is configured.
func (g GitHub) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load reads an optional .env file and parses the environment into Config.
//
// Variables already set in the process environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

// FromMap parses configuration from vars instead of the process environment.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLen)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.OpenAI.Timeout < 0 {
		return errors.New("OPENAI_TIMEOUT must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.GitHub.ClientID != "" && c.GitHub.CallbackURL == "" {
		c.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", c.Port)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
