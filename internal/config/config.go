// Package config loads application configuration from the environment.
//
// LOAD ORDER:
//  1. godotenv reads an optional .env file into the process environment.
//     Variables that are already set win over the file.
//  2. viper reads every known key from the environment (AutomaticEnv),
//     falling back to the defaults below.
//  3. The result is unmarshalled into Config and validated.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MinSecretKeyLength matches what the session signer accepts.
const MinSecretKeyLength = 16

// Config holds application configuration values loaded from the environment.
type Config struct {
	Port          int           `mapstructure:"PORT"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	SecretKey     string        `mapstructure:"SECRET_KEY"`
	MyEmail       string        `mapstructure:"MY_EMAIL"`
	AppPassword   string        `mapstructure:"APP_PASSWORD"`
	SMTPHost      string        `mapstructure:"SMTP_HOST"`
	SMTPPort      int           `mapstructure:"SMTP_PORT"`
	MailTimeout   time.Duration `mapstructure:"MAIL_TIMEOUT"`
	RedisURL      string        `mapstructure:"REDIS_URL"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	SecureCookies bool          `mapstructure:"SECURE_COOKIES"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration. envFiles are the .env files to try (".env" when
// none are given); a missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	// Every key needs a default (even an empty one): viper.Unmarshal only
	// looks at keys it already knows about.
	v.SetDefault("PORT", 5000)
	v.SetDefault("DATABASE_URL", "sqlite:///data/posts.db")
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("MY_EMAIL", "")
	v.SetDefault("APP_PASSWORD", "")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_TIMEOUT", "10s")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate ensures that required values are present and sane.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if len(c.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", MinSecretKeyLength)
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", c.SMTPPort)
	}
	if c.MailTimeout <= 0 {
		return errors.New("MAIL_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// MailEnabled reports whether outbound email credentials are configured.
func (c *Config) MailEnabled() bool {
	return c.MyEmail != "" && c.AppPassword != ""
}

// SlogLevel returns LOG_LEVEL as a slog.Level. Validate has already checked it.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", s)
	}
	return level, nil
}
