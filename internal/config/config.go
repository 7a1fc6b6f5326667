package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimitRule defines a fixed-window budget for a single endpoint.
type RateLimitRule struct {
	MaxRequests   int   `yaml:"max_requests"`
	WindowSeconds int64 `yaml:"window_seconds"`
}

// Window returns the rule's window as a duration.
func (r RateLimitRule) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"` // "debug" or "release"
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"` // empty means the in-memory store
	} `yaml:"database"`
	Auth struct {
		JWTSecret             string `yaml:"jwt_secret"`
		AccessTokenTTLSeconds int64  `yaml:"access_token_ttl_seconds"`
	} `yaml:"auth"`
	RateLimit struct {
		Login                RateLimitRule `yaml:"login"`
		Register             RateLimitRule `yaml:"register"`
		Refresh              RateLimitRule `yaml:"refresh"`
		SweepIntervalSeconds int64         `yaml:"sweep_interval_seconds"`
	} `yaml:"rate_limit"`
	Notifications struct {
		Enabled          bool   `yaml:"enabled"`
		TelegramBotToken string `yaml:"telegram_bot_token"`
		TelegramChatID   int64  `yaml:"telegram_chat_id"`
	} `yaml:"notifications"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenTTLSeconds) * time.Second
}

// SweepInterval returns how often expired rate windows are collected.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.RateLimit.SweepIntervalSeconds) * time.Second
}

// LoadConfig reads configuration from the specified YAML file and applies
// environment overrides. Secrets are expected to come from the environment
// in production deployments.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnvOverrides()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Auth.AccessTokenTTLSeconds <= 0 {
		c.Auth.AccessTokenTTLSeconds = int64((7 * 24 * time.Hour).Seconds())
	}
	if c.RateLimit.Login.MaxRequests <= 0 {
		c.RateLimit.Login = RateLimitRule{MaxRequests: 10, WindowSeconds: 15 * 60}
	}
	if c.RateLimit.Register.MaxRequests <= 0 {
		c.RateLimit.Register = RateLimitRule{MaxRequests: 5, WindowSeconds: 60 * 60}
	}
	if c.RateLimit.Refresh.MaxRequests <= 0 {
		c.RateLimit.Refresh = RateLimitRule{MaxRequests: 30, WindowSeconds: 15 * 60}
	}
	if c.RateLimit.SweepIntervalSeconds <= 0 {
		c.RateLimit.SweepIntervalSeconds = 60 * 60
	}
}

// Validate checks invariants that must hold before the server starts.
// A missing signing secret is a startup error, never a per-request one.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) is required")
	}
	if c.Notifications.Enabled && c.Notifications.TelegramBotToken == "" {
		return errors.New("notifications.telegram_bot_token is required when notifications are enabled")
	}
	return nil
}
