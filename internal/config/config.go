// Package config provides configuration for the widget host.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds the widget host configuration.
type Config struct {
	// Server settings
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Storage
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:widget.db?cache=shared&mode=rwc"`
	TableName   string `env:"TABLE_NAME" envDefault:"default"`

	// Webhooks
	ChatWebhookURL    string `env:"CHAT_WEBHOOK_URL,notEmpty"`
	LeadWebhookURL    string `env:"LEAD_WEBHOOK_URL"`
	SupportWebhookURL string `env:"SUPPORT_WEBHOOK_URL"`
	HealthCheckURL    string `env:"HEALTH_CHECK_URL"`

	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"5m"`

	// Timeouts
	WebhookTimeoutMS int  `env:"WEBHOOK_TIMEOUT_MS" envDefault:"120000"`
	WebhookStreaming bool `env:"WEBHOOK_STREAMING" envDefault:"true"`
	AuxTimeoutMS     int  `env:"AUX_TIMEOUT_MS" envDefault:"15000"`

	// Features
	BookingEnabled bool   `env:"BOOKING_ENABLED" envDefault:"false"`
	BookingURL     string `env:"BOOKING_URL"`
	SupportEnabled bool   `env:"SUPPORT_ENABLED" envDefault:"true"`
	ItalicEnabled  bool   `env:"ITALIC_ENABLED" envDefault:"false"`

	TypingIntervalMS int `env:"TYPING_INTERVAL_MS" envDefault:"2500"`

	ProfilePath      string `env:"PROFILE_PATH"`
	MarkerPolicyPath string `env:"MARKER_POLICY_PATH"`

	// WebSocket settings
	WSPingIntervalMS int   `env:"WS_PING_INTERVAL_MS" envDefault:"30000"`
	WSWriteTimeoutMS int   `env:"WS_WRITE_TIMEOUT_MS" envDefault:"10000"`
	WSReadTimeoutMS  int   `env:"WS_READ_TIMEOUT_MS" envDefault:"60000"`
	WSMaxMessageSize int64 `env:"WS_MAX_MESSAGE_SIZE" envDefault:"65536"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Display strings and typing phrases, from PROFILE_PATH or defaults.
	Profile *Profile `env:"-"`
}

// Load loads configuration from .env, the environment and the optional profile file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	profile, err := LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}
	cfg.Profile = profile

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.BookingEnabled && c.BookingURL == "" {
		log.Printf("WARN: BOOKING_ENABLED is set without BOOKING_URL, disabling booking")
		c.BookingEnabled = false
	}
	if c.SupportEnabled && c.SupportWebhookURL == "" {
		log.Printf("WARN: SUPPORT_WEBHOOK_URL is not set, disabling the contact form")
		c.SupportEnabled = false
	}
	if c.TypingIntervalMS <= 0 {
		c.TypingIntervalMS = 2500
	}
	if c.TableName == "" {
		c.TableName = "default"
	}
}

// WebhookTimeout is the budget for one chat request, body read included.
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutMS) * time.Millisecond
}

// AuxTimeout bounds lead, newsletter, support and health-check calls.
func (c *Config) AuxTimeout() time.Duration {
	return time.Duration(c.AuxTimeoutMS) * time.Millisecond
}

func (c *Config) TypingInterval() time.Duration {
	return time.Duration(c.TypingIntervalMS) * time.Millisecond
}

func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.WSPingIntervalMS) * time.Millisecond
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WSWriteTimeoutMS) * time.Millisecond
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.WSReadTimeoutMS) * time.Millisecond
}

// SessionsKey is the storage key of the persisted session history.
func (c *Config) SessionsKey() string {
	return "bm_sessions_" + c.TableName
}
