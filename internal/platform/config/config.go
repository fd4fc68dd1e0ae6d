package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// DefaultPasteTTL applies when PASTE_EXPIRES_AFTER_SECONDS is missing or unusable.
const DefaultPasteTTL = 900 * time.Second

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Host      string `env:"HOST" default:"0.0.0.0"`
	Port      string `env:"PORT" default:"8000"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Kept as a string so a malformed value degrades to the default instead of aborting startup.
	PasteExpiresAfterSeconds string        `env:"PASTE_EXPIRES_AFTER_SECONDS" default:"900"`
	ExpirySweepInterval      time.Duration `env:"EXPIRY_SWEEP_INTERVAL" default:"1s"`

	MaxWebSocketConnections int     `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP     int     `env:"MAX_CONNECTIONS_PER_IP" default:"50"`
	ConnectionRatePerSecond float64 `env:"CONNECTION_RATE_PER_SECOND" default:"10"`
	ConnectionBurst         int     `env:"CONNECTION_BURST" default:"20"`
	MaxMessageBytes         int64   `env:"MAX_MESSAGE_BYTES" default:"1048576"`

	PageRatePerSecond float64 `env:"PAGE_RATE_PER_SECOND" default:"20"`
	PageBurst         int     `env:"PAGE_BURST" default:"40"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// maxPasteTTLSeconds is the largest whole-second count a time.Duration can hold.
const maxPasteTTLSeconds = math.MaxInt64 / int64(time.Second)

// PasteTTL parses PASTE_EXPIRES_AFTER_SECONDS. Unparsable or out-of-range
// values fall back to DefaultPasteTTL; zero or negative values expire content
// on the next read.
func (c *Config) PasteTTL() time.Duration {
	raw := strings.TrimSpace(c.PasteExpiresAfterSeconds)
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds > maxPasteTTLSeconds {
		slog.Warn("Invalid PASTE_EXPIRES_AFTER_SECONDS, using default",
			"value", c.PasteExpiresAfterSeconds,
			"default", DefaultPasteTTL,
		)
		return DefaultPasteTTL
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return fmt.Errorf("PORT must be a valid port number: %w", err)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.ExpirySweepInterval < 0 {
		return errors.New("EXPIRY_SWEEP_INTERVAL must not be negative")
	}
	if cfg.MaxWebSocketConnections < 1 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS must be at least 1")
	}
	if cfg.MaxConnectionsPerIP < 1 {
		return errors.New("MAX_CONNECTIONS_PER_IP must be at least 1")
	}
	if cfg.ConnectionRatePerSecond <= 0 {
		return errors.New("CONNECTION_RATE_PER_SECOND must be positive")
	}
	if cfg.ConnectionBurst < 1 {
		return errors.New("CONNECTION_BURST must be at least 1")
	}
	if cfg.PageRatePerSecond <= 0 {
		return errors.New("PAGE_RATE_PER_SECOND must be positive")
	}
	if cfg.PageBurst < 1 {
		return errors.New("PAGE_BURST must be at least 1")
	}
	if cfg.MaxMessageBytes < 1 {
		return errors.New("MAX_MESSAGE_BYTES must be at least 1")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	return nil
}
