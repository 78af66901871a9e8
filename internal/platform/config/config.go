package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Host        string `env:"HOST" default:"0.0.0.0"`
	Port        string `env:"PORT" default:"8000"`
	AppURL      string `env:"APP_URL" default:"http://localhost:8000"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	PingInterval  time.Duration `env:"WS_PING_INTERVAL" default:"30s"`
	MaxFrameBytes int64         `env:"WS_MAX_FRAME_BYTES" default:"1048576"` // 1 MiB

	HTTPRateLimit float64       `env:"HTTP_RATE_LIMIT" default:"5"`
	HTTPRateBurst int           `env:"HTTP_RATE_BURST" default:"50"`
	WSRateLimit   int           `env:"WS_RATE_LIMIT" default:"5"`
	WSRateWindow  time.Duration `env:"WS_RATE_WINDOW" default:"2s"`

	MatchCacheTTL time.Duration `env:"MATCH_CACHE_TTL" default:"30s"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return c.Host + ":" + c.Port
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

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	if cfg.PingInterval <= 0 {
		return errors.New("WS_PING_INTERVAL must be positive")
	}
	if cfg.MaxFrameBytes <= 0 {
		return errors.New("WS_MAX_FRAME_BYTES must be positive")
	}
	if cfg.HTTPRateLimit <= 0 || cfg.HTTPRateBurst <= 0 {
		return errors.New("HTTP_RATE_LIMIT and HTTP_RATE_BURST must be positive")
	}
	if cfg.WSRateLimit <= 0 || cfg.WSRateWindow <= 0 {
		return errors.New("WS_RATE_LIMIT and WS_RATE_WINDOW must be positive")
	}

	if cfg.IsProduction() {
		mode := sslMode(cfg.DatabaseURL)
		if mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
