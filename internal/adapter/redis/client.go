package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient connects to redisURL (e.g. "redis://localhost:6379/0") with the
// metrics and circuit breaker hooks installed, and verifies the connection.
func NewClient(ctx context.Context, redisURL string, m *metrics.RedisMetrics) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(opts)
	client.AddHook(NewMetricsHook(m))
	client.AddHook(NewCircuitBreakerHook(m))

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	slog.Info("Redis connected", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}
