package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sportzlive/internal/adapter/httpserver"
	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	"github.com/pscheid92/sportzlive/internal/adapter/postgres"
	"github.com/pscheid92/sportzlive/internal/adapter/redis"
	"github.com/pscheid92/sportzlive/internal/adapter/websocket"
	"github.com/pscheid92/sportzlive/internal/app"
	"github.com/pscheid92/sportzlive/internal/broadcast"
	"github.com/pscheid92/sportzlive/internal/domain"
	"github.com/pscheid92/sportzlive/internal/platform/config"
	"github.com/pscheid92/sportzlive/internal/platform/logging"
	"github.com/pscheid92/sportzlive/internal/platform/retry"
	"github.com/pscheid92/sportzlive/internal/platform/version"
	"github.com/pscheid92/sportzlive/internal/protocol"
	goredis "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout = 10 * time.Second
	startupTimeout  = 60 * time.Second
)

func runGracefulShutdown(srv *httpserver.Server, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Closes every socket with 1001; hijacked WebSocket connections are not
		// tracked by the HTTP server shutdown above.
		hub.Stop()

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func classifyConnectError(err error) retry.Action {
	var parseErr *pgconn.ParseConfigError
	if errors.As(err, &parseErr) {
		return retry.Stop
	}
	return retry.Retry
}

func setupDB(cfg *config.Config, m *metrics.Metrics, clock clockwork.Clock) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	policy := retry.Policy{
		MaxAttempts:    6,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
		Clock:          clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Database not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	tracer := postgres.NewMetricsTracer(m.Database)

	pool, err := retry.Do(ctx, policy, classifyConnectError, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

// setupRedis returns nil when REDIS_URL is unset; the service then runs
// without the match cache and with per-process accept limiting.
func setupRedis(cfg *config.Config, m *metrics.Metrics) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, running without Redis")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL, m.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "version", version.Get().String())

	m := metrics.New()

	pool := setupDB(cfg, m, clock)
	defer pool.Close()

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
	}

	var (
		cache         domain.MatchCache
		acceptLimiter httpserver.AcceptLimiter
	)
	redisClient := setupRedis(cfg, m)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		cache = redis.NewMatchCache(redisClient, cfg.MatchCacheTTL, m.Cache)
		acceptLimiter = redis.NewConnectionLimiter(redisClient, clock, cfg.WSRateLimit, cfg.WSRateWindow)
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	hub := broadcast.NewHub(clock, cfg.PingInterval, m.WebSocket)
	dispatcher := broadcast.NewDispatcher(hub, m.WebSocket)
	router := protocol.NewRouter(hub, m.WebSocket)

	appSvc := app.NewService(
		postgres.NewMatchRepo(pool),
		postgres.NewCommentaryRepo(pool),
		cache,
		dispatcher,
		clock,
	)

	checkOrigin := websocket.NewCheckOrigin(cfg.AppURL, !cfg.IsProduction())
	wsHandler, err := websocket.NewHandler(hub, router, checkOrigin, cfg.MaxFrameBytes, clock, m.WebSocket)
	if err != nil {
		slog.Error("Failed to create WebSocket handler", "error", err)
		os.Exit(1)
	}

	srv := httpserver.NewServer(cfg, appSvc, wsHandler, acceptLimiter, m, healthChecks)

	done := runGracefulShutdown(srv, hub)

	slog.Info("Server is running", "ws", "ws://"+cfg.ListenAddr()+"/ws")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
