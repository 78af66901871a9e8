package httpserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/pscheid92/sportzlive/internal/platform/errors"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// AcceptLimiter decides whether a client IP may open another WebSocket.
// Implementations are shared across instances (see the Redis limiter).
type AcceptLimiter interface {
	Allow(ctx context.Context, ip string) (bool, error)
}

func rateLimitExceeded(c echo.Context) error {
	return HandleError(c, apperrors.RateLimitedError("rate limit exceeded"))
}

// newRateLimiter limits requests per client IP with an in-process token bucket.
// onDeny may be nil.
func newRateLimiter(ratePerSecond float64, burst int, onDeny func()) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if onDeny != nil {
				onDeny()
			}
			return rateLimitExceeded(c)
		},
	})
}

// newAcceptLimiter gates WebSocket upgrades through a shared AcceptLimiter.
// When the limiter itself fails the connection is let through.
func newAcceptLimiter(limiter AcceptLimiter, onDeny func()) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			allowed, err := limiter.Allow(c.Request().Context(), ip)
			if err != nil {
				slog.WarnContext(c.Request().Context(), "Accept limiter unavailable, allowing connection", "remote_addr", ip, "error", err)
				return next(c)
			}
			if !allowed {
				if onDeny != nil {
					onDeny()
				}
				return rateLimitExceeded(c)
			}
			return next(c)
		}
	}
}
