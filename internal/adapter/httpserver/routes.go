package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const welcomeText = "Welcome to the Sportz Live API"

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.metrics.HTTP.Middleware())
	s.echo.Use(ErrorHandlingMiddleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            63072000, // 2 years; only sent over HTTPS
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	}))

	s.echo.GET("/", s.handleRoot)

	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	matches := s.echo.Group("/matches", newRateLimiter(s.config.HTTPRateLimit, s.config.HTTPRateBurst, nil))
	s.registerMatchRoutes(matches)
	s.registerCommentaryRoutes(matches)

	s.echo.GET("/ws", echo.WrapHandler(s.websocketHandler), s.setupAcceptLimiter())
}

// setupAcceptLimiter prefers the shared limiter and falls back to an
// in-process one allowing WSRateLimit accepts per WSRateWindow.
func (s *Server) setupAcceptLimiter() echo.MiddlewareFunc {
	onDeny := func() {
		s.metrics.WebSocket.RejectedConnections.WithLabelValues("rate_limited").Inc()
	}
	if s.acceptLimiter != nil {
		return newAcceptLimiter(s.acceptLimiter, onDeny)
	}
	perSecond := float64(s.config.WSRateLimit) / s.config.WSRateWindow.Seconds()
	return newRateLimiter(perSecond, s.config.WSRateLimit, onDeny)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.String(http.StatusOK, welcomeText)
}
