package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	"github.com/pscheid92/sportzlive/internal/domain"
	"github.com/pscheid92/sportzlive/internal/platform/config"
)

type appService interface {
	CreateMatch(ctx context.Context, in domain.NewMatch) (*domain.Match, error)
	ListMatches(ctx context.Context, limit int) ([]domain.Match, error)
	GetMatch(ctx context.Context, id domain.MatchID) (*domain.Match, error)
	UpdateScore(ctx context.Context, id domain.MatchID, homeScore, awayScore int) (*domain.Match, error)
	CreateCommentary(ctx context.Context, in domain.NewCommentary) (*domain.Commentary, error)
	ListCommentary(ctx context.Context, matchID domain.MatchID, limit int) ([]domain.Commentary, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app              appService
	websocketHandler http.Handler
	acceptLimiter    AcceptLimiter
	metrics          *metrics.Metrics

	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer wires the REST API, the WebSocket endpoint and the operational
// endpoints. acceptLimiter may be nil, in which case WebSocket accepts are
// limited per process.
func NewServer(cfg *config.Config, app appService, websocketHandler http.Handler, acceptLimiter AcceptLimiter, m *metrics.Metrics, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handleHTTPError

	srv := &Server{
		echo:             e,
		config:           cfg,
		app:              app,
		websocketHandler: websocketHandler,
		acceptLimiter:    acceptLimiter,
		metrics:          m,
		healthChecks:     healthChecks,
		startTime:        time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "addr", s.config.ListenAddr())
	if err := s.echo.Start(s.config.ListenAddr()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router for in-process tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
