package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	"github.com/pscheid92/sportzlive/internal/domain"
	"github.com/pscheid92/sportzlive/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	createMatchFn      func(ctx context.Context, in domain.NewMatch) (*domain.Match, error)
	listMatchesFn      func(ctx context.Context, limit int) ([]domain.Match, error)
	getMatchFn         func(ctx context.Context, id domain.MatchID) (*domain.Match, error)
	updateScoreFn      func(ctx context.Context, id domain.MatchID, homeScore, awayScore int) (*domain.Match, error)
	createCommentaryFn func(ctx context.Context, in domain.NewCommentary) (*domain.Commentary, error)
	listCommentaryFn   func(ctx context.Context, matchID domain.MatchID, limit int) ([]domain.Commentary, error)
}

func (m *mockAppService) CreateMatch(ctx context.Context, in domain.NewMatch) (*domain.Match, error) {
	if m.createMatchFn != nil {
		return m.createMatchFn(ctx, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) ListMatches(ctx context.Context, limit int) ([]domain.Match, error) {
	if m.listMatchesFn != nil {
		return m.listMatchesFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockAppService) GetMatch(ctx context.Context, id domain.MatchID) (*domain.Match, error) {
	if m.getMatchFn != nil {
		return m.getMatchFn(ctx, id)
	}
	return nil, domain.ErrMatchNotFound
}

func (m *mockAppService) UpdateScore(ctx context.Context, id domain.MatchID, homeScore, awayScore int) (*domain.Match, error) {
	if m.updateScoreFn != nil {
		return m.updateScoreFn(ctx, id, homeScore, awayScore)
	}
	return nil, domain.ErrMatchNotFound
}

func (m *mockAppService) CreateCommentary(ctx context.Context, in domain.NewCommentary) (*domain.Commentary, error) {
	if m.createCommentaryFn != nil {
		return m.createCommentaryFn(ctx, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) ListCommentary(ctx context.Context, matchID domain.MatchID, limit int) ([]domain.Commentary, error) {
	if m.listCommentaryFn != nil {
		return m.listCommentaryFn(ctx, matchID, limit)
	}
	return nil, nil
}

type mockAcceptLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (m *mockAcceptLimiter) Allow(context.Context, string) (bool, error) {
	m.calls++
	return m.allowed, m.err
}

// --- Test server ---

type testServerOpts struct {
	healthChecks  []HealthCheck
	acceptLimiter AcceptLimiter
	wsHandler     http.Handler
	config        *config.Config
}

type testServerOption func(*testServerOpts)

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(o *testServerOpts) { o.healthChecks = checks }
}

func withAcceptLimiter(l AcceptLimiter) testServerOption {
	return func(o *testServerOpts) { o.acceptLimiter = l }
}

func withConfig(cfg *config.Config) testServerOption {
	return func(o *testServerOpts) { o.config = cfg }
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:        "development",
		Host:          "127.0.0.1",
		Port:          "0",
		HTTPRateLimit: 1000,
		HTTPRateBurst: 1000,
		WSRateLimit:   5,
		WSRateWindow:  2 * time.Second,
	}
}

// stubWebSocket stands in for the upgrade handler; reaching it means the
// request passed the accept limiter.
var stubWebSocket = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func newTestServer(t *testing.T, app appService, opts ...testServerOption) *Server {
	t.Helper()

	o := &testServerOpts{wsHandler: stubWebSocket, config: testConfig()}
	for _, opt := range opts {
		opt(o)
	}

	return NewServer(o.config, app, o.wsHandler, o.acceptLimiter, metrics.New(), o.healthChecks)
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = testRemoteAddr

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func doRequestWith(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.RemoteAddr = testRemoteAddr
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
