package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/sportzlive/internal/domain"
	apperrors "github.com/pscheid92/sportzlive/internal/platform/errors"
)

const (
	defaultMatchLimit = 50
	maxMatchLimit     = 100
)

type createMatchRequest struct {
	Sport     string `json:"sport"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	HomeScore *int   `json:"homeScore"`
	AwayScore *int   `json:"awayScore"`
}

func (r createMatchRequest) toNewMatch() (domain.NewMatch, error) {
	required := []struct{ field, value string }{
		{"sport", r.Sport},
		{"homeTeam", r.HomeTeam},
		{"awayTeam", r.AwayTeam},
	}
	for _, f := range required {
		if err := requireField(f.value, f.field); err != nil {
			return domain.NewMatch{}, err
		}
	}

	start, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return domain.NewMatch{}, apperrors.ValidationError("startTime must be an RFC 3339 timestamp").WithField("field", "startTime")
	}
	end, err := time.Parse(time.RFC3339, r.EndTime)
	if err != nil {
		return domain.NewMatch{}, apperrors.ValidationError("endTime must be an RFC 3339 timestamp").WithField("field", "endTime")
	}
	if !end.After(start) {
		return domain.NewMatch{}, apperrors.ValidationError("endTime must be after startTime").WithField("field", "endTime")
	}

	if err := nonNegative(r.HomeScore, "homeScore"); err != nil {
		return domain.NewMatch{}, err
	}
	if err := nonNegative(r.AwayScore, "awayScore"); err != nil {
		return domain.NewMatch{}, err
	}

	m := domain.NewMatch{
		Sport:     r.Sport,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		StartTime: start,
		EndTime:   end,
	}
	if r.HomeScore != nil {
		m.HomeScore = *r.HomeScore
	}
	if r.AwayScore != nil {
		m.AwayScore = *r.AwayScore
	}
	return m, nil
}

type updateScoreRequest struct {
	HomeScore *int `json:"homeScore"`
	AwayScore *int `json:"awayScore"`
}

func (s *Server) registerMatchRoutes(g *echo.Group) {
	g.GET("", s.handleListMatches)
	g.POST("", s.handleCreateMatch)
	g.GET("/:id", s.handleGetMatch)
	g.PATCH("/:id/score", s.handleUpdateScore)
}

func (s *Server) handleListMatches(c echo.Context) error {
	limit, err := parseLimit(c, defaultMatchLimit, maxMatchLimit)
	if err != nil {
		return err
	}

	matches, err := s.app.ListMatches(c.Request().Context(), limit)
	if err != nil {
		return apperrors.InternalError("failed to list matches", err)
	}
	if matches == nil {
		matches = []domain.Match{}
	}

	return writeJSON(c, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) handleCreateMatch(c echo.Context) error {
	var req createMatchRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	in, err := req.toNewMatch()
	if err != nil {
		return err
	}

	m, err := s.app.CreateMatch(c.Request().Context(), in)
	if err != nil {
		return apperrors.InternalError("failed to create match", err)
	}

	return writeJSON(c, http.StatusCreated, map[string]any{
		"message": "Match created successfully",
		"match":   m,
	})
}

func (s *Server) handleGetMatch(c echo.Context) error {
	id, err := parseMatchID(c)
	if err != nil {
		return err
	}

	m, err := s.app.GetMatch(c.Request().Context(), id)
	if err != nil {
		return matchError(err, id, "failed to get match")
	}

	return writeJSON(c, http.StatusOK, map[string]any{"match": m})
}

func (s *Server) handleUpdateScore(c echo.Context) error {
	id, err := parseMatchID(c)
	if err != nil {
		return err
	}

	var req updateScoreRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.HomeScore == nil || req.AwayScore == nil {
		return apperrors.ValidationError("homeScore and awayScore are required")
	}
	if err := nonNegative(req.HomeScore, "homeScore"); err != nil {
		return err
	}
	if err := nonNegative(req.AwayScore, "awayScore"); err != nil {
		return err
	}

	m, err := s.app.UpdateScore(c.Request().Context(), id, *req.HomeScore, *req.AwayScore)
	if err != nil {
		return matchError(err, id, "failed to update score")
	}

	return writeJSON(c, http.StatusOK, map[string]any{
		"message": "Score updated successfully",
		"match":   m,
	})
}

func matchError(err error, id domain.MatchID, message string) error {
	if errors.Is(err, domain.ErrMatchNotFound) {
		return apperrors.NotFoundError("match not found").WithField("match_id", id.String())
	}
	return apperrors.InternalError(message, err)
}

func writeJSON(c echo.Context, status int, body any) error {
	if err := c.JSON(status, body); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
