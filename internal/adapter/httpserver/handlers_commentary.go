package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/sportzlive/internal/domain"
	apperrors "github.com/pscheid92/sportzlive/internal/platform/errors"
)

const (
	defaultCommentaryLimit = 100
	maxCommentaryLimit     = 100
)

type createCommentaryRequest struct {
	Minute    *int           `json:"minute"`
	Sequence  int            `json:"sequence"`
	Period    string         `json:"period"`
	EventType string         `json:"eventType"`
	Actor     string         `json:"actor"`
	Team      string         `json:"team"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
	Tags      []string       `json:"tags"`
}

func (r createCommentaryRequest) toNewCommentary(matchID domain.MatchID) (domain.NewCommentary, error) {
	if r.Sequence <= 0 {
		return domain.NewCommentary{}, apperrors.ValidationError("sequence must be positive").WithField("field", "sequence")
	}
	if err := nonNegative(r.Minute, "minute"); err != nil {
		return domain.NewCommentary{}, err
	}
	if err := requireField(r.EventType, "eventType"); err != nil {
		return domain.NewCommentary{}, err
	}
	if err := requireField(r.Actor, "actor"); err != nil {
		return domain.NewCommentary{}, err
	}
	if err := requireField(r.Message, "message"); err != nil {
		return domain.NewCommentary{}, err
	}

	return domain.NewCommentary{
		MatchID:   matchID,
		Minute:    r.Minute,
		Sequence:  r.Sequence,
		Period:    r.Period,
		EventType: r.EventType,
		Actor:     r.Actor,
		Team:      r.Team,
		Message:   r.Message,
		Metadata:  r.Metadata,
		Tags:      r.Tags,
	}, nil
}

func (s *Server) registerCommentaryRoutes(g *echo.Group) {
	g.GET("/:id/commentary", s.handleListCommentary)
	g.POST("/:id/commentary", s.handleCreateCommentary)
}

func (s *Server) handleListCommentary(c echo.Context) error {
	matchID, err := parseMatchID(c)
	if err != nil {
		return err
	}
	limit, err := parseLimit(c, defaultCommentaryLimit, maxCommentaryLimit)
	if err != nil {
		return err
	}

	entries, err := s.app.ListCommentary(c.Request().Context(), matchID, limit)
	if err != nil {
		return apperrors.InternalError("failed to list commentary", err)
	}
	if entries == nil {
		entries = []domain.Commentary{}
	}

	return writeJSON(c, http.StatusOK, map[string]any{
		"message": "Commentary retrieved successfully",
		"count":   len(entries),
		"data":    entries,
	})
}

func (s *Server) handleCreateCommentary(c echo.Context) error {
	matchID, err := parseMatchID(c)
	if err != nil {
		return err
	}

	var req createCommentaryRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	in, err := req.toNewCommentary(matchID)
	if err != nil {
		return err
	}

	entry, err := s.app.CreateCommentary(c.Request().Context(), in)
	if err != nil {
		return matchError(err, matchID, "failed to create commentary")
	}

	return writeJSON(c, http.StatusCreated, map[string]any{
		"message": "Commentary created successfully",
		"data":    entry,
	})
}
