package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/sportzlive/internal/domain"
)

// Service is the application layer. It is the only component that talks to
// both the stores and the live fan-out.
type Service struct {
	matches    domain.MatchRepository
	commentary domain.CommentaryRepository
	cache      domain.MatchCache
	announcer  domain.Announcer
	clock      clockwork.Clock
}

// NewService creates the application service. cache may be nil.
func NewService(matches domain.MatchRepository, commentary domain.CommentaryRepository, cache domain.MatchCache, announcer domain.Announcer, clock clockwork.Clock) *Service {
	return &Service{
		matches:    matches,
		commentary: commentary,
		cache:      cache,
		announcer:  announcer,
		clock:      clock,
	}
}

// CreateMatch stores a new match with a status derived from its time window
// and announces it to every viewer.
func (s *Service) CreateMatch(ctx context.Context, in domain.NewMatch) (*domain.Match, error) {
	in.Status = domain.StatusAt(s.clock.Now(), in.StartTime, in.EndTime)

	m, err := s.matches.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	s.announcer.AnnounceMatch(m)
	slog.Info("Match created", "match_id", m.ID.String(), "status", string(m.Status))
	return m, nil
}

func (s *Service) ListMatches(ctx context.Context, limit int) ([]domain.Match, error) {
	matches, err := s.matches.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

// GetMatch reads through the match cache when one is configured.
func (s *Service) GetMatch(ctx context.Context, id domain.MatchID) (*domain.Match, error) {
	if s.cache == nil {
		return s.matches.GetByID(ctx, id)
	}
	return s.cache.Get(ctx, id, func(ctx context.Context) (*domain.Match, error) {
		return s.matches.GetByID(ctx, id)
	})
}

// UpdateScore stores the new score, drops the cached copy and announces the
// changed match to every viewer.
func (s *Service) UpdateScore(ctx context.Context, id domain.MatchID, homeScore, awayScore int) (*domain.Match, error) {
	m, err := s.matches.UpdateScore(ctx, id, homeScore, awayScore)
	if err != nil {
		return nil, fmt.Errorf("update score: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			slog.Warn("Failed to invalidate match cache", "match_id", id.String(), "error", err)
		}
	}

	s.announcer.AnnounceMatch(m)
	return m, nil
}

// CreateCommentary stores an entry and pushes it to the match's subscribers.
func (s *Service) CreateCommentary(ctx context.Context, in domain.NewCommentary) (*domain.Commentary, error) {
	c, err := s.commentary.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create commentary: %w", err)
	}

	s.announcer.AnnounceCommentary(c.MatchID, c)
	return c, nil
}

// ListCommentary returns up to limit entries for the match, newest first.
func (s *Service) ListCommentary(ctx context.Context, matchID domain.MatchID, limit int) ([]domain.Commentary, error) {
	entries, err := s.commentary.ListByMatch(ctx, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list commentary: %w", err)
	}
	return entries, nil
}
