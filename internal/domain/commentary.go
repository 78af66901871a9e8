package domain

import (
	"context"
	"time"
)

type Commentary struct {
	ID        int64          `json:"id"`
	MatchID   MatchID        `json:"matchId"`
	Minute    *int           `json:"minute,omitempty"`
	Sequence  int            `json:"sequence"`
	Period    string         `json:"period,omitempty"`
	EventType string         `json:"eventType"`
	Actor     string         `json:"actor"`
	Team      string         `json:"team,omitempty"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NewCommentary is the input for posting a commentary entry.
type NewCommentary struct {
	MatchID   MatchID
	Minute    *int
	Sequence  int
	Period    string
	EventType string
	Actor     string
	Team      string
	Message   string
	Metadata  map[string]any
	Tags      []string
}

type CommentaryRepository interface {
	Create(ctx context.Context, c NewCommentary) (*Commentary, error)
	ListByMatch(ctx context.Context, matchID MatchID, limit int) ([]Commentary, error)
}
