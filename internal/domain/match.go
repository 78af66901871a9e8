package domain

import (
	"context"
	"strconv"
	"time"
)

// MatchID identifies a match. It is assigned by the match store and treated
// as an opaque key by the fan-out core.
type MatchID int64

func (id MatchID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFinished  MatchStatus = "finished"
)

// StatusAt derives the status of a match window relative to now.
func StatusAt(now, start, end time.Time) MatchStatus {
	switch {
	case now.Before(start):
		return MatchStatusScheduled
	case !now.After(end):
		return MatchStatusLive
	default:
		return MatchStatusFinished
	}
}

type Match struct {
	ID        MatchID     `json:"id"`
	Sport     string      `json:"sport"`
	HomeTeam  string      `json:"homeTeam"`
	AwayTeam  string      `json:"awayTeam"`
	Status    MatchStatus `json:"status"`
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	HomeScore int         `json:"homeScore"`
	AwayScore int         `json:"awayScore"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewMatch is the input for creating a match.
type NewMatch struct {
	Sport     string
	HomeTeam  string
	AwayTeam  string
	Status    MatchStatus
	StartTime time.Time
	EndTime   time.Time
	HomeScore int
	AwayScore int
}

type MatchRepository interface {
	Create(ctx context.Context, m NewMatch) (*Match, error)
	List(ctx context.Context, limit int) ([]Match, error)
	GetByID(ctx context.Context, id MatchID) (*Match, error)
	UpdateScore(ctx context.Context, id MatchID, homeScore, awayScore int) (*Match, error)
}

// MatchCache is an optional read-through layer in front of the match store.
type MatchCache interface {
	Get(ctx context.Context, id MatchID, load func(context.Context) (*Match, error)) (*Match, error)
	Invalidate(ctx context.Context, id MatchID) error
}
