package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/sportzlive/internal/domain"
)

const matchColumns = `id, sport, home_team, away_team, status, start_time, end_time, home_score, away_score, created_at`

const createMatch = `-- name: CreateMatch
INSERT INTO matches (sport, home_team, away_team, status, start_time, end_time, home_score, away_score)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + matchColumns

const listMatches = `-- name: ListMatches
SELECT ` + matchColumns + `
FROM matches
ORDER BY created_at DESC, id DESC
LIMIT $1`

const getMatchByID = `-- name: GetMatchByID
SELECT ` + matchColumns + `
FROM matches
WHERE id = $1`

const updateMatchScore = `-- name: UpdateMatchScore
UPDATE matches
SET home_score = $2, away_score = $3
WHERE id = $1
RETURNING ` + matchColumns

type MatchRepo struct {
	pool *pgxpool.Pool
}

var _ domain.MatchRepository = (*MatchRepo)(nil)

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var (
		m      domain.Match
		status string
	)
	err := row.Scan(&m.ID, &m.Sport, &m.HomeTeam, &m.AwayTeam, &status, &m.StartTime, &m.EndTime, &m.HomeScore, &m.AwayScore, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Status = domain.MatchStatus(status)
	return &m, nil
}

func (r *MatchRepo) Create(ctx context.Context, in domain.NewMatch) (*domain.Match, error) {
	row := r.pool.QueryRow(ctx, createMatch,
		in.Sport, in.HomeTeam, in.AwayTeam, string(in.Status), in.StartTime, in.EndTime, in.HomeScore, in.AwayScore)

	m, err := scanMatch(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return m, nil
}

func (r *MatchRepo) List(ctx context.Context, limit int) ([]domain.Match, error) {
	rows, err := r.pool.Query(ctx, listMatches, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Match, error) {
		m, err := scanMatch(row)
		if err != nil {
			return domain.Match{}, err
		}
		return *m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan matches: %w", err)
	}
	return matches, nil
}

func (r *MatchRepo) GetByID(ctx context.Context, id domain.MatchID) (*domain.Match, error) {
	m, err := scanMatch(r.pool.QueryRow(ctx, getMatchByID, int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match by ID: %w", err)
	}
	return m, nil
}

func (r *MatchRepo) UpdateScore(ctx context.Context, id domain.MatchID, homeScore, awayScore int) (*domain.Match, error) {
	m, err := scanMatch(r.pool.QueryRow(ctx, updateMatchScore, int64(id), homeScore, awayScore))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update match score: %w", err)
	}
	return m, nil
}
