package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/sportzlive/internal/domain"
)

const commentaryColumns = `id, match_id, minute, sequence, period, event_type, actor, team, message, metadata, tags, created_at`

const createCommentary = `-- name: CreateCommentary
INSERT INTO commentary (match_id, minute, sequence, period, event_type, actor, team, message, metadata, tags)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, $9, $10)
RETURNING ` + commentaryColumns

const listCommentaryByMatch = `-- name: ListCommentaryByMatch
SELECT ` + commentaryColumns + `
FROM commentary
WHERE match_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

// foreignKeyViolation is the SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

type CommentaryRepo struct {
	pool *pgxpool.Pool
}

var _ domain.CommentaryRepository = (*CommentaryRepo)(nil)

func NewCommentaryRepo(pool *pgxpool.Pool) *CommentaryRepo {
	return &CommentaryRepo{pool: pool}
}

func scanCommentary(row pgx.Row) (*domain.Commentary, error) {
	var (
		c      domain.Commentary
		period *string
		team   *string
	)
	err := row.Scan(&c.ID, &c.MatchID, &c.Minute, &c.Sequence, &period, &c.EventType, &c.Actor, &team, &c.Message, &c.Metadata, &c.Tags, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if period != nil {
		c.Period = *period
	}
	if team != nil {
		c.Team = *team
	}
	return &c, nil
}

// Create stores a commentary entry. It returns domain.ErrMatchNotFound when the match does not exist.
func (r *CommentaryRepo) Create(ctx context.Context, in domain.NewCommentary) (*domain.Commentary, error) {
	var metadata any
	if len(in.Metadata) > 0 {
		metadata = in.Metadata
	}

	row := r.pool.QueryRow(ctx, createCommentary,
		int64(in.MatchID), in.Minute, in.Sequence, in.Period, in.EventType, in.Actor, in.Team, in.Message, metadata, in.Tags)

	c, err := scanCommentary(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, domain.ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to create commentary: %w", err)
	}
	return c, nil
}

// ListByMatch returns up to limit entries for the match, newest first.
func (r *CommentaryRepo) ListByMatch(ctx context.Context, matchID domain.MatchID, limit int) ([]domain.Commentary, error) {
	rows, err := r.pool.Query(ctx, listCommentaryByMatch, int64(matchID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commentary: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Commentary, error) {
		c, err := scanCommentary(row)
		if err != nil {
			return domain.Commentary{}, err
		}
		return *c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan commentary: %w", err)
	}
	return entries, nil
}
