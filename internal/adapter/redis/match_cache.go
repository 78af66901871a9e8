package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pscheid92/sportzlive/internal/adapter/metrics"
	"github.com/pscheid92/sportzlive/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// storeIfCurrentScript writes the cached copy only while the match's
// generation still equals the one read before loading. Returns 1 when stored.
var storeIfCurrentScript = goredis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[2] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// MatchCache is a read-through Redis cache for single matches. Concurrent
// misses for the same match share one load. Redis failures degrade to a
// direct load and never fail the read.
//
// Every invalidation bumps a per-match generation. A load that started before
// an invalidation finishes with a stale generation and is not written back.
type MatchCache struct {
	rdb     goredis.Cmdable
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.CacheMetrics
}

var _ domain.MatchCache = (*MatchCache)(nil)

func NewMatchCache(rdb goredis.Cmdable, ttl time.Duration, m *metrics.CacheMetrics) *MatchCache {
	return &MatchCache{rdb: rdb, ttl: ttl, metrics: m}
}

func (c *MatchCache) Get(ctx context.Context, id domain.MatchID, load func(context.Context) (*domain.Match, error)) (*domain.Match, error) {
	if m, ok := c.getCached(ctx, id); ok {
		c.metrics.Hits.Inc()
		return m, nil
	}
	c.metrics.Misses.Inc()

	v, err, _ := c.group.Do(id.String(), func() (any, error) {
		gen, genErr := c.generation(ctx, id)
		m, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			c.writeCache(ctx, m, gen)
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Match), nil
}

// Invalidate drops the cached copy so the next read reloads it. Loads already
// in flight still return to their callers but no longer populate the cache.
func (c *MatchCache) Invalidate(ctx context.Context, id domain.MatchID) error {
	c.group.Forget(id.String())
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, matchGenerationKey(id))
		pipe.Del(ctx, matchCacheKey(id))
		return nil
	})
	if err != nil {
		c.metrics.Errors.Inc()
		return fmt.Errorf("failed to invalidate match cache: %w", err)
	}
	c.metrics.Invalidations.Inc()
	return nil
}

func (c *MatchCache) getCached(ctx context.Context, id domain.MatchID) (*domain.Match, bool) {
	data, err := c.rdb.Get(ctx, matchCacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.metrics.Errors.Inc()
			slog.Warn("Redis match cache GET failed", "match_id", id.String(), "error", err)
		}
		return nil, false
	}

	var m domain.Match
	if err := json.Unmarshal(data, &m); err != nil {
		c.metrics.Errors.Inc()
		slog.Warn("Failed to unmarshal cached match", "match_id", id.String(), "error", err)
		return nil, false
	}
	return &m, true
}

func (c *MatchCache) generation(ctx context.Context, id domain.MatchID) (int64, error) {
	gen, err := c.rdb.Get(ctx, matchGenerationKey(id)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.metrics.Errors.Inc()
		slog.Warn("Redis match cache generation read failed", "match_id", id.String(), "error", err)
		return 0, err
	}
	return gen, nil
}

func (c *MatchCache) writeCache(ctx context.Context, m *domain.Match, gen int64) {
	encoded, err := json.Marshal(m)
	if err != nil {
		slog.Warn("Failed to marshal match for Redis cache", "match_id", m.ID.String(), "error", err)
		return
	}

	stored, err := storeIfCurrentScript.Run(ctx, c.rdb,
		[]string{matchCacheKey(m.ID), matchGenerationKey(m.ID)},
		encoded, gen, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.metrics.Errors.Inc()
		slog.Warn("Failed to populate Redis match cache", "match_id", m.ID.String(), "error", err)
		return
	}
	if stored == 0 {
		slog.Debug("Match changed during load, cache not populated", "match_id", m.ID.String())
	}
}

func matchCacheKey(id domain.MatchID) string {
	return "match_cache:" + id.String()
}

func matchGenerationKey(id domain.MatchID) string {
	return "match_cache_gen:" + id.String()
}
