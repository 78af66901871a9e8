package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the window, refuses when it is full and otherwise
// records the attempt. Returns 1 when allowed.
var slidingWindowScript = goredis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// ConnectionLimiter admits at most limit WebSocket accepts per client IP
// within a sliding window. The window is shared by every server instance
// that talks to the same Redis.
type ConnectionLimiter struct {
	rdb    goredis.Scripter
	clock  clockwork.Clock
	limit  int
	window time.Duration
}

func NewConnectionLimiter(rdb goredis.Scripter, clock clockwork.Clock, limit int, window time.Duration) *ConnectionLimiter {
	return &ConnectionLimiter{rdb: rdb, clock: clock, limit: limit, window: window}
}

// Allow records one accept attempt for ip and reports whether it fits in the window.
func (l *ConnectionLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	now := l.clock.Now().UnixMilli()
	allowed, err := slidingWindowScript.Run(ctx, l.rdb,
		[]string{connectionLimitKey(ip)},
		now, l.window.Milliseconds(), l.limit, uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("connection limiter: %w", err)
	}
	return allowed == 1, nil
}

func connectionLimitKey(ip string) string {
	return "ws_accept:" + ip
}
