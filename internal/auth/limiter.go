package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one rate-limited attempt.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter caps attempts per key inside a sliding window. Every allowed call
// consumes one slot.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter keeps attempt timestamps in process.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// sweepThreshold bounds how many idle keys accumulate before a full sweep.
const sweepThreshold = 1024

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.hits) > sweepThreshold {
		for k, ts := range l.hits {
			if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
				delete(l.hits, k)
			}
		}
	}

	hits := prune(l.hits[key], cutoff)
	if len(hits) >= l.limit {
		l.hits[key] = hits
		return Decision{RetryAfter: hits[0].Add(l.window).Sub(now)}, nil
	}
	hits = append(hits, now)
	l.hits[key] = hits
	return Decision{Allowed: true, Remaining: l.limit - len(hits)}, nil
}

// prune drops timestamps at or before cutoff. ts is ascending.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// slidingWindow trims the window, counts what is left and records the
// attempt if under limit, atomically. Scores are unix microseconds passed as
// strings so Lua number formatting never rounds them.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
if count >= tonumber(ARGV[3]) then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, count, oldest[2]}
end
redis.call('ZADD', key, ARGV[1], ARGV[4])
redis.call('PEXPIRE', key, ARGV[5])
return {1, count + 1, ''}
`)

// RedisLimiter shares the window across server instances.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "myquiz:login:",
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now().UnixMicro()
	cutoff := now - l.window.Microseconds()
	res, err := slidingWindow.Run(ctx, l.client, []string{l.prefix + key},
		strconv.FormatInt(now, 10),
		strconv.FormatInt(cutoff, 10),
		l.limit,
		strconv.FormatInt(now, 10)+"-"+uuid.NewString(),
		max(l.window.Milliseconds(), 1),
	).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)

	if allowed == 0 {
		retry := l.window
		if s, ok := res[2].(string); ok {
			if oldest, err := strconv.ParseFloat(s, 64); err == nil {
				retry = time.Duration(int64(oldest)+l.window.Microseconds()-now) * time.Microsecond
			}
		}
		return Decision{RetryAfter: max(retry, 0)}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - int(count)}, nil
}
