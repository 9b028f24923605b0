package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newRedisLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimiter(client, limit, window), mr
}

func TestLimiters(t *testing.T) {
	factories := map[string]func(t *testing.T, clock *fakeClock) Limiter{
		"memory": func(t *testing.T, clock *fakeClock) Limiter {
			l := NewMemoryLimiter(5, 15*time.Minute)
			l.now = clock.Now
			return l
		},
		"redis": func(t *testing.T, clock *fakeClock) Limiter {
			l, _ := newRedisLimiter(t, 5, 15*time.Minute)
			l.now = clock.Now
			return l
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			t.Run("blocks after limit", func(t *testing.T) {
				ctx := context.Background()
				clock := newFakeClock()
				l := factory(t, clock)

				for i := range 5 {
					d, err := l.Allow(ctx, "10.0.0.1")
					require.NoError(t, err)
					assert.True(t, d.Allowed, "attempt %d", i+1)
					assert.Equal(t, 4-i, d.Remaining)
					clock.Advance(time.Second)
				}

				d, err := l.Allow(ctx, "10.0.0.1")
				require.NoError(t, err)
				assert.False(t, d.Allowed)
				assert.Equal(t, 15*time.Minute-5*time.Second, d.RetryAfter)
			})

			t.Run("keys are independent", func(t *testing.T) {
				ctx := context.Background()
				clock := newFakeClock()
				l := factory(t, clock)

				for range 5 {
					_, err := l.Allow(ctx, "a")
					require.NoError(t, err)
				}
				d, err := l.Allow(ctx, "b")
				require.NoError(t, err)
				assert.True(t, d.Allowed)
			})

			t.Run("window slides", func(t *testing.T) {
				ctx := context.Background()
				clock := newFakeClock()
				l := factory(t, clock)

				for range 5 {
					_, err := l.Allow(ctx, "k")
					require.NoError(t, err)
				}
				d, err := l.Allow(ctx, "k")
				require.NoError(t, err)
				require.False(t, d.Allowed)

				clock.Advance(15 * time.Minute)
				d, err = l.Allow(ctx, "k")
				require.NoError(t, err)
				assert.True(t, d.Allowed)
			})

			t.Run("rejected attempts are not recorded", func(t *testing.T) {
				ctx := context.Background()
				clock := newFakeClock()
				l := factory(t, clock)

				for range 5 {
					_, err := l.Allow(ctx, "k")
					require.NoError(t, err)
				}
				clock.Advance(time.Minute)
				for range 5 {
					d, err := l.Allow(ctx, "k")
					require.NoError(t, err)
					require.False(t, d.Allowed)
				}
				clock.Advance(14 * time.Minute)
				d, err := l.Allow(ctx, "k")
				require.NoError(t, err)
				assert.True(t, d.Allowed)
			})
		})
	}
}

func TestRedisLimiterSetsExpiry(t *testing.T) {
	l, mr := newRedisLimiter(t, 5, 15*time.Minute)

	_, err := l.Allow(context.Background(), "10.0.0.9")
	require.NoError(t, err)

	key := "myquiz:login:10.0.0.9"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 15*time.Minute, mr.TTL(key))
}

func TestRedisLimiterUnavailable(t *testing.T) {
	l, mr := newRedisLimiter(t, 5, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestMemoryLimiterSweepsIdleKeys(t *testing.T) {
	clock := newFakeClock()
	l := NewMemoryLimiter(5, time.Minute)
	l.now = clock.Now

	for i := range sweepThreshold + 1 {
		_, err := l.Allow(context.Background(), time.Duration(i).String())
		require.NoError(t, err)
	}
	clock.Advance(2 * time.Minute)
	_, err := l.Allow(context.Background(), "fresh")
	require.NoError(t, err)

	assert.Len(t, l.hits, 1)
}
