package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/facebookgo/clock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisFixture(t *testing.T, start time.Time) (*miniredis.Miniredis, goredis.UniversalClient, *clock.Mock) {
	t.Helper()
	mr := miniredis.RunT(t)
	mr.SetTime(start)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = rdb.Close() })

	clk := clock.NewMock()
	clk.Add(start.Sub(clk.Now()))
	return mr, rdb, clk
}

func TestRedisLimiter_FixedWindows(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 15, 30, 0, time.UTC)
	mr, rdb, clk := newRedisFixture(t, start)
	rules, err := ParseRules("2/minute;3/hour")
	require.NoError(t, err)
	l := NewRedisLimiter(rdb, "specforge:rl:chat", rules, clk)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "key:abc")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}

	d, err := l.Allow(ctx, "key:abc")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.Violated.Window)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	minuteKey, _ := windowKey("specforge:rl:chat", "key:abc", rules[0], start)
	assert.Equal(t, 31*time.Second, mr.TTL(minuteKey))

	other, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	// Rejected hits still count, so the next minute trips the hourly rule.
	clk.Add(30 * time.Second)
	mr.SetTime(clk.Now())
	d, err = l.Allow(ctx, "key:abc")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Hour, d.Violated.Window)
	assert.Equal(t, 44*time.Minute, d.RetryAfter)
}

func TestRedisLimiter_PrefixesDoNotShareCounters(t *testing.T) {
	_, rdb, clk := newRedisFixture(t, time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC))
	rules, err := ParseRules("1/minute")
	require.NoError(t, err)
	chat := NewRedisLimiter(rdb, "specforge:rl:chat", rules, clk)
	questions := NewRedisLimiter(rdb, "specforge:rl:questions", rules, clk)
	ctx := context.Background()

	d, err := chat.Allow(ctx, "key:abc")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = questions.Allow(ctx, "key:abc")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = chat.Allow(ctx, "key:abc")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 55*time.Second, d.RetryAfter)
}

func TestRedisLimiter_ServerDown(t *testing.T) {
	mr, rdb, clk := newRedisFixture(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	rules, err := ParseRules("1/minute")
	require.NoError(t, err)
	l := NewRedisLimiter(rdb, "specforge:rl:chat", rules, clk)

	mr.Close()
	_, err = l.Allow(context.Background(), "key:abc")
	assert.Error(t, err)
}
