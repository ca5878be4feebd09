package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	goredis "github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in fixed windows shared by every replica.
type RedisLimiter struct {
	rdb    goredis.UniversalClient
	rules  []Rule
	prefix string
	clk    clock.Clock
}

func NewRedisLimiter(rdb goredis.UniversalClient, prefix string, rules []Rule, clk clock.Clock) *RedisLimiter {
	if clk == nil {
		clk = clock.New()
	}
	return &RedisLimiter{rdb: rdb, rules: rules, prefix: prefix, clk: clk}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.clk.Now()

	type counter struct {
		rule  Rule
		incr  *goredis.IntCmd
		reset time.Time
	}
	counters := make([]counter, 0, len(l.rules))
	_, err := l.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, r := range l.rules {
			k, reset := windowKey(l.prefix, key, r, now)
			counters = append(counters, counter{rule: r, incr: pipe.Incr(ctx, k), reset: reset})
			pipe.ExpireAt(ctx, k, reset.Add(time.Second))
		}
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit counters: %w", err)
	}

	dec := Decision{Allowed: true}
	for _, c := range counters {
		if c.incr.Val() <= int64(c.rule.Limit) {
			continue
		}
		retry := c.reset.Sub(now)
		if !dec.Allowed && retry <= dec.RetryAfter {
			continue
		}
		dec.Allowed = false
		dec.RetryAfter = retry
		dec.Violated = c.rule
	}
	return dec, nil
}

// windowKey names the counter for the fixed window containing now and returns when it resets.
func windowKey(prefix, key string, r Rule, now time.Time) (string, time.Time) {
	start := now.Truncate(r.Window)
	return fmt.Sprintf("%s:%s:%s:%d", prefix, key, r.Window, start.Unix()), start.Add(r.Window)
}
