package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"golang.org/x/time/rate"
)

const sweepEvery = 1024

type bucketSet struct {
	limiters []*rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per rule per key in process memory.
type MemoryLimiter struct {
	rules []Rule
	clk   clock.Clock

	mu      sync.Mutex
	buckets map[string]*bucketSet
	calls   int
	idle    time.Duration
}

func NewMemoryLimiter(rules []Rule, clk clock.Clock) *MemoryLimiter {
	if clk == nil {
		clk = clock.New()
	}
	var idle time.Duration
	for _, r := range rules {
		if r.Window > idle {
			idle = r.Window
		}
	}
	return &MemoryLimiter{
		rules:   rules,
		clk:     clk,
		buckets: make(map[string]*bucketSet),
		idle:    idle,
	}
}

// Allow takes one token from every rule or none of them.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucketSet{limiters: make([]*rate.Limiter, len(l.rules))}
		for i, r := range l.rules {
			b.limiters[i] = rate.NewLimiter(rate.Every(r.Window/time.Duration(r.Limit)), r.Limit)
		}
		l.buckets[key] = b
	}
	b.lastSeen = now

	reservations := make([]*rate.Reservation, 0, len(b.limiters))
	dec := Decision{Allowed: true}
	for i, lim := range b.limiters {
		res := lim.ReserveN(now, 1)
		reservations = append(reservations, res)
		if delay := res.DelayFrom(now); !res.OK() || delay > 0 {
			if !dec.Allowed && delay <= dec.RetryAfter {
				continue
			}
			dec.Allowed = false
			dec.RetryAfter = delay
			dec.Violated = l.rules[i]
		}
	}
	if !dec.Allowed {
		for _, res := range reservations {
			res.CancelAt(now)
		}
	}
	return dec, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, k)
		}
	}
}
