package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rule allows Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
	unit   string
}

func (r Rule) String() string {
	return fmt.Sprintf("%d per 1 %s", r.Limit, r.unit)
}

type Decision struct {
	Allowed bool
	// RetryAfter is set when Allowed is false.
	RetryAfter time.Duration
	// Violated is the rule that rejected the request.
	Violated Rule
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParseRules parses "10/minute;100/hour". Units may be plural.
func ParseRules(s string) ([]Rule, error) {
	var out []Rule
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, unit, ok := strings.Cut(part, "/")
		if !ok {
			return nil, fmt.Errorf("rate limit %q: expected N/unit", part)
		}
		limit, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("rate limit %q: invalid count", part)
		}
		unit = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(unit)), "s")
		window, ok := units[unit]
		if !ok {
			return nil, fmt.Errorf("rate limit %q: unknown unit %q", part, unit)
		}
		out = append(out, Rule{Limit: limit, Window: window, unit: unit})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rate limit %q: no rules", s)
	}
	return out, nil
}
