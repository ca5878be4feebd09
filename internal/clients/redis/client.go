package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	pingTimeout = 5 * time.Second
)

// Options turns the configured address into client options. Both "host:port" and
// redis:// / rediss:// URLs (with credentials and db) are accepted.
func Options(addr string) (*goredis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if opts.DialTimeout == 0 {
			opts.DialTimeout = dialTimeout
		}
		return opts, nil
	}
	return &goredis.Options{Addr: addr, DialTimeout: dialTimeout}, nil
}

// NewClient connects and pings once so a bad address fails at boot rather than on the
// first rate-limited request.
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	opts, err := Options(addr)
	if err != nil {
		return nil, err
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
