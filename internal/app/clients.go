package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/specforge-backend/internal/clients/redis"
	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

type Clients struct {
	// Redis and InvalidationBus are nil when no Redis address is configured.
	Redis           *goredis.Client
	InvalidationBus redis.InvalidationBus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config) (Clients, error) {
	addr := strings.TrimSpace(cfg.RateLimit.RedisAddr)
	if addr == "" {
		log.Info("Redis not configured; using in-process rate limits and local cache invalidation")
		return Clients{}, nil
	}
	log.Info("Connecting to Redis...", "addr", addr)
	rdb, err := redis.NewClient(ctx, addr)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	bus, err := redis.NewInvalidationBus(rdb, cfg.Prompts.InvalidationChannel, log)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init invalidation bus: %w", err)
	}
	return Clients{Redis: rdb, InvalidationBus: bus}, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
