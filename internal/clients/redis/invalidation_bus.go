package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

// InvalidationMessage tells every replica to drop its local prompt cache.
type InvalidationMessage struct {
	Origin string    `json:"origin"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

type InvalidationBus interface {
	Publish(ctx context.Context, reason string) error
	StartForwarder(ctx context.Context, onMsg func(m InvalidationMessage)) error
}

type invalidationBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	origin  string
}

func NewInvalidationBus(rdb *goredis.Client, channel string, log *logger.Logger) (InvalidationBus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	ch := strings.TrimSpace(channel)
	if ch == "" {
		ch = "specforge:prompt-cache"
	}
	return &invalidationBus{
		log:     log.With("service", "PromptInvalidationBus"),
		rdb:     rdb,
		channel: ch,
		origin:  uuid.NewString(),
	}, nil
}

func (b *invalidationBus) Publish(ctx context.Context, reason string) error {
	raw, err := json.Marshal(InvalidationMessage{Origin: b.origin, Reason: reason, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and invokes onMsg for invalidations published by other replicas.
// The local replica clears its own cache before publishing, so its echoes are skipped.
func (b *invalidationBus) StartForwarder(ctx context.Context, onMsg func(m InvalidationMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var msg InvalidationMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad invalidation payload", "error", err)
					continue
				}
				if msg.Origin == b.origin {
					continue
				}
				onMsg(msg)
			}
		}
	}()
	return nil
}
