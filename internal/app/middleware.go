package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/specforge-backend/internal/config"
	httpMW "github.com/yungbote/specforge-backend/internal/http/middleware"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
	"github.com/yungbote/specforge-backend/internal/ratelimit"
)

type Middleware struct {
	Auth               *httpMW.AuthMiddleware
	ChatRateLimit      gin.HandlerFunc
	QuestionsRateLimit gin.HandlerFunc
}

func wireMiddleware(log *logger.Logger, cfg *config.Config, clients Clients) (Middleware, error) {
	log.Info("Wiring middleware...")
	chat, err := buildLimiter(cfg.RateLimit.Chat, "chat", clients)
	if err != nil {
		return Middleware{}, err
	}
	qs, err := buildLimiter(cfg.RateLimit.Questions, "questions", clients)
	if err != nil {
		return Middleware{}, err
	}
	return Middleware{
		Auth:               httpMW.NewAuthMiddleware(log, cfg.Auth.APISecretKey),
		ChatRateLimit:      httpMW.RateLimit(log, "chat", chat),
		QuestionsRateLimit: httpMW.RateLimit(log, "questions", qs),
	}, nil
}

func buildLimiter(spec, name string, clients Clients) (ratelimit.Limiter, error) {
	rules, err := ratelimit.ParseRules(spec)
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", name, err)
	}
	if clients.Redis != nil {
		return ratelimit.NewRedisLimiter(clients.Redis, "specforge:rl:"+name, rules, nil), nil
	}
	return ratelimit.NewMemoryLimiter(rules, nil), nil
}
