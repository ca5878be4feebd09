package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/specforge-backend/internal/config"
	httpapi "github.com/yungbote/specforge-backend/internal/http"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg *config.Config, handlers Handlers, middleware Middleware) *gin.Engine {
	log.Info("Wiring router...")
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return httpapi.NewRouter(httpapi.RouterConfig{
		Log:                log,
		ServiceName:        cfg.Otel.ServiceName,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:       cfg.HTTP.MaxRequestBytes,
		AuthMiddleware:     middleware.Auth,
		ChatRateLimit:      middleware.ChatRateLimit,
		QuestionsRateLimit: middleware.QuestionsRateLimit,
		HealthHandler:      handlers.Health,
		ChatHandler:        handlers.Chat,
		QuestionsHandler:   handlers.Questions,
		PromptAdminHandler: handlers.PromptAdmin,
	})
}
