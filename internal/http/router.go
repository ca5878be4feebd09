package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/specforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/specforge-backend/internal/http/middleware"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	MaxBodyBytes   int64

	AuthMiddleware     *httpMW.AuthMiddleware
	ChatRateLimit      gin.HandlerFunc
	QuestionsRateLimit gin.HandlerFunc

	HealthHandler      *httpH.HealthHandler
	ChatHandler        *httpH.ChatHandler
	QuestionsHandler   *httpH.QuestionsHandler
	PromptAdminHandler *httpH.PromptAdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.MaxBodyBytes(cfg.MaxBodyBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api/v1")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAPIKey())
		}

		// Chat (SSE)
		if cfg.ChatHandler != nil {
			chat := protected.Group("/chat")
			if cfg.ChatRateLimit != nil {
				chat.Use(cfg.ChatRateLimit)
			}
			chat.POST("", cfg.ChatHandler.Chat)
			chat.POST("/repair", cfg.ChatHandler.Repair)
		}

		// Questions
		if cfg.QuestionsHandler != nil {
			questions := protected.Group("/questions")
			if cfg.QuestionsRateLimit != nil {
				questions.Use(cfg.QuestionsRateLimit)
			}
			questions.POST("", cfg.QuestionsHandler.Generate)
		}

		// Prompt admin
		if cfg.PromptAdminHandler != nil {
			protected.GET("/admin/prompts", cfg.PromptAdminHandler.ListPrompts)
			protected.POST("/admin/prompts/cache/clear", cfg.PromptAdminHandler.ClearCache)
		}
	}

	return r
}
