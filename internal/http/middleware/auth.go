package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/specforge-backend/internal/http/response"
	"github.com/yungbote/specforge-backend/internal/platform/apierr"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

const HeaderAPIKey = "X-API-Key"

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		log:    log.With("Middleware", "AuthMiddleware"),
		secret: []byte(secret),
	}
}

// RequireAPIKey checks the shared secret. An empty configured secret disables the check,
// which config.Load only allows outside production.
func (am *AuthMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(am.secret) == 0 {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(HeaderAPIKey))
		if key == "" {
			response.AbortError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "Missing API key. Provide X-API-Key header.")
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), am.secret) != 1 {
			am.log.Warn("invalid API key", "client_ip", c.ClientIP())
			response.AbortError(c, http.StatusForbidden, apierr.CodeForbidden, "Invalid API key.")
			return
		}
		c.Next()
	}
}
