package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/specforge-backend/internal/http/response"
	"github.com/yungbote/specforge-backend/internal/platform/apierr"
	"github.com/yungbote/specforge-backend/internal/platform/ctxutil"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
	"github.com/yungbote/specforge-backend/internal/ratelimit"
)

// CallerID is the rate-limit identity: a short API key prefix when a key was sent,
// otherwise the client IP.
func CallerID(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader(HeaderAPIKey)); key != "" {
		if len(key) > 8 {
			key = key[:8]
		}
		return "key:" + key
	}
	return c.ClientIP()
}

// RateLimit rejects callers over budget with 429. Limiter backend failures let the request
// through.
func RateLimit(log *logger.Logger, name string, lim ratelimit.Limiter) gin.HandlerFunc {
	log = log.With("Middleware", "RateLimit", "limit", name)
	return func(c *gin.Context) {
		caller := CallerID(c)
		ctxutil.SetCallerID(c.Request.Context(), caller)

		dec, err := lim.Allow(c.Request.Context(), name+":"+caller)
		if err != nil {
			log.Warn("rate limiter unavailable; allowing request", "error", err)
			c.Next()
			return
		}
		if !dec.Allowed {
			secs := int(math.Ceil(dec.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			log.Warn("rate limit exceeded", "caller_id", caller, "rule", dec.Violated.String())
			response.AbortError(c, http.StatusTooManyRequests, apierr.CodeRateLimited,
				fmt.Sprintf("Rate limit exceeded: %s", dec.Violated))
			return
		}
		c.Next()
	}
}
