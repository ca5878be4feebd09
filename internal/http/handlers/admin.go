package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	promptrepo "github.com/yungbote/specforge-backend/internal/data/repos/prompts"
	"github.com/yungbote/specforge-backend/internal/http/response"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
	"github.com/yungbote/specforge-backend/internal/prompt"
)

// CacheBroadcaster fans a cache clear out to the other replicas.
type CacheBroadcaster interface {
	Publish(ctx context.Context, reason string) error
}

type PromptAdminHandler struct {
	log   *logger.Logger
	cache *prompt.Cache
	repo  promptrepo.PromptRepo
	// bus is nil when running without Redis.
	bus CacheBroadcaster
}

func NewPromptAdminHandler(log *logger.Logger, cache *prompt.Cache, repo promptrepo.PromptRepo, bus CacheBroadcaster) *PromptAdminHandler {
	return &PromptAdminHandler{log: log.With("handler", "PromptAdminHandler"), cache: cache, repo: repo, bus: bus}
}

// POST /api/v1/admin/prompts/cache/clear
func (h *PromptAdminHandler) ClearCache(c *gin.Context) {
	evicted := h.cache.Len()
	h.cache.Clear()

	broadcast := false
	if h.bus != nil {
		if err := h.bus.Publish(c.Request.Context(), "admin_clear"); err != nil {
			h.log.Warn("cache invalidation broadcast failed", "error", err)
		} else {
			broadcast = true
		}
	}
	h.log.Info("prompt cache cleared", "evicted", evicted, "broadcast", broadcast)
	response.RespondOK(c, gin.H{"cleared": true, "evicted": evicted, "broadcast": broadcast})
}

// GET /api/v1/admin/prompts
func (h *PromptAdminHandler) ListPrompts(c *gin.Context) {
	frags, err := h.repo.ListActive(c.Request.Context(), nil)
	if err != nil {
		respondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prompts": frags})
}
