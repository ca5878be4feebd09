package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/specforge-backend/internal/completion"
	"github.com/yungbote/specforge-backend/internal/http/response"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
	"github.com/yungbote/specforge-backend/internal/specgen"
)

type ChatHandler struct {
	log *logger.Logger
	svc *specgen.Service
}

func NewChatHandler(log *logger.Logger, svc *specgen.Service) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), svc: svc}
}

// POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req specgen.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.svc.PrepareChat(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.stream(c, plan)
}

// POST /api/v1/chat/repair
func (h *ChatHandler) Repair(c *gin.Context) {
	var req specgen.RepairRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.svc.PrepareRepair(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.stream(c, plan)
}

func (h *ChatHandler) stream(c *gin.Context, plan specgen.Plan) {
	ctx := c.Request.Context()
	log := h.log.For(ctx)
	w := c.Writer
	response.StartSSE(w)

	out, err := h.svc.Stream(ctx, plan, func(ev completion.Event) error {
		if err := response.WriteSSE(w, string(ev.Type), ev.Data); err != nil {
			return err
		}
		w.Flush()
		return nil
	})
	if err != nil {
		log.Info("stream ended early", "deltas", out.Deltas, "error", err)
		return
	}
	if out.Validation != nil {
		log.Debug("stream finished", "deltas", out.Deltas, "delimiter_seen", out.DelimiterSeen, "contract_valid", out.Validation.Valid)
	}
}
