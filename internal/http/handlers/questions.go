package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/specforge-backend/internal/http/response"
	"github.com/yungbote/specforge-backend/internal/specgen"
)

type QuestionsHandler struct {
	svc *specgen.Service
}

func NewQuestionsHandler(svc *specgen.Service) *QuestionsHandler {
	return &QuestionsHandler{svc: svc}
}

// POST /api/v1/questions
func (h *QuestionsHandler) Generate(c *gin.Context) {
	var req specgen.QuestionsRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Questions(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.RespondOK(c, res)
}
