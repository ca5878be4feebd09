package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	version string
	env     string
}

func NewHealthHandler(version, env string) *HealthHandler {
	return &HealthHandler{version: version, env: env}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"version":     h.version,
		"environment": h.env,
	})
}
