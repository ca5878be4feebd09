package http

import (
	"net/http"

	"github.com/yungbote/specforge-backend/internal/config"
)

// NewServer has no write timeout so long SSE streams are bounded by the provider timeout instead.
func NewServer(cfg config.HTTPConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.IdleTimeout.Duration,
		WriteTimeout:      0,
	}
}
