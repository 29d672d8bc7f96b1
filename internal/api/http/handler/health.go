package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

const healthTimeout = 2 * time.Second

// Health reports whether the database is reachable.
type Health struct {
	pinger model.Pinger
	logger *logger.Logger
}

// NewHealth creates a new Health handler.
func NewHealth(pinger model.Pinger, logger *logger.Logger) *Health {
	return &Health{pinger: pinger, logger: logger}
}

// Check pings the database.
func (h *Health) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
