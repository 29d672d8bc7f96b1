package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/logger"
)

// Logging is a gin middleware that logs HTTP requests and results.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle logs method, route, duration and status for each request.
func (l *Logging) Handle(c *gin.Context) {
	start := time.Now()

	c.Next()

	duration := time.Since(start)
	status := c.Writer.Status()

	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	l.logger.Info("HTTP request completed",
		"method", c.Request.Method,
		"route", route,
		"duration_ms", duration.Milliseconds(),
		"status", status,
		"size", c.Writer.Size(),
		"client_ip", c.ClientIP())

	if len(c.Errors) > 0 || status >= http.StatusInternalServerError {
		l.logger.Error("HTTP request failed",
			"method", c.Request.Method,
			"route", route,
			"error", c.Errors.String(),
			"status", status)
	}
}
