package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/api/http/middleware"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// handleError writes the response for err. Only messages meant for users leave the server.
func handleError(c *gin.Context, err error) {
	var (
		validationErr *model.ValidationError
		conflictErr   *model.ConflictError
		maxBytesErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Message})
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": middleware.MaxBodyMessage})
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	case errors.Is(err, model.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	case errors.Is(err, model.ErrAuth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	case errors.Is(err, model.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// handleBindError writes the response for a request body that could not be read.
func handleBindError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": middleware.MaxBodyMessage})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

// pathID parses a positive numeric path parameter. Anything else names no resource.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return id, true
}

// requireIdentity returns the caller set by the Authenticate middleware.
func requireIdentity(c *gin.Context, contextManager model.ContextManager) (model.Identity, bool) {
	identity, ok := contextManager.GetIdentityFromContext(c.Request.Context())
	if !ok {
		middleware.Unauthorized(c)
		return model.Identity{}, false
	}
	return identity, true
}
