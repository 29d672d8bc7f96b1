package handler

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// ProfileService reads and edits user profiles.
type ProfileService interface {
	Get(ctx context.Context, userID int64) (model.Profile, error)
	Update(ctx context.Context, userID int64, description string, avatar *model.Upload) (model.Profile, error)
	Avatar(ctx context.Context, userID int64) (io.ReadCloser, string, error)
}

// Profile handles profile pages and avatars.
type Profile struct {
	profiles       ProfileService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewProfile creates a new Profile handler.
func NewProfile(profiles ProfileService, contextManager model.ContextManager, logger *logger.Logger) *Profile {
	return &Profile{
		profiles:       profiles,
		contextManager: contextManager,
		logger:         logger,
	}
}

type profileRequest struct {
	Description string `form:"description" json:"description"`
}

// Get returns the caller's profile.
func (h *Profile) Get(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), identity.UserID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": newProfileResponse(profile)})
}

// Update saves the description and, when one is sent, the avatar.
func (h *Profile) Update(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}

	var req profileRequest
	if err := c.ShouldBind(&req); err != nil {
		handleBindError(c, err)
		return
	}

	avatar, release, err := formFile(c, "avatar")
	if err != nil {
		handleBindError(c, err)
		return
	}
	defer release()

	profile, err := h.profiles.Update(c.Request.Context(), identity.UserID, req.Description, avatar)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully!",
		"profile": newProfileResponse(profile),
	})
}

// Avatar streams the avatar of the user in the path.
func (h *Profile) Avatar(c *gin.Context) {
	if _, ok := requireIdentity(c, h.contextManager); !ok {
		return
	}

	userID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	rc, name, err := h.profiles.Avatar(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Cache-Control": "no-cache",
	})
}
