package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/api/http/cookie"
	"github.com/dtroode/vibenotes-server/internal/api/http/middleware"
	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// AuthService registers and authenticates users.
type AuthService interface {
	Register(ctx context.Context, username, password, confirmPassword string) (model.Identity, error)
	Authenticate(ctx context.Context, username, password string) (model.Identity, error)
}

// SessionService opens and closes browser sessions.
type SessionService interface {
	Start(ctx context.Context, identity model.Identity) (string, error)
	End(ctx context.Context, token string) error
}

// Auth handles registration, login and logout.
type Auth struct {
	auth           AuthService
	sessions       SessionService
	cookie         *cookie.Session
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	auth AuthService,
	sessions SessionService,
	cookie *cookie.Session,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		auth:           auth,
		sessions:       sessions,
		cookie:         cookie,
		contextManager: contextManager,
		logger:         logger,
	}
}

type registerRequest struct {
	Username        string `form:"username" json:"username"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

type loginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Register creates an account and logs the new user in.
func (h *Auth) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		handleBindError(c, err)
		return
	}

	identity, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		handleError(c, err)
		return
	}

	if !h.startSession(c, identity) {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful! Welcome to VibeNotes!",
		"user":    newUserResponse(identity),
	})
}

// LoginForm describes the login endpoint to clients sent here without a session.
func (h *Auth) LoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Please log in",
		"fields":  []string{"username", "password"},
	})
}

// Login authenticates the user and opens a session.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		handleBindError(c, err)
		return
	}

	identity, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	if !h.startSession(c, identity) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful!",
		"user":    newUserResponse(identity),
	})
}

// Logout ends the current session, if any, and clears the cookie.
func (h *Auth) Logout(c *gin.Context) {
	if token := h.cookie.Get(c); token != "" {
		if err := h.sessions.End(c.Request.Context(), token); err != nil {
			h.logger.Error("failed to end session", "error", err)
		}
	}
	h.cookie.Clear(c)

	if middleware.WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, middleware.LoginPath)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "You have been logged out",
		"redirect": middleware.LoginPath,
	})
}

// Home returns the logged in user.
func (h *Auth) Home(c *gin.Context) {
	identity, ok := requireIdentity(c, h.contextManager)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(identity)})
}

func (h *Auth) startSession(c *gin.Context, identity model.Identity) bool {
	token, err := h.sessions.Start(c.Request.Context(), identity)
	if err != nil {
		handleError(c, err)
		return false
	}
	h.cookie.Set(c, token)
	return true
}
