package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/api/http/cookie"
	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// LoginPath is where unauthenticated browser requests are sent.
const LoginPath = "/login"

// SessionResolver resolves a session token to the identity it authenticates.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (model.Identity, error)
}

// Authenticate validates the session cookie and injects the identity into the request context.
type Authenticate struct {
	sessions       SessionResolver
	cookie         *cookie.Session
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(sessions SessionResolver, cookie *cookie.Session, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{
		sessions:       sessions,
		cookie:         cookie,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Require lets the request through only with a live session.
// Without one, browsers are redirected to the login page and API clients get 401.
// A live session gets its cookie rewritten so the browser expiry slides with
// the server-side idle timeout.
func (m *Authenticate) Require(c *gin.Context) {
	token, identity, err := m.authenticateUser(c)
	if err != nil {
		if !errors.Is(err, model.ErrAuth) {
			m.logger.Error("failed to resolve session", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		Unauthorized(c)
		return
	}

	m.cookie.Set(c, token)

	ctx := m.contextManager.SetIdentityToContext(c.Request.Context(), identity)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func (m *Authenticate) authenticateUser(c *gin.Context) (string, model.Identity, error) {
	token := m.cookie.Get(c)
	if token == "" {
		return "", model.Identity{}, model.ErrAuth
	}

	identity, err := m.sessions.Resolve(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, model.ErrAuth) {
			m.cookie.Clear(c)
		}
		return "", model.Identity{}, err
	}

	return token, identity, nil
}

// Unauthorized aborts the request with the unauthenticated outcome.
func Unauthorized(c *gin.Context) {
	if WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, LoginPath)
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    "Please log in to access this page",
		"redirect": LoginPath,
	})
}

// WantsHTML reports whether the request comes from a browser navigation
// rather than from a script.
func WantsHTML(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return false
	}
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
