// Package cookie reads and writes the session cookie.
package cookie

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Session manages the cookie that carries the session token.
type Session struct {
	name   string
	secure bool
	maxAge int
}

// NewSession creates a session cookie helper. The browser keeps the cookie
// for maxAge; the server enforces the idle timeout on its own.
func NewSession(name string, secure bool, maxAge time.Duration) *Session {
	return &Session{
		name:   name,
		secure: secure,
		maxAge: int(maxAge / time.Second),
	}
}

// Set writes the session token to the response.
func (s *Session) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.name, token, s.maxAge, "/", "", s.secure, true)
}

// Clear expires the session cookie in the browser.
func (s *Session) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.name, "", -1, "/", "", s.secure, true)
}

// Get returns the session token sent by the client, empty when absent.
func (s *Session) Get(c *gin.Context) string {
	token, err := c.Cookie(s.name)
	if err != nil {
		return ""
	}
	return token
}
