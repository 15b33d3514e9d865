package readonly

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Message is shown when a write is refused.
const Message = "This site is in read-only mode"

// ContextKey stores the read-only flag in the request context for templates.
const ContextKey = "read_only"

// Renderer draws the refusal page with the site layout.
type Renderer interface {
	Render(c *gin.Context, status int, page string, data gin.H)
}

// Middleware blocks write operations when read-only mode is on.
// GET, HEAD and OPTIONS always pass. Logging in and out stays possible so
// visitors can still see their own statuses.
type Middleware struct {
	enabled bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations. Refusals
// render the "error" page through render, or plain text when render is nil.
func (m *Middleware) Handler(render Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKey, m.enabled)

		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		respondBlocked(c, render)
	}
}

func isAllowedPath(path string) bool {
	for _, allowed := range []string{"/login/", "/logout/"} {
		if path == allowed || path == strings.TrimSuffix(allowed, "/") {
			return true
		}
	}
	return false
}

func respondBlocked(c *gin.Context, render Renderer) {
	if render == nil {
		c.String(http.StatusForbidden, Message)
		c.Abort()
		return
	}
	render.Render(c, http.StatusForbidden, "error", gin.H{
		"Title":   "Read-only mode",
		"Message": Message + ". Changes are disabled for now.",
	})
	c.Abort()
}

// Enabled reports whether the request passed through an enabled middleware.
func Enabled(c *gin.Context) bool {
	return c.GetBool(ContextKey)
}
