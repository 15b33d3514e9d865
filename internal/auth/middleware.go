package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const contextKeyUser = "auth_user"

// LoginPath is where anonymous visitors are sent.
const LoginPath = "/login/"

// UserLookup resolves session user IDs into users.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*entities.User, error)
}

// Middleware attaches the session user to each request.
type Middleware struct {
	users    UserLookup
	sessions *SessionManager
}

func NewMiddleware(users UserLookup, sessions *SessionManager) *Middleware {
	return &Middleware{users: users, sessions: sessions}
}

// Handler loads the current user, if any. Requests are never rejected here.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := m.sessions.GetUserID(c.Request)
		if userID != 0 {
			user, err := m.users.GetByID(c.Request.Context(), userID)
			if err != nil {
				// The account was deleted under a live session.
				slog.Debug("dropping session for missing user", "user_id", userID, "error", err)
				m.sessions.Remove(c.Request.Context(), SessionKeyUserID)
			} else {
				c.Set(contextKeyUser, user)
			}
		}
		c.Next()
	}
}

// RequireAuth redirects anonymous visitors to the login page.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(contextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID returns 0 for anonymous requests.
func GetUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}

func IsAuthenticated(c *gin.Context) bool {
	return CurrentUser(c) != nil
}
