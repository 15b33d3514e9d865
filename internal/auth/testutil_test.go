package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/forms"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingRenderer remembers the last rendered page instead of drawing HTML.
type recordingRenderer struct {
	page string
	data gin.H
}

func (r *recordingRenderer) Render(c *gin.Context, status int, page string, data gin.H) {
	r.page = page
	r.data = data
	c.String(status, page)
}

func (r *recordingRenderer) errors() forms.Errors {
	errs, _ := r.data["Errors"].(forms.Errors)
	return errs
}

type testEnv struct {
	router   *gin.Engine
	service  *Service
	sessions *SessionManager
	users    *users.Repository
	render   *recordingRenderer
	cookies  []*http.Cookie
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime: time.Hour,
		BcryptCost:      bcrypt.MinCost,
		SecureCookies:   false,
	}
}

func setupTestEnv(t *testing.T, limiter LoginLimiter) *testEnv {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	cfg := testAuthConfig()
	repo := users.NewRepository(db.DB)
	svc := NewService(repo, cfg)
	sm, err := NewSessionManager(sqlDB, cfg)
	require.NoError(t, err)

	render := &recordingRenderer{}
	mw := NewMiddleware(repo, sm)

	router := gin.New()
	router.Use(sm.SessionLoadSave(), mw.Handler())
	NewAuthController(svc, sm, limiter, render).RegisterRoutes(router)

	router.GET("/catalog/", mw.RequireAuth(), func(c *gin.Context) {
		var msgs []string
		for _, f := range sm.PopFlashes(c.Request) {
			msgs = append(msgs, string(f.Level)+":"+f.Message)
		}
		c.String(http.StatusOK, "user=%s flashes=%s", CurrentUser(c).Username, strings.Join(msgs, "|"))
	})
	router.GET("/", func(c *gin.Context) {
		var msgs []string
		for _, f := range sm.PopFlashes(c.Request) {
			msgs = append(msgs, f.Message)
		}
		c.String(http.StatusOK, "home flashes=%s", strings.Join(msgs, "|"))
	})

	return &testEnv{router: router, service: svc, sessions: sm, users: repo, render: render}
}

// do sends a request carrying the cookies collected so far and keeps any new ones.
func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	for _, fresh := range rr.Result().Cookies() {
		replaced := false
		for i, old := range e.cookies {
			if old.Name == fresh.Name {
				e.cookies[i] = fresh
				replaced = true
			}
		}
		if !replaced {
			e.cookies = append(e.cookies, fresh)
		}
	}
	return rr
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func registrationValues(username string) url.Values {
	return url.Values{
		"username":  {username},
		"email":     {username + "@example.com"},
		"password1": {"correct-horse"},
		"password2": {"correct-horse"},
	}
}
