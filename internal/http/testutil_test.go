package http

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/statuses"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/media"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testApp is the full router on a temporary database and media root.
type testApp struct {
	router   *gin.Engine
	db       *database.Database
	books    *books.Repository
	statuses *statuses.Repository
	users    *users.Repository
	store    *media.LocalStore
}

// newTestApp builds the router; opts adjust the config before it is built.
func newTestApp(t *testing.T, opts ...func(*RouterConfig)) *testApp {
	t.Helper()
	dir := t.TempDir()

	db, err := database.NewDatabase(filepath.Join(dir, "bookshelf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	authCfg := config.Auth{
		SessionLifetime: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	}
	userRepo := users.NewRepository(db.DB)
	sessions, err := auth.NewSessionManager(sqlDB, authCfg)
	require.NoError(t, err)

	store, err := media.NewLocalStore(filepath.Join(dir, "media"))
	require.NoError(t, err)

	app := &testApp{
		db:       db,
		books:    books.NewRepository(db.DB),
		statuses: statuses.NewRepository(db.DB),
		users:    userRepo,
		store:    store,
	}

	cfg := RouterConfig{
		Database:       db,
		Books:          app.books,
		Statuses:       app.statuses,
		Users:          userRepo,
		AuthService:    auth.NewService(userRepo, authCfg),
		SessionManager: sessions,
		AuthMiddleware: auth.NewMiddleware(userRepo, sessions),
		Media:          store,
		Discarder:      media.ImmediateDiscarder{Store: store},
		MaxUploadBytes: 1 << 20,
		Metrics:        NewMetrics(),
		Version:        "test",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	router, err := NewRouter(cfg)
	require.NoError(t, err)
	app.router = router
	return app
}

// client is one browser: it keeps its own cookies.
type client struct {
	app     *testApp
	cookies []*http.Cookie
}

func (a *testApp) anonymous() *client {
	return &client{app: a}
}

// register creates an account through the registration form and keeps the
// session, then drains the welcome flash.
func (a *testApp) register(t *testing.T, username string) *client {
	t.Helper()
	cl := a.anonymous()
	rr := cl.postForm("/register/", url.Values{
		"username":  {username},
		"email":     {username + "@example.com"},
		"password1": {"correct-horse"},
		"password2": {"correct-horse"},
	})
	require.Equal(t, http.StatusFound, rr.Code, rr.Body.String())
	require.Equal(t, http.StatusOK, cl.get("/catalog/").Code)
	return cl
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	cl.app.router.ServeHTTP(rr, req)

	for _, fresh := range rr.Result().Cookies() {
		replaced := false
		for i, old := range cl.cookies {
			if old.Name == fresh.Name {
				cl.cookies[i] = fresh
				replaced = true
			}
		}
		if !replaced {
			cl.cookies = append(cl.cookies, fresh)
		}
	}
	return rr
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

// postMultipart sends fields plus an optional cover file.
func (cl *client) postMultipart(t *testing.T, path string, fields map[string]string, cover []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if cover != nil {
		part, err := w.CreateFormFile("cover_image", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(cover)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return cl.do(req)
}

// withCSRF turns on CSRF protection over plain HTTP.
func withCSRF(cfg *RouterConfig) {
	cfg.CSRFSecret = []byte("test-secret-key-32-bytes-long!!!")
}

// csrfToken reads the hidden CSRF input from a rendered page.
func csrfToken(t *testing.T, body string) string {
	t.Helper()
	_, rest, ok := strings.Cut(body, `name="csrf_token" value="`)
	require.True(t, ok, "page has no CSRF field")
	token, _, _ := strings.Cut(rest, `"`)
	return token
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
