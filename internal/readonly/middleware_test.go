package readonly

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(enabled bool) *gin.Engine {
	return newRouterWith(enabled, nil)
}

func newRouterWith(enabled bool, render Renderer) *gin.Engine {
	m := NewMiddleware(enabled)
	router := gin.New()
	router.Use(m.Handler(render))
	ok := func(c *gin.Context) {
		if Enabled(c) {
			c.String(http.StatusOK, "OK read-only")
			return
		}
		c.String(http.StatusOK, "OK")
	}
	router.GET("/catalog/", ok)
	router.POST("/catalog/new/", ok)
	router.DELETE("/book/1/", ok)
	router.POST("/login/", ok)
	router.POST("/logout/", ok)
	return router
}

func do(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewMiddleware(t *testing.T) {
	if !NewMiddleware(true).IsEnabled() {
		t.Error("Expected middleware to be enabled")
	}
	if NewMiddleware(false).IsEnabled() {
		t.Error("Expected middleware to be disabled")
	}
}

func TestMiddleware_AllowsGETRequests(t *testing.T) {
	w := do(newRouter(true), http.MethodGet, "/catalog/")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK read-only" {
		t.Errorf("Expected read-only flag in context, got %q", w.Body.String())
	}
}

func TestMiddleware_BlocksWrites(t *testing.T) {
	router := newRouter(true)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/catalog/new/"},
		{http.MethodDelete, "/book/1/"},
	} {
		w := do(router, tc.method, tc.path)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s: expected status 403, got %d", tc.method, tc.path, w.Code)
		}
		if w.Body.String() != Message {
			t.Errorf("%s %s: unexpected body %q", tc.method, tc.path, w.Body.String())
		}
	}
}

type pageRenderer struct {
	page string
	data gin.H
}

func (r *pageRenderer) Render(c *gin.Context, status int, page string, data gin.H) {
	r.page, r.data = page, data
	c.String(status, "<h1>%s</h1>", data["Title"])
}

func TestMiddleware_RendersErrorPage(t *testing.T) {
	render := &pageRenderer{}
	w := do(newRouterWith(true, render), http.MethodPost, "/catalog/new/")
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", w.Code)
	}
	if render.page != "error" {
		t.Errorf("Expected the error page, got %q", render.page)
	}
	if w.Body.String() != "<h1>Read-only mode</h1>" {
		t.Errorf("Unexpected body %q", w.Body.String())
	}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		t.Error("Refusals must not be JSON")
	}

	render.page = ""
	if w := do(newRouterWith(true, render), http.MethodGet, "/catalog/"); w.Code != http.StatusOK || render.page != "" {
		t.Errorf("GET must pass without rendering, got %d %q", w.Code, render.page)
	}
}

func TestMiddleware_AllowsAuthPaths(t *testing.T) {
	router := newRouter(true)
	for _, path := range []string{"/login/", "/logout/"} {
		if w := do(router, http.MethodPost, path); w.Code != http.StatusOK {
			t.Errorf("POST %s: expected status 200, got %d", path, w.Code)
		}
	}
}

func TestMiddleware_DisabledPassesEverything(t *testing.T) {
	w := do(newRouter(false), http.MethodPost, "/catalog/new/")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected plain OK, got %q", w.Body.String())
	}
}
