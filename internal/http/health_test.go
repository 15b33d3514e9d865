package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/database"
)

func setupHealthTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	return db
}

func getHealth(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		db := setupHealthTestDB(t)
		defer db.Close()

		code, response := getHealth(t, NewHealthController(db, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.NotEmpty(t, response.Time)
	})

	t.Run("reports not configured when database is nil", func(t *testing.T) {
		code, response := getHealth(t, NewHealthController(nil, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "not configured", response.Checks["database"])
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db := setupHealthTestDB(t)
		require.NoError(t, db.Close())

		code, response := getHealth(t, NewHealthController(db, nil, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})
}

func TestRouter_ProbesAndMetrics(t *testing.T) {
	app := newTestApp(t)
	cl := app.anonymous()

	rr := cl.get("/ping")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())

	rr = cl.get("/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Result().Cookies(), "probes do not start sessions")

	rr = cl.get("/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `bookshelf_http_requests_total{method="GET",route="/ping",status="200"} 1`)

	rr = cl.get("/static/style.css")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")
}

func TestRouter_SecurityHeaders(t *testing.T) {
	app := newTestApp(t)

	rr := app.anonymous().get("/")
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

type fakeSweep struct {
	running bool
	next    *time.Time
}

func (f fakeSweep) IsRunning() bool     { return f.running }
func (f fakeSweep) NextRun() *time.Time { return f.next }

func TestHealthController_CoverSweep(t *testing.T) {
	t.Run("omitted when the sweep is disabled", func(t *testing.T) {
		_, response := getHealth(t, NewHealthController(nil, nil, "1.0.0"))
		assert.Nil(t, response.CoverSweep)
	})

	t.Run("reports the next run", func(t *testing.T) {
		next := time.Date(2026, 3, 1, 3, 30, 0, 0, time.UTC)
		code, response := getHealth(t, NewHealthController(nil, fakeSweep{running: true, next: &next}, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		require.NotNil(t, response.CoverSweep)
		assert.True(t, response.CoverSweep.Running)
		assert.Equal(t, "2026-03-01T03:30:00Z", response.CoverSweep.NextRun)
	})

	t.Run("stopped sweep keeps the probe healthy", func(t *testing.T) {
		code, response := getHealth(t, NewHealthController(nil, fakeSweep{}, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		require.NotNil(t, response.CoverSweep)
		assert.False(t, response.CoverSweep.Running)
		assert.Empty(t, response.CoverSweep.NextRun)
	})
}
