package http

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/web"
)

// hstsMaxAge is one year.
const hstsMaxAge = 365 * 24 * 3600

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	templates := cfg.Templates
	if templates == nil {
		templates = web.Templates()
	}
	renderer, err := NewRenderer(templates, cfg.SessionManager)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(hstsMaxAge))
	}

	// Probes, metrics and assets skip sessions and CSRF.
	health := NewHealthController(cfg.Database, cfg.CoverSweep, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)
	if cfg.Metrics != nil {
		router.GET("/metrics", cfg.Metrics.Handler())
	}
	router.StaticFS("/static", http.FS(web.Static()))
	router.GET("/media/covers/*key", NewCoversController(cfg.Media).GetCover)

	// CSRF must run before session so that session context is preserved
	var pageChain []gin.HandlerFunc
	if len(cfg.CSRFSecret) > 0 {
		pageChain = append(pageChain, auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	pageChain = append(pageChain, cfg.SessionManager.SessionLoadSave(), cfg.AuthMiddleware.Handler())

	site := router.Group("/", pageChain...)
	if cfg.ReadOnly != nil {
		site.Use(cfg.ReadOnly.Handler(renderer))
	}
	if throttle := NewWriteThrottle(cfg.WriteRPS, cfg.WriteBurst); throttle != nil {
		site.Use(throttle.Handler())
	}

	authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.LoginLimiter, renderer)
	authController.RegisterRoutes(site)

	ui := NewUIController(renderer, cfg.SessionManager, cfg.Users, cfg.Statuses)
	booksController := NewBooksController(
		renderer,
		cfg.SessionManager,
		cfg.Books,
		cfg.Statuses,
		cfg.Media,
		cfg.Discarder,
		cfg.MaxUploadBytes,
	)

	site.GET("/", ui.Home)

	// Old query-string URLs
	site.GET("/catalog/book/", booksController.LegacyDetail)
	site.GET("/catalog/edit/", booksController.LegacyEdit)

	member := site.Group("/", cfg.AuthMiddleware.RequireAuth())
	member.GET("/catalog/", booksController.Catalog)
	member.GET("/catalog/new/", booksController.NewPage)
	member.POST("/catalog/new/", booksController.Create)
	member.GET("/book/:id/", booksController.Detail)
	member.GET("/book/:id/edit/", booksController.EditPage)
	member.POST("/book/:id/edit/", booksController.Update)
	member.POST("/book/:id/delete/", booksController.Delete)
	member.POST("/book/:id/update-status/", booksController.UpdateStatus)
	member.GET("/profile/", ui.Profile)

	// The 404 page shares the layout, so it needs the session for flashes
	// and the CSRF token for the logout form.
	router.NoRoute(append(slices.Clip(pageChain), func(c *gin.Context) {
		renderer.Render(c, http.StatusNotFound, "error", gin.H{
			"Title":   "Page not found",
			"Message": "The page you are looking for does not exist.",
		})
	})...)

	return router, nil
}
