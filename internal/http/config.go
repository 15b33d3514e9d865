package http

import (
	"io/fs"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/media"
	"github.com/mrlokans/bookshelf/internal/readonly"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Books    BookStore
	Statuses StatusStore
	Users    SummaryStore

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	LoginLimiter   auth.LoginLimiter // nil disables login throttling
	CSRFSecret     []byte
	SecureCookies  bool

	// Cover storage
	Media          media.Store
	Discarder      media.Discarder
	MaxUploadBytes int64

	// Templates holds the page templates; nil uses the embedded set.
	Templates fs.FS

	ReadOnly *readonly.Middleware

	// POST throttling per client IP; zero WriteRPS disables it
	WriteRPS   float64
	WriteBurst int

	// CoverSweep is reported by /health; nil when the sweep is disabled.
	CoverSweep SweepStatus

	// Metrics is optional; nil disables /metrics.
	Metrics *Metrics

	// Application info
	Version string
}
