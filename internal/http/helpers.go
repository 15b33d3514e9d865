package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
)

// CatalogPath is where not-found and malformed book links end up.
const CatalogPath = "/catalog/"

// ErrNotOwner is returned when someone other than the owner changes a book.
var ErrNotOwner = errors.New("not the owner of this book")

// Flasher queues one-shot messages in the session.
type Flasher interface {
	AddFlash(r *http.Request, level auth.FlashLevel, message string)
}

// pages bundles what every HTML controller needs to answer a request.
type pages struct {
	render  auth.Renderer
	flashes Flasher
}

func (p pages) flash(c *gin.Context, level auth.FlashLevel, message string) {
	if p.flashes != nil {
		p.flashes.AddFlash(c.Request, level, message)
	}
}

// redirect answers a POST with 302 and queues message for the next page.
func (p pages) redirect(c *gin.Context, location string, level auth.FlashLevel, message string) {
	p.flash(c, level, message)
	c.Redirect(http.StatusFound, location)
}

// respondInternalError logs the error and renders a generic error page.
// The actual error is logged but not exposed to the client.
func (p pages) respondInternalError(c *gin.Context, err error, context string) {
	slog.Error("internal error", "context", context, "path", c.Request.URL.Path, "error", err)
	p.render.Render(c, http.StatusInternalServerError, "error", gin.H{
		"Title":   "Server error",
		"Message": "Something went wrong. Please try again later.",
	})
}

// parseID parses a positive book ID. Zero is never a valid primary key.
func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// currentUserID is only called behind RequireAuth.
func currentUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}
