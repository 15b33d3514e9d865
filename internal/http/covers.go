package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/media"
)

// CoversController serves uploaded cover images.
type CoversController struct {
	store media.Store
}

func NewCoversController(store media.Store) *CoversController {
	return &CoversController{store: store}
}

// GetCover streams a stored cover.
// GET /media/covers/*key
func (cc *CoversController) GetCover(c *gin.Context) {
	key := "covers" + c.Param("key")
	if cc.store == nil || !media.ValidKey(key) {
		c.Status(http.StatusNotFound)
		return
	}

	rc, info, err := cc.store.Open(c.Request.Context(), key)
	if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrInvalidKey) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to open cover", "key", key, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, map[string]string{
		// Keys are never reused, so covers can be cached for a long time.
		"Cache-Control": "public, max-age=" + strconv.Itoa(30*24*3600) + ", immutable",
	})
}
