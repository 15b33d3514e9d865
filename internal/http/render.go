package http

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/forms"
	"github.com/mrlokans/bookshelf/internal/readonly"
)

const layoutFile = "layout.html"

// FlashPopper hands out the one-shot messages queued for this request.
type FlashPopper interface {
	PopFlashes(r *http.Request) []auth.Flash
}

// Renderer draws pages inside the shared layout. Each page is parsed
// together with the layout so pages can define their own "title" and
// "content" blocks.
type Renderer struct {
	pages   map[string]*template.Template
	flashes FlashPopper
}

var _ auth.Renderer = (*Renderer)(nil)

var funcMap = template.FuncMap{
	"coverURL": func(key string) string {
		return "/media/" + key
	},
	"genreLabel": func(g entities.Genre) string {
		return g.Label()
	},
	"statusLabel": func(s entities.ReadingStatus) string {
		return s.Label()
	},
}

// NewRenderer parses every page in templates. flashes may be nil.
func NewRenderer(templates fs.FS, flashes FlashPopper) (*Renderer, error) {
	files, err := fs.Glob(templates, "*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templates, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", file, err)
		}
		pages[name] = tmpl
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}

	return &Renderer{pages: pages, flashes: flashes}, nil
}

// Render writes page with status. The layout data (current user, flashes,
// CSRF field, choices) is added to data.
func (r *Renderer) Render(c *gin.Context, status int, page string, data gin.H) {
	tmpl, ok := r.pages[page]
	if !ok {
		slog.Error("unknown page template", "page", page)
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.Errors{}
	}
	data["User"] = auth.CurrentUser(c)
	data["CSRFField"] = auth.CSRFTokenField(c)
	data["ReadOnly"] = readonly.Enabled(c)
	data["Genres"] = entities.GenreChoices
	data["Statuses"] = entities.ReadingStatusChoices
	if r.flashes != nil {
		data["Flashes"] = r.flashes.PopFlashes(c.Request)
	}

	c.Render(status, render.HTML{Template: tmpl, Name: "layout", Data: data})
}
