package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// UIController serves the dashboard and the profile page.
type UIController struct {
	pages
	summaries SummaryStore
	statuses  StatusStore
}

func NewUIController(render auth.Renderer, flashes Flasher, summaries SummaryStore, statuses StatusStore) *UIController {
	return &UIController{
		pages:     pages{render: render, flashes: flashes},
		summaries: summaries,
		statuses:  statuses,
	}
}

// Home lists readers with their book counts.
// GET /
func (uc *UIController) Home(c *gin.Context) {
	summaries, err := uc.summaries.Summaries(c.Request.Context())
	if err != nil {
		uc.respondInternalError(c, err, "load summaries")
		return
	}

	uc.render.Render(c, http.StatusOK, "home", gin.H{
		"Title":     "Readers",
		"Summaries": summaries,
	})
}

// StatusGroup is one section of the profile page.
type StatusGroup struct {
	Status entities.ReadingStatus
	Label  string
	Books  []entities.Book
}

// groupByStatus buckets tracked books in display order; empty buckets are kept.
func groupByStatus(tracked []entities.UserStatus) []StatusGroup {
	groups := make([]StatusGroup, 0, len(entities.ReadingStatusChoices))
	index := make(map[entities.ReadingStatus]int, len(entities.ReadingStatusChoices))
	for i, choice := range entities.ReadingStatusChoices {
		status := entities.ReadingStatus(choice.Value)
		groups = append(groups, StatusGroup{Status: status, Label: choice.Label})
		index[status] = i
	}

	for _, us := range tracked {
		i, ok := index[us.ReadingStatus]
		if !ok {
			continue
		}
		groups[i].Books = append(groups[i].Books, us.Book)
	}
	return groups
}

// Profile shows the current user's books grouped by reading status.
// GET /profile/
func (uc *UIController) Profile(c *gin.Context) {
	tracked, err := uc.statuses.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		uc.respondInternalError(c, err, "load profile")
		return
	}

	uc.render.Render(c, http.StatusOK, "profile", gin.H{
		"Title":  "My books",
		"Groups": groupByStatus(tracked),
	})
}
